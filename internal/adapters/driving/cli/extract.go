package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

var (
	extractDoc  string
	extractJSON bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract key fields from a loaded contract",
	Long: `Extracts a fixed set of contract fields (rent, deposit, termination,
and so on). Fields the contract does not mention are reported as
"not found" rather than omitted.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractDoc, "doc", "d", "", "document ID (default: most recent)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output fields as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := context.Background()
	session, _, err := loadedSession(ctx, extractDoc)
	if err != nil {
		return err
	}

	fields, err := session.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extracting fields: %w", err)
	}

	if extractJSON {
		data, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling fields: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Extracted fields:")
	for _, nf := range fields.Fields() {
		if nf.Field.Found {
			cmd.Printf("  %-18s %s (page %d)\n", nf.Name, nf.Field.Value, nf.Field.Page)
		} else {
			cmd.Printf("  %-18s %s\n", nf.Name, domain.FieldNotFound)
		}
	}
	return nil
}
