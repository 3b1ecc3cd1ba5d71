package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

var (
	summarizeType string
	summarizeDoc  string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a loaded contract",
	Long: `Generates a summary of the contract. Long contracts are summarised
section by section and merged.

Summary types:
  brief          - one or two paragraphs (default)
  comprehensive  - covers every major section
  key_points     - numbered list of key clauses`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeType, "type", "t", "brief", "summary type (brief, comprehensive, key_points)")
	summarizeCmd.Flags().StringVarP(&summarizeDoc, "doc", "d", "", "document ID (default: most recent)")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	kind, err := domain.ParseSummaryKind(summarizeType)
	if err != nil {
		return err
	}

	ctx := context.Background()
	session, _, err := loadedSession(ctx, summarizeDoc)
	if err != nil {
		return err
	}

	answer, err := session.Summarize(ctx, kind)
	if err != nil {
		return fmt.Errorf("summarising document: %w", err)
	}

	cmd.Println(answer.Text)
	if answer.FromCache {
		cmd.Println("(cached)")
	}
	return nil
}
