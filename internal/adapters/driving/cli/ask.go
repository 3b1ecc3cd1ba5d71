package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

var (
	askDoc  string
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about a loaded contract",
	Long: `Answers a question grounded on the contract text, citing the pages
the answer comes from. Repeated questions are served from the cache
without calling the provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDoc, "doc", "d", "", "document ID (default: most recent)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	question := args[0]
	ctx := context.Background()

	session, doc, err := loadedSession(ctx, askDoc)
	if err != nil {
		return err
	}

	answer, err := session.Ask(ctx, question)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	if err := appendHistory(historyEntry{
		DocumentID: doc.ID,
		Question:   question,
		Answer:     answer.Text,
	}); err != nil {
		logger.Warn("Recording history: %v", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printAnswer(cmd, answer)
	return nil
}

// printAnswer renders an answer with its citations.
func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	if answer.FromCache {
		cmd.Println("(cached)")
	}
	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Citations {
			cmd.Printf("  [Page %d] %s\n", c.Page, c.Excerpt)
		}
	}
}
