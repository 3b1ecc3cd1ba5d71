package cli

import (
	"github.com/spf13/cobra"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect recent questions",
	Long: `Shows questions asked from the command line. Conversation memory used
for follow-up questions lives inside a chat session; this history is a
persistent log of recent one-shot questions and their answers.`,
	RunE: runMemoryShow,
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recent questions",
	RunE:  runMemoryShow,
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the question history",
	RunE:  runMemoryClear,
}

func init() {
	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryClearCmd)
	rootCmd.AddCommand(memoryCmd)
}

func runMemoryShow(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	entries, err := readHistory()
	if err != nil {
		return err
	}

	window := cfg.Memory.Window
	if window > 0 && len(entries) > window {
		entries = entries[len(entries)-window:]
	}

	if len(entries) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}

	cmd.Printf("Last %d questions:\n", len(entries))
	for i := range entries {
		cmd.Printf("  Q: %s\n", entries[i].Question)
		cmd.Printf("  A: %s\n", entries[i].Answer)
		cmd.Println()
	}
	return nil
}

func runMemoryClear(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	if err := clearHistory(); err != nil {
		return err
	}
	cmd.Println("History cleared.")
	return nil
}
