package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/contracta-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// chatDoc selects the document for the chat session.
var chatDoc string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat interactively about a contract",
	Long: `Launches an interactive chat session about a loaded contract.

Follow-up questions see the recent conversation, so "and the deposit?"
works after asking about the rent.

Commands inside the chat:
  /clear    - reset conversation memory
  /summary  - summarise the contract (brief, comprehensive, key_points)
  /quit     - exit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatDoc, "doc", "d", "", "document ID (default: most recent)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if err := ensureServices(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, _, err := loadedSession(ctx, chatDoc)
	if err != nil {
		return err
	}

	// Edited prompt templates take effect mid-session.
	if promptStore != nil {
		if err := promptStore.Watch(ctx); err != nil {
			logger.Warn("Prompt hot-reload unavailable: %v", err)
		}
	}

	app, err := tui.NewApp(&tui.Ports{Session: session})
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
