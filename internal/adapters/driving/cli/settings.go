package cli

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/custodia-labs/contracta-cli/internal/adapters/driven/config/file"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the OpenAI provider, chunking and retrieval options.

Settings live in ~/.contracta/config.toml and can also be edited directly.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Set the OpenAI API key",
	Long:  `Prompts for the API key without echoing it and stores it in the config file.`,
	RunE:  runSettingsSetKey,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[General]")
	cmd.Printf("  Owner: %s\n", cfg.Owner)
	if configStore != nil {
		cmd.Printf("  Config: %s\n", configStore.Path())
	}
	cmd.Println()

	cmd.Println("[OpenAI]")
	if key := cfg.APIKey(); key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
	cmd.Printf("  Embedding model: %s\n", orDefault(cfg.OpenAI.EmbeddingModel))
	cmd.Printf("  LLM model: %s\n", orDefault(cfg.OpenAI.LLMModel))
	if cfg.OpenAI.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", cfg.OpenAI.BaseURL)
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", cfg.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", cfg.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", cfg.Retrieval.TopK)
	cmd.Printf("  Min score: %.2f\n", cfg.Retrieval.MinScore)
	cmd.Println()

	cmd.Println("[Memory]")
	cmd.Printf("  Window: %d turns\n", cfg.Memory.Window)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Print("Enter OpenAI API key: ")
	key := readPassword()
	cmd.Println()

	if key == "" {
		return errors.New("no key entered")
	}

	if err := configStore.Update(func(c *configfile.Config) {
		c.OpenAI.APIKey = key
	}); err != nil {
		return err
	}
	cfg = configStore.Config()

	cmd.Println("API key saved.")
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orDefault(value string) string {
	if value == "" {
		return "(default)"
	}
	return value
}
