// Package cli implements the contracta command-line interface.
// Each command file registers itself against the root command; service
// wiring happens lazily so that metadata-only commands work without
// provider credentials.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/contracta-cli/internal/adapters/driven/config/file"
	openaiembed "github.com/custodia-labs/contracta-cli/internal/adapters/driven/embedding/openai"
	openaillm "github.com/custodia-labs/contracta-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/contracta-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driving"
	"github.com/custodia-labs/contracta-cli/internal/core/services"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// version is the CLI version, overridable at build time via -ldflags.
var version = "0.1.0"

// verbose enables debug logging on stderr.
var verbose bool

// Wired services. Tests inject fakes here; production wiring happens
// in ensureServices.
var (
	configStore     *configfile.ConfigStore
	cfg             configfile.Config
	metadataStore   *sqlite.Store
	promptStore     *configfile.PromptStore
	documentService driving.DocumentService
	newSession      func() (driving.ContractSession, error)
)

var rootCmd = &cobra.Command{
	Use:   "contracta",
	Short: "Contract Q&A from your terminal",
	Long: `Contracta answers questions about your contracts, grounded on the
documents themselves: load a contract once, then ask questions, generate
summaries or extract key fields. Answers cite the pages they come from.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// ensureServices wires configuration, storage and the session factory.
// It is a no-op when services are already configured (tests).
func ensureServices() error {
	if documentService != nil && newSession != nil {
		return nil
	}

	store, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	configStore = store
	cfg = store.Config()

	metadataStore, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}

	promptStore, err = configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("creating prompt store: %w", err)
	}

	documentService = services.NewDocumentService(
		metadataStore.DocumentStore(),
		metadataStore.IndexStore(),
		metadataStore.CacheStore(),
	)

	newSession = func() (driving.ContractSession, error) {
		apiKey := cfg.APIKey()
		if apiKey == "" {
			return nil, fmt.Errorf("%w: no API key configured; run 'contracta settings set-key' or set OPENAI_API_KEY",
				domain.ErrInvalidConfiguration)
		}

		embedder, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  apiKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.EmbeddingModel,
		})
		if err != nil {
			return nil, err
		}

		llm, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  apiKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.LLMModel,
		})
		if err != nil {
			return nil, err
		}

		return services.NewSession(services.SessionConfig{
			OwnerID:          cfg.Owner,
			ChunkSize:        cfg.Chunking.Size,
			ChunkOverlap:     cfg.Chunking.Overlap,
			TopK:             cfg.Retrieval.TopK,
			MinScore:         cfg.Retrieval.MinScore,
			MemoryWindow:     cfg.Memory.Window,
			MaxAnswerTokens:  cfg.Answer.MaxTokens,
			Temperature:      cfg.Answer.Temperature,
			EmbedBatchSize:   cfg.Retrieval.EmbedBatchSize,
			EmbedConcurrency: cfg.Retrieval.EmbedConcurrency,
		}, embedder, llm, metadataStore.CacheStore(), metadataStore.IndexStore(), promptStore)
	}

	return nil
}

// closeServices releases the metadata store.
func closeServices() {
	if metadataStore != nil {
		if err := metadataStore.Close(); err != nil {
			logger.Warn("Closing metadata store: %v", err)
		}
		metadataStore = nil
	}
}

// resolveDocument returns the document named by docID, or the owner's
// most recent document when docID is empty.
func resolveDocument(ctx context.Context, docID string) (*domain.Document, error) {
	if docID != "" {
		doc, err := documentService.Get(ctx, docID)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", docID, err)
		}
		return doc, nil
	}

	doc, err := documentService.Latest(ctx, cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("no documents loaded yet; run 'contracta load <file>' first: %w", err)
	}
	return doc, nil
}

// loadedSession builds a session and binds the requested document.
func loadedSession(ctx context.Context, docID string) (driving.ContractSession, *domain.Document, error) {
	doc, err := resolveDocument(ctx, docID)
	if err != nil {
		return nil, nil, err
	}

	session, err := newSession()
	if err != nil {
		return nil, nil, err
	}

	logger.Section("Indexing " + doc.Title)
	if err := session.Load(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("indexing document: %w", err)
	}

	return session, doc, nil
}
