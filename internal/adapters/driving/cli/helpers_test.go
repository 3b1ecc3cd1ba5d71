package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	configfile "github.com/custodia-labs/contracta-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/contracta-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driving"
	"github.com/custodia-labs/contracta-cli/internal/core/services"
)

// fakeEmbedder embeds by keyword presence so retrieval is deterministic
// in tests.
type fakeEmbedder struct{}

var embedKeywords = []string{"rent", "deposit", "termination"}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(embedKeywords))
	lower := strings.ToLower(text)
	for i, kw := range embedKeywords {
		if strings.Contains(lower, kw) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return len(embedKeywords) }
func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

// fakeLLM returns a scripted completion.
type fakeLLM struct {
	completeFn func(prompt string, opts driven.GenerateOptions) (*driven.Completion, error)
}

func (f *fakeLLM) Complete(_ context.Context, prompt string, opts driven.GenerateOptions) (*driven.Completion, error) {
	if f.completeFn != nil {
		return f.completeFn(prompt, opts)
	}
	return &driven.Completion{Text: "The monthly rent is SGD $3,500."}, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

// setupTestServices wires the CLI against in-memory stores and fake
// providers. It returns the LLM fake for per-test scripting.
func setupTestServices(t *testing.T) *fakeLLM {
	t.Helper()

	docStore := memory.NewDocumentStore()
	cacheStore := memory.NewCacheStore()
	indexStore := memory.NewIndexStore()
	llm := &fakeLLM{}

	cfg = configfile.DefaultConfig()
	cfg.Owner = "test-user"
	cfg.DataDir = t.TempDir()
	cfg.Chunking.Size = 200
	cfg.Chunking.Overlap = 20

	documentService = services.NewDocumentService(docStore, indexStore, cacheStore)
	newSession = func() (driving.ContractSession, error) {
		return services.NewSession(services.SessionConfig{
			OwnerID:      cfg.Owner,
			ChunkSize:    cfg.Chunking.Size,
			ChunkOverlap: cfg.Chunking.Overlap,
		}, &fakeEmbedder{}, llm, cacheStore, indexStore, nil)
	}

	// Flag variables persist between executions; reset to defaults.
	loadTitle = ""
	askDoc, askJSON = "", false
	summarizeType, summarizeDoc = "brief", ""
	extractDoc, extractJSON = "", false
	chatDoc = ""

	t.Cleanup(func() {
		documentService = nil
		newSession = nil
		configStore = nil
		cfg = configfile.Config{}
	})

	return llm
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(strings.Builder)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// ingestTenancyDoc stores the standard test contract and returns it.
func ingestTenancyDoc(t *testing.T) *domain.Document {
	t.Helper()

	doc, err := documentService.Ingest(context.Background(), cfg.Owner, "tenancy.txt", []domain.Page{
		{Number: 1, Text: "This tenancy agreement is made between the landlord and the tenant for the property at 12 Orchard Road. The parties agree to the terms set out below. "},
		{Number: 2, Text: "Monthly Rent: SGD $3,500 payable on the first day of each month. A security deposit of SGD $7,000 is payable on signing. "},
		{Number: 3, Text: "Either party may terminate this agreement with two months written notice after the first year. "},
	})
	require.NoError(t, err)
	return doc
}
