package services

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/contracta-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// fakeEmbedder implements driven.EmbeddingService with a deterministic
// keyword-feature embedding, so similarity behaves predictably.
type fakeEmbedder struct {
	mu         sync.Mutex
	batchCalls int
	embedCalls int
	embedErr   error

	// gate, when set, blocks EmbedBatch until the channel is closed.
	gate chan struct{}
}

// keywordEmbed maps text to a 3-dimensional feature vector. Texts that
// share no keywords are orthogonal; texts with no keywords embed to the
// zero vector and score 0 against everything.
func keywordEmbed(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, 3)
	if strings.Contains(lower, "rent") {
		v[0] = 1
	}
	if strings.Contains(lower, "deposit") {
		v[1] = 1
	}
	if strings.Contains(lower, "pet") {
		v[2] = 1
	}
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	err := f.embedErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return keywordEmbed(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	err := f.embedErr
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordEmbed(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 3 }
func (f *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

func (f *fakeEmbedder) batches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batchCalls
}

// fakeLLM implements driven.LLMService with a scriptable completion.
type fakeLLM struct {
	mu         sync.Mutex
	calls      int
	completeFn func(prompt string, opts driven.GenerateOptions) (*driven.Completion, error)
}

func (f *fakeLLM) Complete(_ context.Context, prompt string, opts driven.GenerateOptions) (*driven.Completion, error) {
	f.mu.Lock()
	f.calls++
	fn := f.completeFn
	f.mu.Unlock()
	if fn != nil {
		return fn(prompt, opts)
	}
	return &driven.Completion{
		Text:  "generated answer",
		Usage: domain.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (f *fakeLLM) ModelName() string            { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// --- Fixtures ---

// tenancyDoc is a small sample tenancy agreement spread over three
// pages, with the rent on page 2.
func tenancyDoc() *domain.Document {
	pages := []domain.Page{
		{Number: 1, Text: "This tenancy agreement is made between the landlord and the tenant for the property at 12 Marina View."},
		{Number: 2, Text: "Monthly Rent: SGD $3,500 payable on the first day of each month."},
		{Number: 3, Text: "Security Deposit: SGD $7,000 refundable at the end of the term. No pets are allowed on the premises."},
	}
	return &domain.Document{
		ID:          "doc-tenancy",
		OwnerID:     "user-1",
		Title:       "tenancy.txt",
		Pages:       pages,
		Fingerprint: domain.Fingerprint(pages),
	}
}

type testEnv struct {
	session    *Session
	embedder   *fakeEmbedder
	llm        *fakeLLM
	cacheStore *memory.CacheStore
	indexStore *memory.IndexStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	embedder := &fakeEmbedder{}
	llm := &fakeLLM{}
	cacheStore := memory.NewCacheStore()
	indexStore := memory.NewIndexStore()

	session, err := NewSession(SessionConfig{
		OwnerID:      "user-1",
		ChunkSize:    200,
		ChunkOverlap: 20,
		MemoryWindow: 3,
	}, embedder, llm, cacheStore, indexStore, nil)
	require.NoError(t, err)

	return &testEnv{
		session:    session,
		embedder:   embedder,
		llm:        llm,
		cacheStore: cacheStore,
		indexStore: indexStore,
	}
}

// --- Tests ---

func TestNewSession_Validation(t *testing.T) {
	embedder := &fakeEmbedder{}
	llm := &fakeLLM{}

	_, err := NewSession(SessionConfig{}, embedder, llm, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewSession(SessionConfig{OwnerID: "u"}, nil, llm, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewSession(SessionConfig{OwnerID: "u"}, embedder, nil, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)

	_, err = NewSession(SessionConfig{OwnerID: "u", ChunkSize: 100, ChunkOverlap: 100},
		embedder, llm, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSession_StateMachine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.Equal(t, domain.StateUnloaded, env.session.State())

	_, err := env.session.Ask(ctx, "What is the rent?")
	assert.ErrorIs(t, err, domain.ErrNotReady)
	_, err = env.session.Summarize(ctx, domain.SummaryBrief)
	assert.ErrorIs(t, err, domain.ErrNotReady)
	_, err = env.session.Extract(ctx)
	assert.ErrorIs(t, err, domain.ErrNotReady)

	require.NoError(t, env.session.Load(ctx, tenancyDoc()))
	assert.Equal(t, domain.StateReady, env.session.State())
	assert.NotNil(t, env.session.Document())

	env.session.Unload()
	assert.Equal(t, domain.StateUnloaded, env.session.State())
	assert.Nil(t, env.session.Document())

	_, err = env.session.Ask(ctx, "What is the rent?")
	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestSession_Load_EmptyDocument(t *testing.T) {
	env := newTestEnv(t)

	err := env.session.Load(context.Background(), &domain.Document{ID: "empty"})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSession_Load_EmbeddingFailureEntersErrorState(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.embedErr = domain.ErrQuotaExceeded

	err := env.session.Load(context.Background(), tenancyDoc())
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Equal(t, domain.StateError, env.session.State())

	_, err = env.session.Ask(context.Background(), "What is the rent?")
	assert.ErrorIs(t, err, domain.ErrNotReady)

	// A fresh load recovers from the error state.
	env.embedder.embedErr = nil
	require.NoError(t, env.session.Load(context.Background(), tenancyDoc()))
	assert.Equal(t, domain.StateReady, env.session.State())
}

// TestSession_Ask_RentScenario loads the sample tenancy document and
// asks for the monthly rent: the answer must be grounded on the chunk
// containing the SGD $3,500 clause and cite it.
func TestSession_Ask_RentScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.llm.completeFn = func(prompt string, _ driven.GenerateOptions) (*driven.Completion, error) {
		// The assembled prompt must contain the rent clause.
		assert.Contains(t, prompt, "Monthly Rent: SGD $3,500")
		assert.Contains(t, prompt, "What is the monthly rent?")
		return &driven.Completion{
			Text:  "The monthly rent is SGD $3,500, payable on the first day of each month.",
			Usage: domain.TokenUsage{PromptTokens: 120, CompletionTokens: 20, TotalTokens: 140},
		}, nil
	}

	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	answer, err := env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "$3,500")
	assert.False(t, answer.FromCache)
	assert.Equal(t, 140, answer.Usage.TotalTokens)
	require.NotEmpty(t, answer.Citations)
	assert.Contains(t, answer.Citations[0].Excerpt, "$3,500")
	assert.NotEmpty(t, answer.Citations[0].ChunkID)
}

// TestSession_Ask_InsufficientContext verifies an unrelated question
// yields the structured insufficient context answer without calling the
// generation provider.
func TestSession_Ask_InsufficientContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	answer, err := env.session.Ask(ctx, "What is the weather today?")
	require.NoError(t, err)

	assert.Equal(t, InsufficientContextAnswer, answer.Text)
	assert.Empty(t, answer.Citations)
	assert.Zero(t, answer.Usage.TotalTokens)
	assert.Zero(t, env.llm.callCount())
}

// TestSession_Ask_CacheIdempotence verifies an identical question
// against an unchanged document is served from the cache with zero
// provider calls and identical content.
func TestSession_Ask_CacheIdempotence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	first, err := env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	require.False(t, first.FromCache)
	require.Equal(t, 1, env.llm.callCount())

	second, err := env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, 1, env.llm.callCount())
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Citations, second.Citations)
}

// TestSession_Ask_CacheInvalidation verifies replacing the active
// document never serves a stale answer for the same question text.
func TestSession_Ask_CacheInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.llm.completeFn = func(prompt string, _ driven.GenerateOptions) (*driven.Completion, error) {
		if strings.Contains(prompt, "$4,200") {
			return &driven.Completion{Text: "The monthly rent is SGD $4,200."}, nil
		}
		return &driven.Completion{Text: "The monthly rent is SGD $3,500."}, nil
	}

	require.NoError(t, env.session.Load(ctx, tenancyDoc()))
	first, err := env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	assert.Contains(t, first.Text, "$3,500")

	// A replacement contract with a different rent.
	pages := []domain.Page{
		{Number: 1, Text: "Monthly Rent: SGD $4,200 payable in advance on the first of the month."},
	}
	replacement := &domain.Document{
		ID:          "doc-replacement",
		OwnerID:     "user-1",
		Title:       "tenancy-v2.txt",
		Pages:       pages,
		Fingerprint: domain.Fingerprint(pages),
	}
	require.NoError(t, env.session.Load(ctx, replacement))

	second, err := env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.Contains(t, second.Text, "$4,200")
}

func TestSession_Ask_EmptyQuestion(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.session.Load(context.Background(), tenancyDoc()))

	_, err := env.session.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSession_Ask_FailureLeavesMemoryUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	env.llm.completeFn = func(string, driven.GenerateOptions) (*driven.Completion, error) {
		return nil, domain.ErrQuotaExceeded
	}

	_, err := env.session.Ask(ctx, "What is the monthly rent?")
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Empty(t, env.session.History())
}

func TestSession_MemoryWindowBound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	for i := 0; i < 6; i++ {
		_, err := env.session.Ask(ctx, fmt.Sprintf("Question %d about the rent?", i))
		require.NoError(t, err)
	}

	history := env.session.History()
	require.Len(t, history, 3)
	assert.Equal(t, "Question 3 about the rent?", history[0].Question)
	assert.Equal(t, "Question 5 about the rent?", history[2].Question)
}

func TestSession_CachedAskDoesNotAdvanceMemory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	_, err := env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	require.Len(t, env.session.History(), 1)

	_, err = env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	assert.Len(t, env.session.History(), 1)
}

func TestSession_ClearMemory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	_, err := env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	require.NotEmpty(t, env.session.History())

	env.session.ClearMemory()
	assert.Empty(t, env.session.History())
	assert.Equal(t, domain.StateReady, env.session.State())
}

func TestSession_LoadResetsMemory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	_, err := env.session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	require.NotEmpty(t, env.session.History())

	require.NoError(t, env.session.Load(ctx, tenancyDoc()))
	assert.Empty(t, env.session.History())
}

// TestSession_Load_ReusesPersistedIndex verifies a second session can
// load the same document without any embedding calls.
func TestSession_Load_ReusesPersistedIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.session.Load(ctx, tenancyDoc()))
	require.Greater(t, env.embedder.batches(), 0)

	freshEmbedder := &fakeEmbedder{}
	session2, err := NewSession(SessionConfig{
		OwnerID:      "user-1",
		ChunkSize:    200,
		ChunkOverlap: 20,
	}, freshEmbedder, env.llm, env.cacheStore, env.indexStore, nil)
	require.NoError(t, err)

	require.NoError(t, session2.Load(ctx, tenancyDoc()))
	assert.Zero(t, freshEmbedder.batches())

	// Retrieval still works against the restored index.
	answer, err := session2.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Citations)
}

// TestSession_Load_SupersededBuildDiscarded verifies an Unload issued
// while a build is in flight wins: the stale build result is dropped.
func TestSession_Load_SupersededBuildDiscarded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	gate := make(chan struct{})
	env.embedder.gate = gate

	done := make(chan error, 1)
	go func() {
		done <- env.session.Load(ctx, tenancyDoc())
	}()

	// The build is blocked in EmbedBatch; supersede it.
	for env.embedder.batches() == 0 {
		runtime.Gosched()
	}
	assert.Equal(t, domain.StateIndexing, env.session.State())
	env.session.Unload()

	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, domain.StateUnloaded, env.session.State())
	assert.Nil(t, env.session.Document())
}

func TestSession_Summarize_InvalidKind(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.session.Load(context.Background(), tenancyDoc()))

	_, err := env.session.Summarize(context.Background(), domain.SummaryKind("detailed"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestSession_Summarize_SinglePassAndCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	summary, err := env.session.Summarize(ctx, domain.SummaryBrief)
	require.NoError(t, err)
	assert.False(t, summary.FromCache)
	assert.Equal(t, "generated answer", summary.Text)
	assert.Equal(t, 1, env.llm.callCount())

	cached, err := env.session.Summarize(ctx, domain.SummaryBrief)
	require.NoError(t, err)
	assert.True(t, cached.FromCache)
	assert.Equal(t, 1, env.llm.callCount())

	// A different kind is a different cache entry.
	_, err = env.session.Summarize(ctx, domain.SummaryKeyPoints)
	require.NoError(t, err)
	assert.Equal(t, 2, env.llm.callCount())
}

// TestSession_Summarize_MapReduce verifies long documents are
// summarised per section and then merged, accumulating token usage.
func TestSession_Summarize_MapReduce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.llm.completeFn = func(string, driven.GenerateOptions) (*driven.Completion, error) {
		return &driven.Completion{
			Text:  "partial summary",
			Usage: domain.TokenUsage{TotalTokens: 10},
		}, nil
	}

	longText := strings.Repeat("The tenant shall pay rent punctually. ", 800) // ~30k chars
	pages := []domain.Page{{Number: 1, Text: longText}}
	doc := &domain.Document{
		ID:          "doc-long",
		OwnerID:     "user-1",
		Pages:       pages,
		Fingerprint: domain.Fingerprint(pages),
	}
	require.NoError(t, env.session.Load(ctx, doc))
	env.llm.mu.Lock()
	env.llm.calls = 0
	env.llm.mu.Unlock()

	summary, err := env.session.Summarize(ctx, domain.SummaryComprehensive)
	require.NoError(t, err)

	sections := (len(longText) + sectionSize - 1) / sectionSize
	assert.Equal(t, sections+1, env.llm.callCount())
	assert.Equal(t, (sections+1)*10, summary.Usage.TotalTokens)
}

func TestSession_Extract(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	env.llm.completeFn = func(prompt string, opts driven.GenerateOptions) (*driven.Completion, error) {
		assert.True(t, opts.JSONMode)
		assert.Contains(t, prompt, "Monthly Rent: SGD $3,500")
		// Models sometimes wrap JSON in a code fence despite
		// instructions; the extractor must cope.
		return &driven.Completion{Text: "```json\n" + `{
			"rent_amount": {"value": "SGD $3,500 per month", "page": 2, "found": true},
			"security_deposit": {"value": "SGD $7,000", "page": 3, "found": true},
			"pet_policy": {"value": "No pets allowed", "page": 3, "found": true}
		}` + "\n```"}, nil
	}

	fields, err := env.session.Extract(ctx)
	require.NoError(t, err)

	assert.Equal(t, "SGD $3,500 per month", fields.RentAmount.Value)
	assert.True(t, fields.RentAmount.Found)
	assert.Equal(t, "SGD $7,000", fields.SecurityDeposit.Value)

	// Fields the contract lacks come back as explicit markers.
	assert.Equal(t, domain.FieldNotFound, fields.LateFee.Value)
	assert.False(t, fields.LateFee.Found)
	assert.Equal(t, domain.FieldNotFound, fields.Parking.Value)

	// Second extraction is served from the cache.
	calls := env.llm.callCount()
	again, err := env.session.Extract(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, env.llm.callCount())
	assert.Equal(t, fields, again)
}

func TestSession_Extract_MalformedResponse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	env.llm.completeFn = func(string, driven.GenerateOptions) (*driven.Completion, error) {
		return &driven.Completion{Text: "I cannot produce JSON today."}, nil
	}

	_, err := env.session.Extract(ctx)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

// TestSession_CacheStoreFailureDegrades verifies a broken cache store
// never fails an operation; the result is recomputed instead.
func TestSession_CacheStoreFailureDegrades(t *testing.T) {
	embedder := &fakeEmbedder{}
	llm := &fakeLLM{}

	session, err := NewSession(SessionConfig{
		OwnerID:      "user-1",
		ChunkSize:    200,
		ChunkOverlap: 20,
	}, embedder, llm, failingCacheStore{}, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, session.Load(ctx, tenancyDoc()))

	answer, err := session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Text)

	// No caching available: the same question is recomputed.
	_, err = session.Ask(ctx, "What is the monthly rent?")
	require.NoError(t, err)
	assert.Equal(t, 2, llm.callCount())
}

// TestSession_ConcurrentAskAndLoad exercises Ask racing with Load on
// one session, as happens when MCP tool calls arrive on separate
// goroutines. Run with -race; asks that land mid-load fail with
// ErrNotReady, nothing else.
func TestSession_ConcurrentAskAndLoad(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.session.Load(ctx, tenancyDoc()))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			if _, err := env.session.Ask(ctx, fmt.Sprintf("Question %d about the rent?", i)); err != nil {
				assert.ErrorIs(t, err, domain.ErrNotReady)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			assert.NoError(t, env.session.Load(ctx, tenancyDoc()))
		}
	}()
	wg.Wait()

	assert.Equal(t, domain.StateReady, env.session.State())
}

// failingCacheStore implements driven.CacheStore and fails everything.
type failingCacheStore struct{}

func (failingCacheStore) Get(context.Context, string) (*domain.CacheEntry, error) {
	return nil, domain.ErrCacheUnavailable
}

func (failingCacheStore) Put(context.Context, *domain.CacheEntry) error {
	return domain.ErrCacheUnavailable
}

func (failingCacheStore) DeleteDocument(context.Context, string) error {
	return domain.ErrCacheUnavailable
}
