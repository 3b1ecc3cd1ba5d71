package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/contracta-cli/internal/chunker"
	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driving"
	"github.com/custodia-labs/contracta-cli/internal/logger"
	"github.com/custodia-labs/contracta-cli/internal/vectorindex"
)

// Ensure Session implements the interface.
var _ driving.ContractSession = (*Session)(nil)

// DefaultEmbedBatchSize is the number of chunks embedded per provider call.
const DefaultEmbedBatchSize = 32

// DefaultEmbedConcurrency is how many embedding batches are in flight
// at once during indexing.
const DefaultEmbedConcurrency = 4

// extractionSchemaVersion tags extraction cache entries. Bump it when
// the field schema changes so old entries become misses.
const extractionSchemaVersion = "fields_v1"

// SessionConfig tunes a contract session. Zero values select defaults.
type SessionConfig struct {
	// OwnerID scopes all derived state (index, caches, memory).
	OwnerID string

	// ChunkSize and ChunkOverlap configure the chunker, in characters.
	ChunkSize    int
	ChunkOverlap int

	// TopK is the number of chunks retrieved per question.
	TopK int

	// MinScore is the retrieval relevance floor.
	MinScore float64

	// MemoryWindow is the number of conversation turns retained.
	MemoryWindow int

	// MaxAnswerTokens and Temperature configure generation.
	MaxAnswerTokens int
	Temperature     float64

	// EmbedBatchSize and EmbedConcurrency configure indexing throughput.
	EmbedBatchSize   int
	EmbedConcurrency int
}

// Session is a stateful contract engine bound to one document at a
// time. It owns the state machine UNLOADED -> INDEXING -> READY ->
// (ERROR | UNLOADED) and serialises all answering operations.
//
// A Load issued while another build is in flight supersedes it: the
// older build's result is discarded via a generation counter rather
// than corrupting the newer state.
type Session struct {
	ownerID string

	// mu guards the lifecycle fields below.
	mu         sync.Mutex
	state      domain.SessionState
	doc        *domain.Document
	index      *vectorindex.Index
	memory     *conversationMemory
	generation int

	// opMu serialises Ask/Summarize/Extract against each other.
	opMu sync.Mutex

	chunker    *chunker.Chunker
	embedder   driven.EmbeddingService
	retriever  *retriever
	answerer   *answerer
	summariser *summariser
	extractor  *extractor
	cache      *resultCache
	indexStore driven.IndexStore
	retry      retryPolicy

	memoryWindow     int
	embedBatchSize   int
	embedConcurrency int
}

// NewSession creates a session. The embedding and generation services
// are required; cacheStore, indexStore and prompts may be nil, in which
// case caching, index persistence and prompt overrides are disabled.
func NewSession(
	cfg SessionConfig,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	cacheStore driven.CacheStore,
	indexStore driven.IndexStore,
	prompts driven.PromptStore,
) (*Session, error) {
	if cfg.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner ID is required", domain.ErrInvalidConfiguration)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding service is required", domain.ErrInvalidConfiguration)
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: LLM service is required", domain.ErrInvalidConfiguration)
	}

	var chunkOpts []chunker.Option
	if cfg.ChunkSize > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(cfg.ChunkSize))
	}
	if cfg.ChunkOverlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(cfg.ChunkOverlap))
	}
	ck, err := chunker.New(chunkOpts...)
	if err != nil {
		return nil, err
	}

	retry := defaultRetryPolicy()

	batchSize := cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	concurrency := cfg.EmbedConcurrency
	if concurrency <= 0 {
		concurrency = DefaultEmbedConcurrency
	}
	window := cfg.MemoryWindow
	if window <= 0 {
		window = DefaultMemoryWindow
	}

	return &Session{
		ownerID:          cfg.OwnerID,
		state:            domain.StateUnloaded,
		memory:           newConversationMemory(window),
		chunker:          ck,
		embedder:         embedder,
		retriever:        newRetriever(embedder, retry, cfg.TopK, cfg.MinScore),
		answerer:         newAnswerer(llm, prompts, retry, cfg.MaxAnswerTokens, cfg.Temperature),
		summariser:       newSummariser(llm, prompts, retry, cfg.MaxAnswerTokens, cfg.Temperature),
		extractor:        newExtractor(llm, prompts, retry),
		cache:            newResultCache(cacheStore),
		indexStore:       indexStore,
		retry:            retry,
		memoryWindow:     window,
		embedBatchSize:   batchSize,
		embedConcurrency: concurrency,
	}, nil
}

// Load ingests a document: chunk, embed, index. It replaces any
// previously loaded document. If a newer Load or Unload happens while
// this build is in flight, the result is discarded.
func (s *Session) Load(ctx context.Context, doc *domain.Document) error {
	if doc == nil || len(doc.Pages) == 0 {
		return fmt.Errorf("%w: document has no pages", domain.ErrInvalidConfiguration)
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = domain.StateIndexing
	s.doc = nil
	s.index = nil
	s.mu.Unlock()

	logger.Section("Document Load")
	logger.Info("Loading document %s (%q): %d pages, %d chars",
		doc.ID, doc.Title, doc.PageCount(), doc.CharCount())

	idx, err := s.buildIndex(ctx, doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		logger.Info("Discarding superseded build for document %s", doc.ID)
		return nil
	}
	if err != nil {
		s.state = domain.StateError
		return err
	}

	s.doc = doc
	s.index = idx
	s.memory = newConversationMemory(s.memoryWindow)
	s.state = domain.StateReady
	logger.Info("Session ready: %d chunks indexed", idx.Len())
	return nil
}

func (s *Session) buildIndex(ctx context.Context, doc *domain.Document) (*vectorindex.Index, error) {
	chunks := s.chunker.Split(doc)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrInvalidConfiguration)
	}
	logger.Debug("Split into %d chunks (size %d, overlap %d)",
		len(chunks), s.chunker.ChunkSize(), s.chunker.Overlap())

	if idx := s.loadStoredIndex(ctx, doc, chunks); idx != nil {
		return idx, nil
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	idx := vectorindex.New()
	if err := idx.Build(doc.ID, chunks, vectors); err != nil {
		return nil, err
	}

	if s.indexStore != nil {
		data, err := idx.Encode()
		if err == nil {
			err = s.indexStore.SaveIndex(ctx, doc.ID, data)
		}
		if err != nil {
			logger.Warn("Persisting index for document %s failed: %v", doc.ID, err)
		} else {
			logger.Debug("Persisted index for document %s (%d bytes)", doc.ID, len(data))
		}
	}

	return idx, nil
}

// loadStoredIndex tries to reuse a persisted index, skipping the
// embedding calls entirely. The stored chunks must match the current
// split exactly; any mismatch means the content or chunking changed.
func (s *Session) loadStoredIndex(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) *vectorindex.Index {
	if s.indexStore == nil {
		return nil
	}

	data, err := s.indexStore.LoadIndex(ctx, doc.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Loading stored index for document %s failed: %v", doc.ID, err)
		}
		return nil
	}

	idx, err := vectorindex.Decode(data)
	if err != nil {
		logger.Warn("Stored index for document %s is corrupt, rebuilding: %v", doc.ID, err)
		return nil
	}
	if idx.DocumentID() != doc.ID || idx.Len() != len(chunks) {
		return nil
	}
	stored := idx.Chunks()
	for i := range stored {
		if stored[i].Text != chunks[i].Text {
			return nil
		}
	}

	logger.Info("Reusing persisted index for document %s", doc.ID)
	return idx
}

// embedChunks embeds all chunk texts, issuing batches concurrently and
// merging results back in chunk order.
func (s *Session) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vectors := make([][]float32, len(chunks))
	sem := make(chan struct{}, s.embedConcurrency)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		errMu.Unlock()
	}

	for start := 0; start < len(texts); start += s.embedBatchSize {
		end := start + s.embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			var batch [][]float32
			err := s.retry.do(ctx, "embed chunks", func(ctx context.Context) error {
				var embedErr error
				batch, embedErr = s.embedder.EmbedBatch(ctx, texts[start:end])
				return embedErr
			})
			if err != nil {
				fail(err)
				return
			}
			if len(batch) != end-start {
				fail(fmt.Errorf("embedding batch returned %d vectors for %d texts", len(batch), end-start))
				return
			}
			copy(vectors[start:end], batch)
		}(start, end)
	}
	wg.Wait()

	if firstErr != nil {
		if retryable(firstErr) {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, firstErr)
		}
		return nil, firstErr
	}
	return vectors, nil
}

// Ask answers a question about the loaded contract. Identical questions
// against an unchanged document are served from the cache without any
// provider call; a cached answer does not advance the conversation
// memory.
func (s *Session) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidConfiguration)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	doc, idx, memory, err := s.ready()
	if err != nil {
		return nil, err
	}

	logger.Section("Question")
	logger.Debug("Question: %q", question)

	payload, hit, err := s.cache.getOrCompute(ctx, s.ownerID, doc.ID, domain.NamespaceQA,
		question, doc.Fingerprint,
		func(ctx context.Context) ([]byte, error) {
			hits, err := s.retriever.retrieve(ctx, idx, question)
			if err != nil {
				return nil, err
			}
			answer, err := s.answerer.generate(ctx, question, hits, memory.Snapshot())
			if err != nil {
				return nil, err
			}
			return json.Marshal(answer)
		})
	if err != nil {
		return nil, err
	}

	var answer domain.Answer
	if err := json.Unmarshal(payload, &answer); err != nil {
		return nil, fmt.Errorf("decoding cached answer: %w", err)
	}
	answer.FromCache = hit

	if !hit {
		memory.Append(domain.ConversationTurn{
			ID:        uuid.New().String(),
			Question:  question,
			Answer:    answer.Text,
			Citations: answer.Citations,
			AskedAt:   time.Now().UTC(),
		})
	}

	return &answer, nil
}

// Summarize generates a summary of the loaded contract.
func (s *Session) Summarize(ctx context.Context, kind domain.SummaryKind) (*domain.Answer, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown summary kind %q", domain.ErrInvalidConfiguration, kind)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	doc, _, _, err := s.ready()
	if err != nil {
		return nil, err
	}

	logger.Section("Summary")
	logger.Debug("Kind: %s", kind)

	payload, hit, err := s.cache.getOrCompute(ctx, s.ownerID, doc.ID, domain.NamespaceSummary,
		string(kind), doc.Fingerprint,
		func(ctx context.Context) ([]byte, error) {
			answer, err := s.summariser.summarise(ctx, doc, kind)
			if err != nil {
				return nil, err
			}
			return json.Marshal(answer)
		})
	if err != nil {
		return nil, err
	}

	var answer domain.Answer
	if err := json.Unmarshal(payload, &answer); err != nil {
		return nil, fmt.Errorf("decoding cached summary: %w", err)
	}
	answer.FromCache = hit
	return &answer, nil
}

// Extract pulls the fixed field schema from the loaded contract.
func (s *Session) Extract(ctx context.Context) (*domain.FieldSet, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	doc, _, _, err := s.ready()
	if err != nil {
		return nil, err
	}

	logger.Section("Field Extraction")

	payload, _, err := s.cache.getOrCompute(ctx, s.ownerID, doc.ID, domain.NamespaceExtraction,
		extractionSchemaVersion, doc.Fingerprint,
		func(ctx context.Context) ([]byte, error) {
			fields, err := s.extractor.extract(ctx, doc)
			if err != nil {
				return nil, err
			}
			return json.Marshal(fields)
		})
	if err != nil {
		return nil, err
	}

	var fields domain.FieldSet
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("decoding cached extraction: %w", err)
	}
	fields.Normalize()
	return &fields, nil
}

// History returns the retained conversation turns, oldest first.
func (s *Session) History() []domain.ConversationTurn {
	s.mu.Lock()
	memory := s.memory
	s.mu.Unlock()
	return memory.Snapshot()
}

// ClearMemory drops the conversation history without unloading the
// document.
func (s *Session) ClearMemory() {
	s.mu.Lock()
	memory := s.memory
	s.mu.Unlock()
	memory.Clear()
}

// Unload releases the loaded document and conversation memory. Cached
// results and persisted indexes survive for the next load.
func (s *Session) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.doc = nil
	s.index = nil
	s.memory = newConversationMemory(s.memoryWindow)
	s.state = domain.StateUnloaded
}

// State reports the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Document returns the loaded document, or nil when none is loaded.
func (s *Session) Document() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

func (s *Session) ready() (*domain.Document, *vectorindex.Index, *conversationMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateReady {
		return nil, nil, nil, fmt.Errorf("%w: session state is %s", domain.ErrNotReady, s.state)
	}
	return s.doc, s.index, s.memory, nil
}
