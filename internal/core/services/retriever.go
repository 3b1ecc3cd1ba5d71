package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/logger"
	"github.com/custodia-labs/contracta-cli/internal/vectorindex"
)

// DefaultTopK is the default number of passages retrieved per question.
const DefaultTopK = 4

// DefaultMinScore is the default relevance floor. Hits scoring below it
// are dropped, so a question unrelated to the contract retrieves
// nothing rather than the least-irrelevant chunks.
const DefaultMinScore = 0.25

// retriever embeds a query and searches the session's vector index.
// It does no caching; that is the cache layer's concern.
type retriever struct {
	embedder driven.EmbeddingService
	retry    retryPolicy
	topK     int
	minScore float64
}

func newRetriever(embedder driven.EmbeddingService, retry retryPolicy, topK int, minScore float64) *retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &retriever{
		embedder: embedder,
		retry:    retry,
		topK:     topK,
		minScore: minScore,
	}
}

// retrieve returns the most relevant chunks for the query, ordered by
// descending similarity. Index errors propagate unchanged; exhausted
// embedding retries surface as ErrEmbeddingFailed.
func (r *retriever) retrieve(ctx context.Context, idx *vectorindex.Index, query string) ([]vectorindex.Hit, error) {
	var vec []float32
	err := r.retry.do(ctx, "embed query", func(ctx context.Context) error {
		var embedErr error
		vec, embedErr = r.embedder.Embed(ctx, query)
		return embedErr
	})
	if err != nil {
		if retryable(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
		}
		return nil, err
	}

	hits, err := idx.Search(vec, r.topK)
	if err != nil {
		return nil, err
	}

	kept := make([]vectorindex.Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score >= r.minScore {
			kept = append(kept, h)
		}
	}
	logger.Debug("Retrieved %d/%d chunks above relevance floor %.2f", len(kept), len(hits), r.minScore)

	return kept, nil
}
