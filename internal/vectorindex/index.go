// Package vectorindex provides an in-memory brute-force vector index
// with cosine similarity search and a persistable snapshot form.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// Hit is a single search result: a chunk and its similarity score.
type Hit struct {
	Chunk domain.Chunk
	Score float64
}

// Index holds the chunks and embedding vectors for one document and
// answers nearest-neighbour queries by exhaustive cosine similarity.
// Contracts are small enough that brute force beats any ANN structure.
//
// Build replaces the whole content atomically: readers either see the
// previous complete index or the new one, never a partial build.
type Index struct {
	mu      sync.RWMutex
	docID   string
	dims    int
	chunks  []domain.Chunk
	vectors [][]float32
	norms   []float64
}

// New creates an empty, unbuilt index.
func New() *Index {
	return &Index{}
}

// Build populates the index for a document. All vectors must share one
// dimensionality and pair up with chunks one-to-one. The swap is atomic;
// on error the previous content is left untouched.
func (x *Index) Build(documentID string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: cannot build index with no chunks", domain.ErrInvalidConfiguration)
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors",
			domain.ErrInvalidConfiguration, len(chunks), len(vectors))
	}

	dims := len(vectors[0])
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d",
				domain.ErrInvalidConfiguration, i, len(v), dims)
		}
		norms[i] = norm(v)
	}

	ownedChunks := make([]domain.Chunk, len(chunks))
	copy(ownedChunks, chunks)
	ownedVectors := make([][]float32, len(vectors))
	for i, v := range vectors {
		ownedVectors[i] = append([]float32(nil), v...)
	}

	x.mu.Lock()
	x.docID = documentID
	x.dims = dims
	x.chunks = ownedChunks
	x.vectors = ownedVectors
	x.norms = norms
	x.mu.Unlock()

	return nil
}

// Search returns the k most similar chunks to the query vector, ordered
// by descending cosine similarity. Equal scores are broken by document
// order (lower Seq first). k is clamped to the index size.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidConfiguration, k)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.chunks) == 0 {
		return nil, domain.ErrIndexNotFound
	}
	if len(query) != x.dims {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d",
			domain.ErrInvalidConfiguration, len(query), x.dims)
	}

	queryNorm := norm(query)

	hits := make([]Hit, len(x.chunks))
	for i := range x.chunks {
		hits[i] = Hit{
			Chunk: x.chunks[i],
			Score: cosine(query, queryNorm, x.vectors[i], x.norms[i]),
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Seq < hits[j].Chunk.Seq
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// DocumentID returns the document the index was built for, or "" when
// the index is empty.
func (x *Index) DocumentID() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.docID
}

// Chunks returns a copy of the indexed chunks in document order.
func (x *Index) Chunks() []domain.Chunk {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]domain.Chunk, len(x.chunks))
	copy(out, x.chunks)
	return out
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks)
}

// Dims returns the vector dimensionality, or 0 when the index is empty.
func (x *Index) Dims() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dims
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
