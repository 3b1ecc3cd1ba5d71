// Package chunker provides fixed-size overlapping text chunking.
package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 2000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits document text into fixed-size overlapping chunks.
// Chunk spans are byte offsets into Document.Text(), so the original
// text is recoverable: the first chunk plus every subsequent chunk's
// text past the previous chunk's end reconstructs the document exactly.
// Sizes and overlap are in bytes; boundaries snap back to rune starts,
// so chunks near multibyte text may run slightly short.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options. An overlap equal to or
// larger than the chunk size is rejected rather than silently adjusted,
// since it would make the split non-terminating.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfiguration, c.overlap, c.chunkSize)
	}

	return c, nil
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks the document text. Each chunk is tagged with the page its
// first character falls on and its ordinal position. Chunk boundaries
// are snapped back to UTF-8 rune starts so no chunk splits a multibyte
// sequence. Empty documents produce no chunks.
func (c *Chunker) Split(doc *domain.Document) []domain.Chunk {
	content := doc.Text()
	contentLen := len(content)
	if contentLen == 0 {
		return nil
	}

	// Page start offsets within the concatenated text, for attributing
	// each chunk to the page it begins on.
	pageStarts := make([]int, len(doc.Pages))
	offset := 0
	for i := range doc.Pages {
		pageStarts[i] = offset
		offset += len(doc.Pages[i].Text)
	}

	step := c.chunkSize - c.overlap
	chunks := make([]domain.Chunk, 0, contentLen/step+1)

	page := 0
	start := 0
	for seq := 0; start < contentLen; seq++ {
		end := start + c.chunkSize
		if end >= contentLen {
			end = contentLen
		} else {
			end = snapToRuneStart(content, end)
		}

		for page+1 < len(pageStarts) && pageStarts[page+1] <= start {
			page++
		}

		chunk := domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Seq:        seq,
			Start:      start,
			End:        end,
			Text:       content[start:end],
		}
		if len(doc.Pages) > 0 {
			chunk.Page = doc.Pages[page].Number
		}
		chunks = append(chunks, chunk)

		// The final chunk ends exactly at the content end. Stepping
		// past it would emit a trailing fragment that is pure overlap.
		if end == contentLen {
			break
		}

		next := snapToRuneStart(content, end-c.overlap)
		if next <= start {
			// Snapping collapsed the step entirely; advance by one rune
			// so the split always terminates.
			_, w := utf8.DecodeRuneInString(content[start:])
			next = start + w
		}
		start = next
	}

	return chunks
}

// snapToRuneStart moves i back to the start of the UTF-8 sequence it
// falls inside, leaving it unchanged when it is already a boundary.
func snapToRuneStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
