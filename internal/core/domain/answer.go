package domain

// ExcerptLimit is the maximum length of a citation excerpt in bytes.
const ExcerptLimit = 500

// TokenUsage reports provider token consumption for an operation.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another call into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Citation points from a generated answer back to the source passage
// that justified it.
type Citation struct {
	// ChunkID is the cited chunk.
	ChunkID string `json:"chunk_id"`

	// Page is the page number the chunk starts on.
	Page int `json:"page"`

	// Excerpt is the chunk text truncated to ExcerptLimit.
	Excerpt string `json:"excerpt"`
}

// Answer is the result of a question-answering operation.
type Answer struct {
	// Text is the generated answer.
	Text string `json:"text"`

	// Citations are the passages the answer was grounded on, in
	// retrieval order. Empty for insufficient-context answers.
	Citations []Citation `json:"citations,omitempty"`

	// Usage is the provider token usage. Zero for cached and
	// insufficient-context answers.
	Usage TokenUsage `json:"usage"`

	// FromCache reports whether the answer was served from the cache
	// without a provider call.
	FromCache bool `json:"-"`
}

// NewCitation builds a citation for a chunk, truncating the excerpt.
func NewCitation(chunk Chunk) Citation {
	excerpt := chunk.Text
	if len(excerpt) > ExcerptLimit {
		excerpt = excerpt[:ExcerptLimit] + "..."
	}
	return Citation{
		ChunkID: chunk.ID,
		Page:    chunk.Page,
		Excerpt: excerpt,
	}
}
