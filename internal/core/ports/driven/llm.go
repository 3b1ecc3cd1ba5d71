// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// LLMService provides text generation for answering, summarisation and
// extraction.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Local models via inference servers
type LLMService interface {
	// Complete produces a text completion from a prompt.
	Complete(ctx context.Context, prompt string, opts GenerateOptions) (*Completion, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// JSONMode requests a response that is strictly valid JSON.
	// Used by field extraction.
	JSONMode bool
}

// Completion is the result of a single generation call.
type Completion struct {
	// Text is the generated completion.
	Text string

	// Usage is the provider-reported token consumption.
	Usage domain.TokenUsage
}
