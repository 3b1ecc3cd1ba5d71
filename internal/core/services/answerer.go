package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/logger"
	"github.com/custodia-labs/contracta-cli/internal/vectorindex"
)

// InsufficientContextAnswer is returned when retrieval finds nothing
// relevant. The provider is not called at all in that case.
const InsufficientContextAnswer = "I couldn't find relevant information in the contract to answer your question."

// DefaultMaxAnswerTokens bounds generated answer length.
const DefaultMaxAnswerTokens = 1000

// DefaultTemperature keeps answers close to the source text.
const DefaultTemperature = 0.1

// answerer assembles the grounded prompt and calls the generation
// provider once per question.
type answerer struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	retry       retryPolicy
	maxTokens   int
	temperature float64
}

func newAnswerer(llm driven.LLMService, prompts driven.PromptStore, retry retryPolicy, maxTokens int, temperature float64) *answerer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxAnswerTokens
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &answerer{
		llm:         llm,
		prompts:     prompts,
		retry:       retry,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// generate answers the question from the retrieved chunks and recent
// conversation turns. With no chunks it returns the insufficient
// context answer without a provider call.
func (a *answerer) generate(ctx context.Context, question string, hits []vectorindex.Hit, history []domain.ConversationTurn) (*domain.Answer, error) {
	if len(hits) == 0 {
		logger.Info("No relevant chunks retrieved, returning insufficient context answer")
		return &domain.Answer{Text: InsufficientContextAnswer}, nil
	}

	prompt := a.buildPrompt(question, hits, history)
	logger.Debug("Answer prompt: %d chars, %d chunks, %d history turns",
		len(prompt), len(hits), len(history))

	var completion *driven.Completion
	err := a.retry.do(ctx, "generate answer", func(ctx context.Context) error {
		var genErr error
		completion, genErr = a.llm.Complete(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   a.maxTokens,
			Temperature: a.temperature,
		})
		return genErr
	})
	if err != nil {
		if retryable(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return nil, err
	}

	citations := make([]domain.Citation, 0, len(hits))
	for _, h := range hits {
		citations = append(citations, domain.NewCitation(h.Chunk))
	}

	return &domain.Answer{
		Text:      strings.TrimSpace(completion.Text),
		Citations: citations,
		Usage:     completion.Usage,
	}, nil
}

func (a *answerer) buildPrompt(question string, hits []vectorindex.Hit, history []domain.ConversationTurn) string {
	var b strings.Builder

	b.WriteString(loadPrompt(a.prompts, driven.PromptQASystem, defaultQASystemPrompt))
	b.WriteString("\n\nContract excerpts:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "\n[Page %d] %s\n", h.Chunk.Page, h.Chunk.Text)
	}

	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", turn.Question, turn.Answer)
		}
	}

	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", question)
	return b.String()
}
