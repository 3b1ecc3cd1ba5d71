package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// extractMaxTokens bounds the extraction response. The fixed schema is
// small; this is generous.
const extractMaxTokens = 1500

// extractor pulls the fixed field schema out of a contract as strict
// JSON.
type extractor struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	retry   retryPolicy
}

func newExtractor(llm driven.LLMService, prompts driven.PromptStore, retry retryPolicy) *extractor {
	return &extractor{llm: llm, prompts: prompts, retry: retry}
}

// extract returns the field set for the document. Fields the provider
// omits or leaves empty come back as explicit "not found" markers.
func (e *extractor) extract(ctx context.Context, doc *domain.Document) (*domain.FieldSet, error) {
	text := doc.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrInvalidConfiguration)
	}

	prompt := fmt.Sprintf(loadPrompt(e.prompts, driven.PromptExtractFields, defaultExtractPrompt), text)

	var completion *driven.Completion
	err := e.retry.do(ctx, "extract fields", func(ctx context.Context) error {
		var genErr error
		completion, genErr = e.llm.Complete(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   extractMaxTokens,
			Temperature: 0,
			JSONMode:    true,
		})
		return genErr
	})
	if err != nil {
		if retryable(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return nil, err
	}

	raw := stripCodeFences(completion.Text)

	var fields domain.FieldSet
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		logger.Warn("Extraction response was not valid JSON: %v", err)
		return nil, fmt.Errorf("%w: parsing extraction response: %w", domain.ErrGenerationFailed, err)
	}

	fields.Normalize()
	return &fields, nil
}

// stripCodeFences removes a markdown code fence wrapper, which models
// sometimes emit despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
