package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// MapReduceThreshold is the document length in characters above which
// summarisation switches from a single pass to map-reduce: each section
// is summarised separately, then the partial summaries are merged.
const MapReduceThreshold = 12000

// sectionSize is the map-stage section length in characters.
const sectionSize = 8000

// summariser generates document summaries, map-reducing long documents.
type summariser struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	retry       retryPolicy
	maxTokens   int
	temperature float64
}

func newSummariser(llm driven.LLMService, prompts driven.PromptStore, retry retryPolicy, maxTokens int, temperature float64) *summariser {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxAnswerTokens
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &summariser{
		llm:         llm,
		prompts:     prompts,
		retry:       retry,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// summarise produces a summary of the given kind. Token usage across
// all map and reduce calls is accumulated into the answer.
func (s *summariser) summarise(ctx context.Context, doc *domain.Document, kind domain.SummaryKind) (*domain.Answer, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown summary kind %q", domain.ErrInvalidConfiguration, kind)
	}

	text := doc.Text()
	if text == "" {
		return nil, fmt.Errorf("%w: document has no text", domain.ErrInvalidConfiguration)
	}

	if len(text) <= MapReduceThreshold {
		logger.Debug("Single-pass summary: %d chars", len(text))
		return s.completeSummary(ctx, s.kindPrompt(kind)+"\n\n"+text)
	}

	logger.Info("Document is %d chars, using map-reduce summarisation", len(text))

	sections := splitSections(text, sectionSize)
	var usage domain.TokenUsage
	partials := make([]string, len(sections))
	for i, section := range sections {
		logger.Debug("Summarising section %d/%d (%d chars)", i+1, len(sections), len(section))
		partial, err := s.completeSummary(ctx, s.kindPrompt(kind)+"\n\n"+section)
		if err != nil {
			return nil, err
		}
		usage.Add(partial.Usage)
		partials[i] = partial.Text
	}

	reducePrompt := fmt.Sprintf(
		loadPrompt(s.prompts, driven.PromptSummaryReduce, defaultSummaryReducePrompt),
		strings.Join(partials, "\n\n---\n\n"))

	reduced, err := s.completeSummary(ctx, reducePrompt)
	if err != nil {
		return nil, err
	}
	usage.Add(reduced.Usage)
	reduced.Usage = usage
	return reduced, nil
}

func (s *summariser) completeSummary(ctx context.Context, prompt string) (*domain.Answer, error) {
	var completion *driven.Completion
	err := s.retry.do(ctx, "generate summary", func(ctx context.Context) error {
		var genErr error
		completion, genErr = s.llm.Complete(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   s.maxTokens,
			Temperature: s.temperature,
		})
		return genErr
	})
	if err != nil {
		if retryable(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}
		return nil, err
	}

	return &domain.Answer{
		Text:  strings.TrimSpace(completion.Text),
		Usage: completion.Usage,
	}, nil
}

func (s *summariser) kindPrompt(kind domain.SummaryKind) string {
	switch kind {
	case domain.SummaryComprehensive:
		return loadPrompt(s.prompts, driven.PromptSummaryComprehensive, defaultSummaryComprehensivePrompt)
	case domain.SummaryKeyPoints:
		return loadPrompt(s.prompts, driven.PromptSummaryKeyPoints, defaultSummaryKeyPointsPrompt)
	default:
		return loadPrompt(s.prompts, driven.PromptSummaryBrief, defaultSummaryBriefPrompt)
	}
}

// splitSections cuts text into consecutive sections of at most size
// characters. Sections do not overlap; summarising duplicated overlap
// text would skew the reduce stage.
func splitSections(text string, size int) []string {
	if size <= 0 {
		return []string{text}
	}
	sections := make([]string, 0, len(text)/size+1)
	for start := 0; start < len(text); start += size {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		sections = append(sections, text[start:end])
	}
	return sections
}
