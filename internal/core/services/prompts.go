package services

import (
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// Default prompt templates. A PromptStore can override any of these;
// the defaults are used when no store is configured or a template is
// missing.

const defaultQASystemPrompt = `You are a contract analysis assistant. Answer the question using ONLY the contract excerpts provided below. If the excerpts do not contain the information needed to answer, say so plainly instead of guessing. Never invent terms, figures or clauses that do not appear in the excerpts. When you state a figure or clause, mention the page it appears on.`

const defaultSummaryBriefPrompt = `Summarise the following contract in one or two short paragraphs. Cover the parties, the subject of the agreement, the key financial terms and the duration.`

const defaultSummaryComprehensivePrompt = `Write a comprehensive summary of the following contract. Cover every major section: the parties, the term, financial obligations, each party's responsibilities, termination conditions and any special clauses.`

const defaultSummaryKeyPointsPrompt = `List the key points of the following contract as a numbered list. One clause per point, most important first.`

const defaultSummaryReducePrompt = `The following are summaries of consecutive sections of a single contract. Merge them into one coherent summary in the same style, removing repetition:

%s`

const defaultExtractPrompt = `Extract the following fields from the rental contract below and respond with ONLY a JSON object, no prose and no code fences. The object must have exactly these keys: rent_amount, lease_duration, security_deposit, payment_due_date, late_fee, pet_policy, maintenance, termination, utilities, parking. Each key maps to an object {"value": string, "page": number, "found": boolean}. If the contract does not mention a field, set value to "not found", page to 0 and found to false.

Contract:
%s`

// loadPrompt returns the stored template for name, falling back to the
// built-in default when no store is configured or the load fails.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || prompt == "" {
		logger.Debug("Prompt %q not available, using default: %v", name, err)
		return fallback
	}
	return prompt
}
