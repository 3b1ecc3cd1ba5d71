package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptQASystem frames contract question answering. The template
	// has no format placeholders; context and question are appended.
	PromptQASystem = "qa_system"

	// PromptSummaryBrief asks for a 1-2 paragraph overview.
	PromptSummaryBrief = "summary_brief"

	// PromptSummaryComprehensive asks for full section coverage.
	PromptSummaryComprehensive = "summary_comprehensive"

	// PromptSummaryKeyPoints asks for a numbered key-clause list.
	PromptSummaryKeyPoints = "summary_key_points"

	// PromptSummaryReduce merges per-section summaries of a long
	// document into one. The template expects a %s placeholder for the
	// concatenated section summaries.
	PromptSummaryReduce = "summary_reduce"

	// PromptExtractFields asks for the fixed field schema as strict
	// JSON. The template expects a %s placeholder for the document text.
	PromptExtractFields = "extract_fields"
)
