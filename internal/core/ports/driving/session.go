package driving

import (
	"context"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// ContractSession is a stateful engine bound to one contract at a time.
// Load binds a document; Ask, Summarize and Extract operate on the
// loaded document and return domain.ErrNotReady otherwise.
type ContractSession interface {
	// Load ingests a document: chunk, embed, index. It replaces any
	// previously loaded document and blocks until the session is READY
	// or the build fails.
	Load(ctx context.Context, doc *domain.Document) error

	// Ask answers a question about the loaded contract, grounded on
	// retrieved passages and recent conversation turns.
	Ask(ctx context.Context, question string) (*domain.Answer, error)

	// Summarize generates a summary of the loaded contract.
	Summarize(ctx context.Context, kind domain.SummaryKind) (*domain.Answer, error)

	// Extract pulls the fixed field schema from the loaded contract.
	Extract(ctx context.Context) (*domain.FieldSet, error)

	// History returns the retained conversation turns, oldest first.
	History() []domain.ConversationTurn

	// ClearMemory drops the conversation history without unloading the
	// document.
	ClearMemory()

	// Unload releases the loaded document and returns the session to
	// UNLOADED. Cached results and persisted indexes survive.
	Unload()

	// State reports the current lifecycle state.
	State() domain.SessionState

	// Document returns the loaded document, or nil when UNLOADED.
	Document() *domain.Document
}
