package driven

import "context"

// IndexStore persists serialised vector indexes so a document does not
// need re-embedding on every load.
// Backed by SQLite.
type IndexStore interface {
	// SaveIndex stores the serialised index for a document, replacing
	// any previous one.
	SaveIndex(ctx context.Context, documentID string, data []byte) error

	// LoadIndex retrieves the serialised index for a document.
	// Returns domain.ErrNotFound when none is stored.
	LoadIndex(ctx context.Context, documentID string) ([]byte, error)

	// DeleteIndex removes the stored index for a document.
	DeleteIndex(ctx context.Context, documentID string) error
}
