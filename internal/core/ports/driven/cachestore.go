package driven

import (
	"context"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// CacheStore persists computed results across sessions.
// Backed by SQLite.
//
// The store is a dumb key/value layer: staleness is decided by the
// caller comparing the entry's fingerprint against the live document.
// A failing cache store must never fail an operation; callers degrade
// to recomputing.
type CacheStore interface {
	// Get retrieves an entry by key.
	// Returns domain.ErrNotFound on a miss.
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)

	// Put stores an entry, replacing any existing entry with the same key.
	Put(ctx context.Context, entry *domain.CacheEntry) error

	// DeleteDocument removes all entries for a document, across all
	// namespaces.
	DeleteDocument(ctx context.Context, documentID string) error
}
