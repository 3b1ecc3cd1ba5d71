package domain

import "time"

// CacheEntry is a previously computed result stored by the cache layer.
// Identical keys always yield identical values unless the underlying
// document changes, in which case the fingerprint mismatch makes the
// entry a miss.
type CacheEntry struct {
	// Key is the deterministic key from CacheKey.
	Key string

	// OwnerID and DocumentID identify what the entry belongs to,
	// so a whole document's entries can be purged together.
	OwnerID    string
	DocumentID string

	// Namespace is the operation family the entry belongs to.
	Namespace CacheNamespace

	// Fingerprint is the document content fingerprint the result was
	// computed against.
	Fingerprint string

	// Payload is the serialised result.
	Payload []byte

	// CreatedAt is when the result was computed.
	CreatedAt time.Time
}
