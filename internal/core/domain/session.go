package domain

// SessionState is the lifecycle state of a contract session.
//
// Transitions: UNLOADED -> INDEXING -> READY -> (ERROR | UNLOADED).
// A failed build enters ERROR; only a fresh load leaves it.
type SessionState int

const (
	// StateUnloaded means no document is bound; only Load is valid.
	StateUnloaded SessionState = iota

	// StateIndexing means chunking/embedding/index build is in
	// progress. Queries are rejected with ErrNotReady, not queued.
	StateIndexing

	// StateReady means the document is indexed and all operations
	// are valid.
	StateReady

	// StateError means the last build failed. Only Load (retry) is
	// accepted; the prior state is not resumed.
	StateError
)

// String returns the state name for logging and display.
func (s SessionState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateIndexing:
		return "indexing"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
