package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfiguration indicates bad chunking or session
	// parameters. Never retried; surfaced immediately.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrProviderUnavailable indicates the embedding or generation
	// provider could not be reached (network, auth, timeout).
	// Transient: retried with backoff before surfacing.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimited indicates the provider rejected the request due
	// to rate limiting. Transient: retried with backoff, honouring the
	// retry-after hint when present.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded indicates the provider account is out of quota.
	// Terminal: surfaced immediately, never retried.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrEmbeddingFailed is the boundary error when embedding retries
	// are exhausted.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrGenerationFailed is the boundary error when generation
	// retries are exhausted.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrIndexNotFound indicates the vector index was used before
	// build/load. A programming error, not a transient condition.
	ErrIndexNotFound = errors.New("vector index not built")

	// ErrNotReady indicates a session operation was attempted while
	// the session is not in the READY state (no document loaded, or
	// indexing in progress).
	ErrNotReady = errors.New("session not ready")

	// ErrCacheUnavailable indicates the cache store failed. Never
	// fatal: callers degrade to recomputing the result.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// RateLimitError carries the provider's retry-after hint.
// It matches ErrRateLimited via errors.Is.
type RateLimitError struct {
	// RetryAfter is how long the provider asked us to wait.
	// Zero when the provider gave no hint.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter)
	}
	return "rate limited"
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
