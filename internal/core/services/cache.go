package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// resultCache wraps a CacheStore with the staleness rules: an entry is
// a hit only when its fingerprint matches the live document. Store
// failures are absorbed; the caller always gets a result, at worst
// recomputed.
type resultCache struct {
	store driven.CacheStore
}

func newResultCache(store driven.CacheStore) *resultCache {
	return &resultCache{store: store}
}

// getOrCompute returns the cached payload when a fresh entry exists,
// otherwise runs compute and stores its result. The second return
// value reports whether the payload came from the cache.
func (c *resultCache) getOrCompute(
	ctx context.Context,
	ownerID, documentID string,
	ns domain.CacheNamespace,
	params, fingerprint string,
	compute func(ctx context.Context) ([]byte, error),
) ([]byte, bool, error) {
	if c.store == nil {
		payload, err := compute(ctx)
		return payload, false, err
	}

	key := domain.CacheKey(ownerID, documentID, ns, params)

	entry, err := c.store.Get(ctx, key)
	switch {
	case err == nil && entry.Fingerprint == fingerprint:
		logger.Debug("Cache hit: namespace=%s document=%s", ns, documentID)
		return entry.Payload, true, nil
	case err == nil:
		logger.Debug("Cache stale: namespace=%s document=%s", ns, documentID)
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("Cache miss: namespace=%s document=%s", ns, documentID)
	default:
		logger.Warn("Cache read failed, recomputing: %v", err)
	}

	payload, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	putErr := c.store.Put(ctx, &domain.CacheEntry{
		Key:         key,
		OwnerID:     ownerID,
		DocumentID:  documentID,
		Namespace:   ns,
		Fingerprint: fingerprint,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	})
	if putErr != nil {
		logger.Warn("Cache write failed: %v", putErr)
	}

	return payload, false, nil
}

// invalidateDocument purges all cached entries for a document across
// all namespaces. A store failure is logged, not fatal.
func (c *resultCache) invalidateDocument(ctx context.Context, documentID string) {
	if c.store == nil {
		return
	}
	if err := c.store.DeleteDocument(ctx, documentID); err != nil {
		logger.Warn("Cache purge failed for document %s: %v", documentID, err)
	}
}
