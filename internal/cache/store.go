package cache

import (
	"context"
	"errors"
	"time"

	"github.com/clearplan/planrag/internal/storage"
)

// StoreCache persists entries in the storage layer's query_cache
// table, surviving process restarts
type StoreCache struct {
	store storage.Storage
	ttl   time.Duration
}

// NewStoreCache creates a persistent cache backed by the given store.
// A non-positive ttl falls back to DefaultTTL.
func NewStoreCache(store storage.Storage, ttl time.Duration) *StoreCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StoreCache{store: store, ttl: ttl}
}

func (c *StoreCache) Lookup(ctx context.Context, key Key) (*Entry, error) {
	rec, err := c.store.LookupCache(ctx, key.Fingerprint, key.Borough)
	if err != nil {
		if errors.Is(err, storage.ErrCacheMiss) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return fromRecord(rec), nil
}

func (c *StoreCache) Store(ctx context.Context, key Key, entry *Entry) error {
	expiresAt := entry.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(c.ttl)
	}
	return c.store.PutCacheEntry(ctx, &storage.CacheEntry{
		Fingerprint:     key.Fingerprint,
		QueryText:       entry.QueryText,
		NormalizedQuery: entry.NormalizedQuery,
		Borough:         key.Borough,
		Payload:         entry.Payload,
		ExpiresAt:       expiresAt,
	})
}

func (c *StoreCache) Touch(ctx context.Context, key Key) error {
	return c.store.TouchCacheEntry(ctx, key.Fingerprint, key.Borough)
}

func (c *StoreCache) Invalidate(ctx context.Context, key Key) error {
	return c.store.InvalidateCacheEntry(ctx, key.Fingerprint, key.Borough)
}

func (c *StoreCache) InvalidateScope(ctx context.Context, borough string) (int, error) {
	return c.store.InvalidateCacheScope(ctx, borough)
}

func (c *StoreCache) Sweep(ctx context.Context, now time.Time) (int, error) {
	return c.store.SweepExpiredCache(ctx, now)
}

func fromRecord(rec *storage.CacheEntry) *Entry {
	return &Entry{
		QueryText:       rec.QueryText,
		NormalizedQuery: rec.NormalizedQuery,
		Borough:         rec.Borough,
		Payload:         rec.Payload,
		HitCount:        rec.HitCount,
		CreatedAt:       rec.CreatedAt,
		ExpiresAt:       rec.ExpiresAt,
	}
}
