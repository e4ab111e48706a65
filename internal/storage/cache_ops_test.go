package storage

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearplan/planrag/pkg/types"
)

func testFingerprint(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func testCacheEntry(query, borough string) *CacheEntry {
	return &CacheEntry{
		Fingerprint:     testFingerprint(query + "|" + borough),
		QueryText:       query,
		NormalizedQuery: query,
		Borough:         borough,
		Payload:         []byte(`[{"chunk_id":"chunk-1"}]`),
	}
}

func TestPutAndLookupCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := testCacheEntry("basement excavation", "")
	require.NoError(t, store.PutCacheEntry(ctx, entry))
	assert.NotZero(t, entry.ID)
	assert.True(t, entry.IsValid)
	assert.False(t, entry.ExpiresAt.IsZero(), "default TTL applied")

	got, err := store.LookupCache(ctx, entry.Fingerprint, "")
	require.NoError(t, err)
	assert.Equal(t, entry.Payload, got.Payload)
	assert.Equal(t, 1, got.HitCount, "lookup counts as a hit")
	require.NotNil(t, got.LastHitAt)

	again, err := store.LookupCache(ctx, entry.Fingerprint, "")
	require.NoError(t, err)
	assert.Equal(t, 2, again.HitCount)
}

func TestPutCacheEntryValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.PutCacheEntry(ctx, &CacheEntry{Payload: []byte("x")})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	err = store.PutCacheEntry(ctx, &CacheEntry{Fingerprint: testFingerprint("q")})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestPutCacheEntryOverwriteKeepsHitCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := testCacheEntry("basement excavation", "")
	require.NoError(t, store.PutCacheEntry(ctx, entry))

	_, err := store.LookupCache(ctx, entry.Fingerprint, "")
	require.NoError(t, err)
	_, err = store.LookupCache(ctx, entry.Fingerprint, "")
	require.NoError(t, err)

	rewrite := testCacheEntry("basement excavation", "")
	rewrite.Payload = []byte(`[{"chunk_id":"chunk-2"}]`)
	require.NoError(t, store.PutCacheEntry(ctx, rewrite))
	assert.Equal(t, entry.ID, rewrite.ID, "same row updated")
	assert.Equal(t, 2, rewrite.HitCount, "hit count survives the overwrite")

	got, err := store.LookupCache(ctx, entry.Fingerprint, "")
	require.NoError(t, err)
	assert.Equal(t, rewrite.Payload, got.Payload)
}

func TestCacheBoroughScopesAreDistinct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fp := testFingerprint("shared")
	unscoped := testCacheEntry("shared", "")
	unscoped.Fingerprint = fp
	scoped := testCacheEntry("shared", "Camden")
	scoped.Fingerprint = fp
	scoped.Payload = []byte(`[{"chunk_id":"chunk-camden"}]`)
	require.NoError(t, store.PutCacheEntry(ctx, unscoped))
	require.NoError(t, store.PutCacheEntry(ctx, scoped))

	got, err := store.LookupCache(ctx, fp, "Camden")
	require.NoError(t, err)
	assert.Equal(t, scoped.Payload, got.Payload)

	got, err = store.LookupCache(ctx, fp, "")
	require.NoError(t, err)
	assert.Equal(t, unscoped.Payload, got.Payload)
}

func TestLookupCacheMiss(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LookupCache(context.Background(), testFingerprint("never stored"), "")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLookupCacheExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := testCacheEntry("stale query", "")
	entry.CreatedAt = time.Now().Add(-48 * time.Hour)
	entry.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.PutCacheEntry(ctx, entry))

	_, err := store.LookupCache(ctx, entry.Fingerprint, "")
	assert.ErrorIs(t, err, ErrCacheMiss, "expired entries are never served")

	// Still physically present until swept
	raw, err := store.GetCacheEntry(ctx, entry.Fingerprint, "")
	require.NoError(t, err)
	assert.Equal(t, 0, raw.HitCount, "failed lookup records no hit")
}

func TestTouchCacheEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := testCacheEntry("basement excavation", "")
	require.NoError(t, store.PutCacheEntry(ctx, entry))

	require.NoError(t, store.TouchCacheEntry(ctx, entry.Fingerprint, ""))
	got, err := store.GetCacheEntry(ctx, entry.Fingerprint, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got.HitCount)
	assert.NotNil(t, got.LastHitAt)

	// Touching an absent entry is a no-op
	require.NoError(t, store.TouchCacheEntry(ctx, testFingerprint("absent"), ""))
}

func TestInvalidateCacheEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := testCacheEntry("basement excavation", "")
	require.NoError(t, store.PutCacheEntry(ctx, entry))
	require.NoError(t, store.InvalidateCacheEntry(ctx, entry.Fingerprint, ""))

	_, err := store.LookupCache(ctx, entry.Fingerprint, "")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.ErrorIs(t, store.InvalidateCacheEntry(ctx, testFingerprint("absent"), ""), ErrNotFound)
}

func TestInvalidateCacheScope(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	camden := testCacheEntry("camden query", "Camden")
	barnet := testCacheEntry("barnet query", "Barnet")
	unscoped := testCacheEntry("general query", "")
	require.NoError(t, store.PutCacheEntry(ctx, camden))
	require.NoError(t, store.PutCacheEntry(ctx, barnet))
	require.NoError(t, store.PutCacheEntry(ctx, unscoped))

	// A Camden change takes out Camden-scoped and unscoped entries
	n, err := store.InvalidateCacheScope(ctx, "Camden")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.LookupCache(ctx, camden.Fingerprint, "Camden")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = store.LookupCache(ctx, unscoped.Fingerprint, "")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = store.LookupCache(ctx, barnet.Fingerprint, "Barnet")
	assert.NoError(t, err, "other boroughs keep their entries")

	// Repeat invalidation finds nothing valid in scope
	n, err = store.InvalidateCacheScope(ctx, "Camden")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInvalidateCacheScopeAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutCacheEntry(ctx, testCacheEntry("one", "Camden")))
	require.NoError(t, store.PutCacheEntry(ctx, testCacheEntry("two", "Barnet")))

	n, err := store.InvalidateCacheScope(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "empty borough invalidates everything")
}

func TestSweepExpiredCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	expired := testCacheEntry("old query", "")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	fresh := testCacheEntry("fresh query", "")
	require.NoError(t, store.PutCacheEntry(ctx, expired))
	require.NoError(t, store.PutCacheEntry(ctx, fresh))

	n, err := store.SweepExpiredCache(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.GetCacheEntry(ctx, expired.Fingerprint, "")
	assert.ErrorIs(t, err, ErrNotFound, "sweep physically deletes")
	_, err = store.LookupCache(ctx, fresh.Fingerprint, "")
	assert.NoError(t, err)

	n, err = store.SweepExpiredCache(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "sweep is idempotent")
}
