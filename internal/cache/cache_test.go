package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearplan/planrag/internal/storage"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "Basement Extensions", "basement extensions"},
		{"collapse whitespace", "basement   extensions\t in  camden", "basement extensions in camden"},
		{"trim edges", "  party walls  ", "party walls"},
		{"already normalized", "roof windows", "roof windows"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("basement extensions", "")
	b := Fingerprint("basement extensions", "")
	assert.Equal(t, a, b, "same input must produce same fingerprint")
	assert.Len(t, a, 32)

	scoped := Fingerprint("basement extensions", "camden")
	assert.NotEqual(t, a, scoped, "borough scope must change the fingerprint")

	other := Fingerprint("roof windows", "")
	assert.NotEqual(t, a, other)
}

func TestNewKeyNormalizes(t *testing.T) {
	k1 := NewKey("Basement  Extensions", "camden")
	k2 := NewKey("basement extensions", "camden")
	assert.Equal(t, k1.Fingerprint, k2.Fingerprint)
	assert.Equal(t, "camden", k1.Borough)
}

func newMemory(t *testing.T) *MemoryCache {
	t.Helper()
	c, err := NewMemoryCache(16, time.Hour)
	require.NoError(t, err)
	return c
}

func TestMemoryCacheLifecycle(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)
	key := NewKey("basement extensions", "camden")

	_, err := c.Lookup(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Store(ctx, key, &Entry{
		QueryText:       "basement extensions",
		NormalizedQuery: "basement extensions",
		Payload:         []byte(`[]`),
	}))

	got, err := c.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, got.HitCount)
	assert.Equal(t, "camden", got.Borough)

	got, err = c.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 2, got.HitCount, "each lookup counts a hit")

	require.NoError(t, c.Invalidate(ctx, key))
	_, err = c.Lookup(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCacheOverwriteKeepsHitCount(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)
	key := NewKey("roof windows", "")

	require.NoError(t, c.Store(ctx, key, &Entry{Payload: []byte(`[1]`)}))
	_, err := c.Lookup(ctx, key)
	require.NoError(t, err)

	require.NoError(t, c.Store(ctx, key, &Entry{Payload: []byte(`[2]`)}))
	got, err := c.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[2]`), got.Payload)
	assert.Equal(t, 2, got.HitCount, "overwrite preserves accumulated hits")
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)
	key := NewKey("conservation areas", "")

	require.NoError(t, c.Store(ctx, key, &Entry{
		Payload:   []byte(`[]`),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := c.Lookup(ctx, key)
	assert.ErrorIs(t, err, ErrMiss, "expired entries are never served")

	n, err := c.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = c.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "sweep is idempotent")
}

func TestMemoryCacheInvalidateScope(t *testing.T) {
	ctx := context.Background()
	c := newMemory(t)

	require.NoError(t, c.Store(ctx, NewKey("q1", "camden"), &Entry{Payload: []byte(`[]`)}))
	require.NoError(t, c.Store(ctx, NewKey("q2", "barnet"), &Entry{Payload: []byte(`[]`)}))
	require.NoError(t, c.Store(ctx, NewKey("q3", ""), &Entry{Payload: []byte(`[]`)}))

	n, err := c.InvalidateScope(ctx, "camden")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "scoped plus unscoped entries invalidated")

	_, err = c.Lookup(ctx, NewKey("q1", "camden"))
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Lookup(ctx, NewKey("q3", ""))
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Lookup(ctx, NewKey("q2", "barnet"))
	assert.NoError(t, err, "other boroughs untouched")
}

func TestStoreCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(":memory:", 8)
	require.NoError(t, err)
	defer store.Close()

	c := NewStoreCache(store, time.Hour)
	key := NewKey("Basement  Extensions", "camden")

	_, err = c.Lookup(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Store(ctx, key, &Entry{
		QueryText:       "Basement  Extensions",
		NormalizedQuery: "basement extensions",
		Payload:         []byte(`[{"chunk_id":"c1"}]`),
	}))

	got, err := c.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"chunk_id":"c1"}]`), got.Payload)
	assert.Equal(t, 1, got.HitCount)
	assert.True(t, got.ExpiresAt.After(time.Now()))

	require.NoError(t, c.Touch(ctx, key))
	got, err = c.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3, got.HitCount)

	require.NoError(t, c.Invalidate(ctx, key))
	_, err = c.Lookup(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestStoreCacheSweep(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(":memory:", 8)
	require.NoError(t, err)
	defer store.Close()

	c := NewStoreCache(store, time.Hour)

	require.NoError(t, c.Store(ctx, NewKey("expired", ""), &Entry{
		Payload:   []byte(`[]`),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	require.NoError(t, c.Store(ctx, NewKey("live", ""), &Entry{Payload: []byte(`[]`)}))

	n, err := c.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = c.Lookup(ctx, NewKey("live", ""))
	assert.NoError(t, err)
}
