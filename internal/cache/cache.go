package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"time"
)

// DefaultTTL is the entry lifetime applied when callers don't override it
const DefaultTTL = 7 * 24 * time.Hour

// ErrMiss is returned when no servable entry exists for a key
var ErrMiss = errors.New("cache miss")

// Key identifies a cached query: the fingerprint of its normalized
// text plus an optional borough scope
type Key struct {
	Fingerprint []byte
	Borough     string // empty string means unscoped
}

// Entry is a cached fused result set
type Entry struct {
	QueryText       string
	NormalizedQuery string
	Borough         string
	Payload         []byte
	HitCount        int
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// Cache is the query-cache contract. Implementations may live in
// memory or in the persistent store; callers see the same semantics:
// lookups serve only valid, unexpired entries and record a hit as a
// side effect, sweeps remove expired entries by timestamp.
type Cache interface {
	// Lookup returns the servable entry for the key or ErrMiss. A hit
	// increments the entry's hit count best-effort.
	Lookup(ctx context.Context, key Key) (*Entry, error)

	// Store writes an entry under the key. Concurrent writers to the
	// same key resolve last-write-wins; the payload for a given key is
	// functionally idempotent so the race is harmless.
	Store(ctx context.Context, key Key, entry *Entry) error

	// Touch records a hit without reading the payload. No-op when the
	// key is absent or not servable.
	Touch(ctx context.Context, key Key) error

	// Invalidate marks the key's entry as not servable.
	Invalidate(ctx context.Context, key Key) error

	// InvalidateScope invalidates all entries affected by a document
	// change in the borough (borough-scoped plus unscoped entries).
	// Empty borough invalidates everything. Returns the count.
	InvalidateScope(ctx context.Context, borough string) (int, error)

	// Sweep deletes entries with expiry strictly before now and
	// returns how many were removed. Idempotent.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Normalize canonicalizes query text for fingerprinting: lowercase
// with runs of whitespace collapsed to single spaces
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Fingerprint computes the stable cache key hash for a normalized
// query, optionally scoped to a borough
func Fingerprint(normalized, borough string) []byte {
	var data strings.Builder
	data.WriteString(normalized)
	if borough != "" {
		data.WriteString("|")
		data.WriteString(borough)
	}
	sum := sha256.Sum256([]byte(data.String()))
	return sum[:]
}

// NewKey builds the cache key for raw query text and a borough scope
func NewKey(query, borough string) Key {
	return Key{
		Fingerprint: Fingerprint(Normalize(query), borough),
		Borough:     borough,
	}
}
