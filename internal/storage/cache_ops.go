package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearplan/planrag/pkg/types"
)

// DefaultCacheTTL is applied when a cache entry is stored without an
// explicit expiry
const DefaultCacheTTL = 7 * 24 * time.Hour

const cacheColumns = `id, fingerprint, query_text, normalized_query, borough,
       payload, hit_count, is_valid, created_at, expires_at, last_hit_at`

// PutCacheEntry stores a fused result set under its fingerprint. A
// concurrent write to the same fingerprint+borough resolves by
// last-write-wins: the payload and expiry are overwritten, the
// accumulated hit count survives.
func (s *SQLiteStorage) PutCacheEntry(ctx context.Context, entry *CacheEntry) error {
	if len(entry.Fingerprint) == 0 {
		return fmt.Errorf("%w: cache entry fingerprint is required", types.ErrInvalidInput)
	}
	if len(entry.Payload) == 0 {
		return fmt.Errorf("%w: cache entry payload is required", types.ErrInvalidInput)
	}

	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.ExpiresAt.IsZero() {
		entry.ExpiresAt = entry.CreatedAt.Add(DefaultCacheTTL)
	}
	entry.IsValid = true

	query := `
		INSERT INTO query_cache (fingerprint, query_text, normalized_query, borough,
		                         payload, hit_count, is_valid, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, 0, 1, ?, ?)
		ON CONFLICT(fingerprint, borough) DO UPDATE SET
			query_text = excluded.query_text,
			normalized_query = excluded.normalized_query,
			payload = excluded.payload,
			is_valid = 1,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
		RETURNING id, hit_count
	`
	err := s.db.QueryRowContext(ctx, query,
		entry.Fingerprint, entry.QueryText, entry.NormalizedQuery, entry.Borough,
		string(entry.Payload), entry.CreatedAt, entry.ExpiresAt,
	).Scan(&entry.ID, &entry.HitCount)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// LookupCache returns the servable entry for the fingerprint and
// borough scope, or ErrCacheMiss. A successful lookup increments
// hit_count and stamps last_hit_at; that bookkeeping is best-effort
// and never fails the read.
func (s *SQLiteStorage) LookupCache(ctx context.Context, fingerprint []byte, borough string) (*CacheEntry, error) {
	query := `
		SELECT ` + cacheColumns + `
		FROM query_cache
		WHERE fingerprint = ? AND borough = ? AND is_valid = 1 AND expires_at > ?
	`
	row := s.db.QueryRowContext(ctx, query, fingerprint, borough, time.Now())
	entry, err := scanCacheEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up cache entry: %w", err)
	}

	// Losing this update costs a statistic, never a wrong answer
	now := time.Now()
	_, _ = s.db.ExecContext(ctx,
		`UPDATE query_cache SET hit_count = hit_count + 1, last_hit_at = ? WHERE id = ?`,
		now, entry.ID)
	entry.HitCount++
	entry.LastHitAt = &now

	return entry, nil
}

// GetCacheEntry returns the row for a fingerprint regardless of
// validity or expiry, without touching hit bookkeeping. Intended for
// inspection and tests.
func (s *SQLiteStorage) GetCacheEntry(ctx context.Context, fingerprint []byte, borough string) (*CacheEntry, error) {
	query := `
		SELECT ` + cacheColumns + `
		FROM query_cache
		WHERE fingerprint = ? AND borough = ?
	`
	row := s.db.QueryRowContext(ctx, query, fingerprint, borough)
	entry, err := scanCacheEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// TouchCacheEntry records a hit against a servable entry without
// reading its payload. No-op when the entry is absent, expired, or
// invalid.
func (s *SQLiteStorage) TouchCacheEntry(ctx context.Context, fingerprint []byte, borough string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE query_cache SET hit_count = hit_count + 1, last_hit_at = ?
		WHERE fingerprint = ? AND borough = ? AND is_valid = 1 AND expires_at > ?`,
		time.Now(), fingerprint, borough, time.Now())
	if err != nil {
		return fmt.Errorf("failed to touch cache entry: %w", err)
	}
	return nil
}

// InvalidateCacheEntry marks a single entry as not servable. The row
// stays in place until a sweep removes it.
func (s *SQLiteStorage) InvalidateCacheEntry(ctx context.Context, fingerprint []byte, borough string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE query_cache SET is_valid = 0 WHERE fingerprint = ? AND borough = ?`,
		fingerprint, borough)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InvalidateCacheScope invalidates every entry affected by a document
// change in the given borough: borough-scoped entries plus unscoped
// entries, whose results may span any borough. An empty borough
// invalidates everything. Returns the number of rows invalidated.
func (s *SQLiteStorage) InvalidateCacheScope(ctx context.Context, borough string) (int, error) {
	var result sql.Result
	var err error
	if borough == "" {
		result, err = s.db.ExecContext(ctx, `UPDATE query_cache SET is_valid = 0 WHERE is_valid = 1`)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE query_cache SET is_valid = 0 WHERE is_valid = 1 AND (borough = ? OR borough = '')`,
			borough)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate cache scope: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// SweepExpiredCache physically deletes entries whose expiry has passed
// and reports how many were removed. Filtering strictly on expires_at
// keeps the sweep safe against concurrent writers inserting entries
// with future expiries. Idempotent.
func (s *SQLiteStorage) SweepExpiredCache(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM query_cache WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep cache: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func scanCacheEntry(scan func(dest ...interface{}) error) (*CacheEntry, error) {
	var entry CacheEntry
	var payload string
	var lastHitAt sql.NullTime
	err := scan(
		&entry.ID, &entry.Fingerprint, &entry.QueryText, &entry.NormalizedQuery,
		&entry.Borough, &payload, &entry.HitCount, &entry.IsValid,
		&entry.CreatedAt, &entry.ExpiresAt, &lastHitAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Payload = []byte(payload)
	if lastHitAt.Valid {
		entry.LastHitAt = &lastHitAt.Time
	}
	return &entry, nil
}
