package storage

import (
	"context"
	"fmt"
	"time"
)

// ComputeAggregateStats recomputes the rollup rows for every
// (borough, category) pair that has at least one active document.
// Boroughs with no active documents produce no row at all.
func (s *SQLiteStorage) ComputeAggregateStats(ctx context.Context) ([]AggregateStat, error) {
	query := `
		SELECT d.borough, d.category,
		       COUNT(*),
		       COALESCE(SUM((SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id)), 0),
		       COALESCE(SUM(d.total_pages), 0)
		FROM documents d
		WHERE d.is_active = 1
		GROUP BY d.borough, d.category
		ORDER BY d.borough, d.category
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute aggregate stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	now := time.Now()
	stats := make([]AggregateStat, 0)
	for rows.Next() {
		var stat AggregateStat
		if err := rows.Scan(&stat.Borough, &stat.Category, &stat.DocumentCount,
			&stat.TotalChunks, &stat.TotalPages); err != nil {
			return nil, err
		}
		stat.LastUpdated = now
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// ReplaceAggregateStats swaps the persisted snapshot wholesale inside
// one transaction. Concurrent readers see either the previous complete
// snapshot or the new one, never a mix.
func (s *SQLiteStorage) ReplaceAggregateStats(ctx context.Context, stats []AggregateStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM aggregate_stats`); err != nil {
		return fmt.Errorf("failed to clear aggregate stats: %w", err)
	}

	for _, stat := range stats {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO aggregate_stats (borough, category, document_count, total_chunks, total_pages, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)`,
			stat.Borough, stat.Category, stat.DocumentCount,
			stat.TotalChunks, stat.TotalPages, stat.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to insert aggregate stat: %w", err)
		}
	}

	return tx.Commit()
}

// ListAggregateStats returns the persisted snapshot rows, optionally
// filtered by borough and/or category. Freshness is whatever the last
// refresh produced.
func (s *SQLiteStorage) ListAggregateStats(ctx context.Context, borough, category string) ([]AggregateStat, error) {
	query := `
		SELECT borough, category, document_count, total_chunks, total_pages, last_updated
		FROM aggregate_stats
		WHERE 1=1
	`
	args := make([]interface{}, 0, 2)
	if borough != "" {
		query += " AND borough = ?"
		args = append(args, borough)
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY borough, category"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list aggregate stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := make([]AggregateStat, 0)
	for rows.Next() {
		var stat AggregateStat
		if err := rows.Scan(&stat.Borough, &stat.Category, &stat.DocumentCount,
			&stat.TotalChunks, &stat.TotalPages, &stat.LastUpdated); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
