// Package stats maintains precomputed rollups of the document corpus
// per borough and category. Readers always see a complete snapshot;
// refreshes replace it atomically and a failed refresh leaves the
// previous snapshot serving.
package stats

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/clearplan/planrag/internal/logger"
	"github.com/clearplan/planrag/internal/storage"
)

// Snapshot is one immutable generation of aggregate statistics
type Snapshot struct {
	Rows        []storage.AggregateStat
	ComputedAt  time.Time
	TotalDocs   int
	TotalChunks int
}

// Service computes and serves aggregate statistics. The current
// snapshot is swapped atomically so concurrent readers never observe
// a partially applied refresh.
type Service struct {
	store   storage.Storage
	current atomic.Pointer[Snapshot]
}

// NewService creates a stats service over the store. The snapshot
// starts empty; call Refresh or Load to populate it.
func NewService(store storage.Storage) *Service {
	s := &Service{store: store}
	s.current.Store(&Snapshot{Rows: []storage.AggregateStat{}})
	return s
}

// Load reads the persisted stats rows into the current snapshot
// without recomputing them
func (s *Service) Load(ctx context.Context) error {
	rows, err := s.store.ListAggregateStats(ctx, "", "")
	if err != nil {
		return fmt.Errorf("load aggregate stats: %w", err)
	}
	s.current.Store(buildSnapshot(rows))
	return nil
}

// Refresh recomputes statistics from the live corpus, persists them,
// and swaps them in. On any error the previous snapshot stays
// current; callers running searches are unaffected either way.
func (s *Service) Refresh(ctx context.Context) error {
	rows, err := s.store.ComputeAggregateStats(ctx)
	if err != nil {
		logger.Warn("stats refresh failed during compute: %v", err)
		return fmt.Errorf("compute aggregate stats: %w", err)
	}
	if err := s.store.ReplaceAggregateStats(ctx, rows); err != nil {
		logger.Warn("stats refresh failed during persist: %v", err)
		return fmt.Errorf("persist aggregate stats: %w", err)
	}
	s.current.Store(buildSnapshot(rows))
	logger.Debug("stats refreshed: %d rows", len(rows))
	return nil
}

// Snapshot returns the current statistics snapshot. The returned
// value is immutable; callers must not modify its rows.
func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

// Rows returns the current snapshot's rows filtered by borough and
// category. Empty arguments match everything. An empty result is a
// valid answer, not an error.
func (s *Service) Rows(borough, category string) []storage.AggregateStat {
	snap := s.current.Load()
	out := make([]storage.AggregateStat, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		if borough != "" && row.Borough != borough {
			continue
		}
		if category != "" && row.Category != category {
			continue
		}
		out = append(out, row)
	}
	return out
}

func buildSnapshot(rows []storage.AggregateStat) *Snapshot {
	snap := &Snapshot{
		Rows:       rows,
		ComputedAt: time.Now(),
	}
	if snap.Rows == nil {
		snap.Rows = []storage.AggregateStat{}
	}
	for _, row := range rows {
		snap.TotalDocs += row.DocumentCount
		snap.TotalChunks += row.TotalChunks
	}
	return snap
}
