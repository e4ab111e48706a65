package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearplan/planrag/pkg/types"
)

func TestComputeAggregateStats(t *testing.T) {
	store := newTestStore(t)
	seedCorpus(t, store)

	stats, err := store.ComputeAggregateStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2, "inactive documents produce no rows")

	// Rows come back ordered by borough then category
	assert.Equal(t, "Barnet", stats[0].Borough)
	assert.Equal(t, "roof", stats[0].Category)
	assert.Equal(t, 1, stats[0].DocumentCount)
	assert.Equal(t, 1, stats[0].TotalChunks)

	assert.Equal(t, "Camden", stats[1].Borough)
	assert.Equal(t, "basement", stats[1].Category)
	assert.Equal(t, 1, stats[1].DocumentCount)
	assert.Equal(t, 2, stats[1].TotalChunks)
}

func TestComputeAggregateStatsGroupsByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertDocumentWithChunks(ctx,
		testDocument("doc-1", types.BoroughCamden, types.CategoryBasement),
		[]*types.Chunk{testChunk("doc-1", "chunk-1", "one", 0, []float32{1, 0, 0, 0})}))
	require.NoError(t, store.InsertDocumentWithChunks(ctx,
		testDocument("doc-2", types.BoroughCamden, types.CategoryBasement),
		[]*types.Chunk{
			testChunk("doc-2", "chunk-2", "two", 0, []float32{1, 0, 0, 0}),
			testChunk("doc-2", "chunk-3", "three", 1, []float32{1, 0, 0, 0}),
		}))
	require.NoError(t, store.InsertDocumentWithChunks(ctx,
		testDocument("doc-3", types.BoroughCamden, types.CategoryHeritage),
		[]*types.Chunk{testChunk("doc-3", "chunk-4", "four", 0, []float32{1, 0, 0, 0})}))

	stats, err := store.ComputeAggregateStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "basement", stats[0].Category)
	assert.Equal(t, 2, stats[0].DocumentCount)
	assert.Equal(t, 3, stats[0].TotalChunks)
	assert.Equal(t, "heritage", stats[1].Category)
	assert.Equal(t, 1, stats[1].DocumentCount)
}

func TestComputeAggregateStatsEmptyStore(t *testing.T) {
	store := newTestStore(t)
	stats, err := store.ComputeAggregateStats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats, "empty store is not an error")
}

func TestReplaceAndListAggregateStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	first := []AggregateStat{
		{Borough: "Camden", Category: "basement", DocumentCount: 2, TotalChunks: 10, TotalPages: 40, LastUpdated: now},
		{Borough: "Barnet", Category: "roof", DocumentCount: 1, TotalChunks: 4, TotalPages: 12, LastUpdated: now},
	}
	require.NoError(t, store.ReplaceAggregateStats(ctx, first))

	all, err := store.ListAggregateStats(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	camden, err := store.ListAggregateStats(ctx, "Camden", "")
	require.NoError(t, err)
	require.Len(t, camden, 1)
	assert.Equal(t, 2, camden[0].DocumentCount)
	assert.Equal(t, 10, camden[0].TotalChunks)

	roofs, err := store.ListAggregateStats(ctx, "", "roof")
	require.NoError(t, err)
	require.Len(t, roofs, 1)
	assert.Equal(t, "Barnet", roofs[0].Borough)

	// A replace swaps the snapshot wholesale
	second := []AggregateStat{
		{Borough: "Brent", Category: "windows", DocumentCount: 1, TotalChunks: 2, TotalPages: 6, LastUpdated: now},
	}
	require.NoError(t, store.ReplaceAggregateStats(ctx, second))

	all, err = store.ListAggregateStats(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Brent", all[0].Borough)

	require.NoError(t, store.ReplaceAggregateStats(ctx, nil))
	all, err = store.ListAggregateStats(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAggregateStatsRefreshCycle(t *testing.T) {
	store := newTestStore(t)
	seedCorpus(t, store)
	ctx := context.Background()

	computed, err := store.ComputeAggregateStats(ctx)
	require.NoError(t, err)
	require.NoError(t, store.ReplaceAggregateStats(ctx, computed))

	// Deactivating a document changes the next compute, not the snapshot
	require.NoError(t, store.SetDocumentActive(ctx, "doc-barnet", false))

	persisted, err := store.ListAggregateStats(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, persisted, 2, "snapshot unchanged until refreshed")

	recomputed, err := store.ComputeAggregateStats(ctx)
	require.NoError(t, err)
	require.Len(t, recomputed, 1)
	assert.Equal(t, "Camden", recomputed[0].Borough)
}
