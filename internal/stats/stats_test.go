package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearplan/planrag/internal/storage"
	"github.com/clearplan/planrag/pkg/types"
)

func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:", 4)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedDoc(t *testing.T, store storage.Storage, id string, borough types.Borough, category types.Category, active bool, chunkCount int) {
	t.Helper()
	ctx := context.Background()
	doc := &types.Document{
		ID:       id,
		Name:     id,
		Borough:  borough,
		Category: category,
		IsActive: true,
	}
	chunks := make([]*types.Chunk, chunkCount)
	for i := range chunks {
		chunks[i] = &types.Chunk{
			ID:         id + "-c" + string(rune('0'+i)),
			DocumentID: id,
			Content:    "planning guidance text",
			ChunkIndex: i,
			TokenCount: 5,
			Embedding:  []float32{1, 0, 0, 0},
			Dimension:  4,
		}
	}
	require.NoError(t, store.InsertDocumentWithChunks(ctx, doc, chunks))
	if !active {
		require.NoError(t, store.SetDocumentActive(ctx, id, false))
	}
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	store := newTestStore(t)
	seedDoc(t, store, "doc-1", types.BoroughCamden, types.CategoryBasement, true, 2)
	seedDoc(t, store, "doc-2", types.BoroughCamden, types.CategoryBasement, true, 3)
	seedDoc(t, store, "doc-3", types.BoroughBarnet, types.CategoryRoof, true, 1)

	svc := NewService(store)
	require.NoError(t, svc.Refresh(context.Background()))

	snap := svc.Snapshot()
	assert.Equal(t, 3, snap.TotalDocs)
	assert.Equal(t, 6, snap.TotalChunks)
	assert.False(t, snap.ComputedAt.IsZero())

	camden := svc.Rows("Camden", "basement")
	require.Len(t, camden, 1)
	assert.Equal(t, 2, camden[0].DocumentCount)
	assert.Equal(t, 5, camden[0].TotalChunks)
}

func TestRefreshExcludesInactiveDocuments(t *testing.T) {
	store := newTestStore(t)
	seedDoc(t, store, "doc-1", types.BoroughCamden, types.CategoryBasement, true, 2)
	seedDoc(t, store, "doc-2", types.BoroughCamden, types.CategoryBasement, false, 4)

	svc := NewService(store)
	require.NoError(t, svc.Refresh(context.Background()))

	rows := svc.Rows("Camden", "basement")
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].DocumentCount)
	assert.Equal(t, 2, rows[0].TotalChunks)
}

func TestRowsEmptyBoroughIsNotAnError(t *testing.T) {
	store := newTestStore(t)
	seedDoc(t, store, "doc-1", types.BoroughCamden, types.CategoryBasement, true, 1)

	svc := NewService(store)
	require.NoError(t, svc.Refresh(context.Background()))

	rows := svc.Rows("Brent", "")
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	store := newTestStore(t)
	seedDoc(t, store, "doc-1", types.BoroughCamden, types.CategoryBasement, true, 2)

	svc := NewService(store)
	require.NoError(t, svc.Refresh(context.Background()))
	before := svc.Snapshot()

	// A closed store makes the next refresh fail.
	require.NoError(t, store.Close())
	err := svc.Refresh(context.Background())
	require.Error(t, err)

	assert.Same(t, before, svc.Snapshot(), "failed refresh must not disturb the served snapshot")
}

func TestLoadReadsPersistedRows(t *testing.T) {
	store := newTestStore(t)
	seedDoc(t, store, "doc-1", types.BoroughHaringey, types.CategoryHeritage, true, 2)

	writer := NewService(store)
	require.NoError(t, writer.Refresh(context.Background()))

	reader := NewService(store)
	assert.Empty(t, reader.Snapshot().Rows)
	require.NoError(t, reader.Load(context.Background()))
	rows := reader.Rows("Haringey", "heritage")
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].DocumentCount)
}

func TestSnapshotStartsEmpty(t *testing.T) {
	svc := NewService(newTestStore(t))
	snap := svc.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap.Rows)
	assert.Equal(t, 0, snap.TotalDocs)
}
