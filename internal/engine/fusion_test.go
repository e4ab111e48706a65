package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clearplan/planrag/internal/storage"
)

func TestFuseScoresWeightedUnion(t *testing.T) {
	vector := []storage.VectorResult{
		{ChunkID: "c1", SimilarityScore: 0.9},
		{ChunkID: "c2", SimilarityScore: 0.5},
	}
	text := []storage.TextResult{
		{ChunkID: "c1", TrigramScore: 0.8},
		{ChunkID: "c3", TrigramScore: 0.6},
	}

	fused := FuseScores(vector, text, 0.7, 0.3)
	assert.Len(t, fused, 3, "union of both rankings")

	byID := map[string]FusedScore{}
	for _, fs := range fused {
		byID[fs.ChunkID] = fs
	}

	assert.InDelta(t, 0.7*0.9+0.3*0.8, byID["c1"].CombinedScore, 1e-9)
	assert.InDelta(t, 0.7*0.5, byID["c2"].CombinedScore, 1e-9, "missing text score contributes zero")
	assert.InDelta(t, 0.3*0.6, byID["c3"].CombinedScore, 1e-9, "missing vector score contributes zero")
	assert.Equal(t, 0.0, byID["c2"].TextScore)
	assert.Equal(t, 0.0, byID["c3"].VectorScore)

	assert.Equal(t, "c1", fused[0].ChunkID)
	assert.Equal(t, "c2", fused[1].ChunkID)
	assert.Equal(t, "c3", fused[2].ChunkID)
}

func TestFuseScoresTieBreakByChunkID(t *testing.T) {
	vector := []storage.VectorResult{
		{ChunkID: "zzz", SimilarityScore: 0.5},
		{ChunkID: "aaa", SimilarityScore: 0.5},
		{ChunkID: "mmm", SimilarityScore: 0.5},
	}

	fused := FuseScores(vector, nil, 1.0, 0.0)
	assert.Equal(t, []string{"aaa", "mmm", "zzz"},
		[]string{fused[0].ChunkID, fused[1].ChunkID, fused[2].ChunkID},
		"equal scores order by chunk ID ascending")
}

func TestFuseScoresEmptyInputs(t *testing.T) {
	fused := FuseScores(nil, nil, 0.7, 0.3)
	assert.Empty(t, fused)

	fused = FuseScores(nil, []storage.TextResult{{ChunkID: "c1", TrigramScore: 0.4}}, 0.7, 0.3)
	assert.Len(t, fused, 1)
	assert.InDelta(t, 0.12, fused[0].CombinedScore, 1e-9)
}

func TestFuseScoresZeroTextWeight(t *testing.T) {
	vector := []storage.VectorResult{{ChunkID: "c1", SimilarityScore: 0.9}}
	text := []storage.TextResult{{ChunkID: "c1", TrigramScore: 1.0}}

	fused := FuseScores(vector, text, 1.0, 0.0)
	assert.InDelta(t, 0.9, fused[0].CombinedScore, 1e-9)
	assert.Equal(t, 1.0, fused[0].TextScore, "raw scores survive even when a weight is zero")
}
