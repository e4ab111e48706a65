package engine

import (
	"sort"

	"github.com/clearplan/planrag/internal/storage"
)

// FusedScore is a chunk's combined ranking after score fusion
type FusedScore struct {
	ChunkID       string
	VectorScore   float64
	TextScore     float64
	CombinedScore float64
}

// FuseScores merges vector and text rankings into a single list by
// weighted sum. A chunk surfaced by only one ranker contributes zero
// for the other score, so single-source matches still rank but carry
// the full weight penalty. Results are ordered by combined score
// descending, ties broken by chunk ID ascending.
func FuseScores(vectorResults []storage.VectorResult, textResults []storage.TextResult, vectorWeight, textWeight float64) []FusedScore {
	fused := make(map[string]*FusedScore, len(vectorResults)+len(textResults))

	for _, vr := range vectorResults {
		fused[vr.ChunkID] = &FusedScore{
			ChunkID:     vr.ChunkID,
			VectorScore: vr.SimilarityScore,
		}
	}
	for _, tr := range textResults {
		fs, ok := fused[tr.ChunkID]
		if !ok {
			fs = &FusedScore{ChunkID: tr.ChunkID}
			fused[tr.ChunkID] = fs
		}
		fs.TextScore = tr.TrigramScore
	}

	out := make([]FusedScore, 0, len(fused))
	for _, fs := range fused {
		fs.CombinedScore = vectorWeight*fs.VectorScore + textWeight*fs.TextScore
		out = append(out, *fs)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}
