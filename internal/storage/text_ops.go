package storage

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// MinTrigramSimilarity is the store-wide floor for lexical matches.
// Chunks scoring below it are excluded from the candidate set entirely
// rather than returned with a low score.
const MinTrigramSimilarity = 0.1

// SearchText returns up to limit candidate chunks ranked by trigram
// similarity between the query text and chunk content, restricted to
// active documents matching the filters. Scoring runs in Go over the
// filtered candidate rows, so it behaves identically under both SQLite
// drivers. Ties are broken by ascending chunk id.
func (s *SQLiteStorage) SearchText(ctx context.Context, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	if limit <= 0 {
		return []TextResult{}, nil
	}

	queryTrigrams := extractTrigrams(query)
	if len(queryTrigrams) == 0 {
		return []TextResult{}, nil
	}

	sqlQuery := `
		SELECT c.id, c.content
		FROM chunks c
		INNER JOIN documents d ON c.document_id = d.id
		WHERE d.is_active = 1
	`
	args := make([]interface{}, 0, 2)
	sqlQuery, args = applyFilters(sqlQuery, args, filters)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk contents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]candidate, 0, 256)
	for rows.Next() {
		var chunkID, content string
		if err := rows.Scan(&chunkID, &content); err != nil {
			return nil, err
		}

		score := trigramSimilarity(queryTrigrams, extractTrigrams(content))
		if score < MinTrigramSimilarity {
			continue
		}
		candidates = append(candidates, candidate{chunkID: chunkID, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortCandidates(candidates)

	if limit > len(candidates) {
		limit = len(candidates)
	}
	results := make([]TextResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = TextResult{
			ChunkID:      candidates[i].chunkID,
			TrigramScore: candidates[i].score,
		}
	}
	return results, nil
}

// extractTrigrams produces the trigram set of a text. Words are
// lowercased, non-alphanumeric runes act as separators, and each word
// is padded with two leading and one trailing space before slicing,
// matching the pg_trgm convention.
func extractTrigrams(text string) map[string]struct{} {
	trigrams := make(map[string]struct{})
	for _, word := range splitWords(text) {
		padded := "  " + word + " "
		for i := 0; i+3 <= len(padded); i++ {
			trigrams[padded[i:i+3]] = struct{}{}
		}
	}
	return trigrams
}

// splitWords lowercases and splits on non-alphanumeric runes
func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// trigramSimilarity scores how much of the query's trigram set the
// content covers: |query ∩ content| / |query|. Query-coverage rather
// than symmetric Jaccard keeps short queries against long chunks in a
// usable range; a chunk containing every query word scores 1.0.
func trigramSimilarity(query, content map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	matched := 0
	for trigram := range query {
		if _, ok := content[trigram]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}

// ExtractTrigrams is an exported helper for testing
func ExtractTrigrams(text string) map[string]struct{} {
	return extractTrigrams(text)
}

// TrigramSimilarity is an exported helper for testing
func TrigramSimilarity(query, content string) float64 {
	return trigramSimilarity(extractTrigrams(query), extractTrigrams(content))
}
