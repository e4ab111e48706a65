package types

// SearchResult is a single ranked chunk returned by the hybrid engine.
// Field tags match the cached JSON payload layout, so a result written
// to the query cache round-trips unchanged.
type SearchResult struct {
	// Identification
	ChunkID      string `json:"chunk_id"`
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Borough      string `json:"borough"`

	// Content
	Content      string  `json:"content"`
	PageNumber   *int    `json:"page_number,omitempty"`
	SectionTitle *string `json:"section_title,omitempty"`

	// Scoring
	VectorScore   float64 `json:"vector_score"`
	TextScore     float64 `json:"text_score"`
	CombinedScore float64 `json:"combined_score"`

	Metadata  map[string]any `json:"metadata,omitempty"`
	FromCache bool           `json:"from_cache"`
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ChunkID == "" {
		return ErrInvalidChunkID
	}
	if sr.DocumentID == "" {
		return ErrInvalidDocumentID
	}
	if sr.Content == "" {
		return ErrEmptyContent
	}
	if sr.CombinedScore < 0 {
		return ErrInvalidScore
	}
	return nil
}
