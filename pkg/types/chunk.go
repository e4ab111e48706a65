package types

import (
	"errors"
	"time"
)

// Chunk is the atomic unit of retrieval: a bounded span of document text
// with an associated embedding vector
type Chunk struct {
	// Identification
	ID         string
	DocumentID string

	// Content
	Content      string
	PageNumber   *int    // Nullable - not all sources are paginated
	SectionTitle *string // Nullable - detected headings only
	ChunkIndex   int     // Ordinal position within the document
	TokenCount   int

	// Embedding
	Embedding []float32
	Dimension int

	Metadata  map[string]any
	CreatedAt time.Time
}

// ComputeTokenCount estimates the number of tokens in a span of text.
// Uses a simple heuristic: characters / 4.
func ComputeTokenCount(text string) int {
	return len(text) / 4
}

// ComputeTokenCount estimates and records the chunk's token count
func (c *Chunk) ComputeTokenCount() int {
	c.TokenCount = ComputeTokenCount(c.Content)
	return c.TokenCount
}

// Validate performs comprehensive validation of the chunk
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return errors.New("chunk ID is required")
	}
	if c.DocumentID == "" {
		return errors.New("chunk document ID is required")
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	if c.ChunkIndex < 0 {
		return errors.New("chunk index must not be negative")
	}
	if len(c.Embedding) == 0 {
		return errors.New("chunk embedding is required")
	}
	if c.Dimension != 0 && c.Dimension != len(c.Embedding) {
		return ErrDimensionMismatch
	}
	return nil
}
