package storage

import (
	"context"
	"time"

	"github.com/clearplan/planrag/pkg/types"
)

// Storage defines the interface for persisting and querying planning
// document chunks, the query cache, and aggregate statistics
type Storage interface {
	// Document operations
	InsertDocument(ctx context.Context, doc *types.Document) error
	InsertDocumentWithChunks(ctx context.Context, doc *types.Document, chunks []*types.Chunk) error
	GetDocument(ctx context.Context, documentID string) (*types.Document, error)
	ListDocuments(ctx context.Context, filters *SearchFilters, activeOnly bool) ([]*types.Document, error)
	SetDocumentActive(ctx context.Context, documentID string, active bool) error
	DeleteDocument(ctx context.Context, documentID string) error

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *types.Chunk) error
	GetChunk(ctx context.Context, chunkID string) (*types.Chunk, error)
	GetChunkDetails(ctx context.Context, chunkIDs []string) (map[string]*ChunkDetail, error)
	ListChunksByDocument(ctx context.Context, documentID string) ([]*types.Chunk, error)

	// Search operations
	SearchVector(ctx context.Context, queryVector []float32, limit int, filters *SearchFilters) ([]VectorResult, error)
	SearchText(ctx context.Context, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Query cache operations
	PutCacheEntry(ctx context.Context, entry *CacheEntry) error
	LookupCache(ctx context.Context, fingerprint []byte, borough string) (*CacheEntry, error)
	GetCacheEntry(ctx context.Context, fingerprint []byte, borough string) (*CacheEntry, error)
	TouchCacheEntry(ctx context.Context, fingerprint []byte, borough string) error
	InvalidateCacheEntry(ctx context.Context, fingerprint []byte, borough string) error
	InvalidateCacheScope(ctx context.Context, borough string) (int, error)
	SweepExpiredCache(ctx context.Context, now time.Time) (int, error)

	// Aggregate stats operations
	ComputeAggregateStats(ctx context.Context) ([]AggregateStat, error)
	ReplaceAggregateStats(ctx context.Context, stats []AggregateStat) error
	ListAggregateStats(ctx context.Context, borough, category string) ([]AggregateStat, error)

	// Database operations
	Status(ctx context.Context) (*Status, error)
	Dimension() int
	Close() error
}

// SearchFilters narrows candidate sets to a borough and/or category.
// Empty fields match everything. Inactive documents are always excluded.
type SearchFilters struct {
	Borough  string
	Category string
}

// VectorResult represents a result from vector similarity search
type VectorResult struct {
	ChunkID         string
	SimilarityScore float64 // 1 - cosine distance, higher is better
}

// TextResult represents a result from trigram text search
type TextResult struct {
	ChunkID      string
	TrigramScore float64 // normalized to [0, 1], higher is better
}

// ChunkDetail carries the chunk fields needed to assemble a search
// result, joined with its owning document
type ChunkDetail struct {
	ChunkID      string
	DocumentID   string
	DocumentName string
	Borough      string
	Content      string
	PageNumber   *int
	SectionTitle *string
	Metadata     map[string]any
}

// CacheEntry is one row of the persistent query cache. An entry is
// servable while IsValid and ExpiresAt is in the future; expired or
// invalidated rows are treated as absent until a sweep removes them.
type CacheEntry struct {
	ID              int64
	Fingerprint     []byte // sha256 of normalized query (+ borough scope)
	QueryText       string
	NormalizedQuery string
	Borough         string // empty string means unscoped
	Payload         []byte // serialized fused result set
	HitCount        int
	IsValid         bool
	CreatedAt       time.Time
	ExpiresAt       time.Time
	LastHitAt       *time.Time
}

// AggregateStat is a precomputed rollup for one (borough, category)
// pair, covering active documents only
type AggregateStat struct {
	Borough       string
	Category      string
	DocumentCount int
	TotalChunks   int
	TotalPages    int
	LastUpdated   time.Time
}

// Status contains statistics about the store
type Status struct {
	Documents       int
	ActiveDocuments int
	Chunks          int
	CacheEntries    int
	ValidCacheRows  int
	StatRows        int
	DatabaseSizeMB  float64
	EmbeddingDim    int
}
