package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/clearplan/planrag/internal/cache"
	"github.com/clearplan/planrag/internal/chunker"
	"github.com/clearplan/planrag/internal/embedder"
	"github.com/clearplan/planrag/internal/logger"
	"github.com/clearplan/planrag/internal/storage"
	"github.com/clearplan/planrag/pkg/types"
)

// DefaultEmbedBatchSize is the number of chunk texts embedded per
// provider call
const DefaultEmbedBatchSize = embedder.DefaultBatchSize

// Ingestor coordinates the ingestion pipeline: chunk -> embed -> store
type Ingestor struct {
	store    storage.Storage
	embedder embedder.Embedder
	chunker  *chunker.Chunker
	cache    cache.Cache

	workers   int
	batchSize int
}

// Config contains configuration for the ingestor
type Config struct {
	Workers      int // Concurrent embedding batches (default: NumCPU)
	BatchSize    int // Chunk texts per embedding call (default: 50)
	ChunkSize    int // Target tokens per chunk (default: 512)
	ChunkOverlap int // Overlap tokens between chunks (default: 50)
}

// Statistics summarizes an ingestion run
type Statistics struct {
	DocumentsIngested  int
	DocumentsFailed    int
	ChunksCreated      int
	CacheInvalidations int
	Duration           time.Duration
	ErrorMessages      []string
}

// DocumentInput describes one document to ingest
type DocumentInput struct {
	Name      string         `json:"name"`
	Borough   string         `json:"borough"`
	Category  string         `json:"category"`
	SourceURL string         `json:"source_url,omitempty"`
	FilePath  string         `json:"file_path,omitempty"`
	Version   string         `json:"version,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Pages     []PageInput    `json:"pages"`
}

// PageInput is one page of extracted document text
type PageInput struct {
	PageNumber   int    `json:"page_number"`
	SectionTitle string `json:"section_title,omitempty"`
	Content      string `json:"content"`
}

// New creates an Ingestor. The cache may be nil; invalidation is then
// skipped.
func New(store storage.Storage, emb embedder.Embedder, c cache.Cache, config *Config) *Ingestor {
	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &Ingestor{
		store:     store,
		embedder:  emb,
		chunker:   chunker.New(config.ChunkSize, config.ChunkOverlap),
		cache:     c,
		workers:   workers,
		batchSize: batchSize,
	}
}

// SeedFromFile ingests every document in a JSON seed file. Failures
// are per-document; one bad document does not abort the rest.
func (ing *Ingestor) SeedFromFile(ctx context.Context, path string) (*Statistics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var inputs []DocumentInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}

	for i := range inputs {
		doc, err := ing.IngestDocument(ctx, &inputs[i])
		if err != nil {
			stats.DocumentsFailed++
			stats.ErrorMessages = append(stats.ErrorMessages,
				fmt.Sprintf("%s: %v", inputs[i].Name, err))
			continue
		}
		stats.DocumentsIngested++
		stats.ChunksCreated += doc.TotalChunks
	}

	if stats.DocumentsIngested > 0 {
		stats.CacheInvalidations = ing.invalidateForDocuments(ctx, inputs)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// IngestDocument chunks, embeds, and stores one document. The
// document and all its chunks commit in a single transaction, so a
// partially ingested document is never visible to search.
func (ing *Ingestor) IngestDocument(ctx context.Context, input *DocumentInput) (*types.Document, error) {
	doc := &types.Document{
		ID:        uuid.NewString(),
		Name:      input.Name,
		Borough:   types.Borough(input.Borough),
		Category:  types.Category(input.Category),
		SourceURL: input.SourceURL,
		FilePath:  input.FilePath,
		Version:   input.Version,
		Metadata:  input.Metadata,
		IsActive:  true,
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidInput, err)
	}
	if len(input.Pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", types.ErrInvalidInput)
	}

	pages := make([]chunker.Page, len(input.Pages))
	maxPage := 0
	for i, p := range input.Pages {
		pages[i] = chunker.Page{
			Content:      p.Content,
			PageNumber:   p.PageNumber,
			SectionTitle: p.SectionTitle,
		}
		if p.PageNumber > maxPage {
			maxPage = p.PageNumber
		}
	}

	textChunks := ing.chunker.ChunkPages(pages)
	if len(textChunks) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", types.ErrInvalidInput)
	}

	embeddings, err := ing.embedChunks(ctx, textChunks)
	if err != nil {
		return nil, err
	}

	chunks := make([]*types.Chunk, len(textChunks))
	for i, tc := range textChunks {
		chunks[i] = &types.Chunk{
			ID:           uuid.NewString(),
			DocumentID:   doc.ID,
			Content:      tc.Content,
			PageNumber:   tc.PageNumber,
			SectionTitle: tc.SectionTitle,
			ChunkIndex:   tc.ChunkIndex,
			TokenCount:   tc.TokenCount,
			Embedding:    embeddings[i].Vector,
			Dimension:    embeddings[i].Dimension,
		}
	}

	doc.TotalPages = maxPage
	doc.TotalChunks = len(chunks)

	if err := ing.store.InsertDocumentWithChunks(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("store document %q: %w", doc.Name, err)
	}

	logger.Info("ingested %q (%s/%s): %d chunks", doc.Name, doc.Borough, doc.Category, len(chunks))
	return doc, nil
}

// embedChunks generates embeddings for all chunk texts, running
// batches concurrently
func (ing *Ingestor) embedChunks(ctx context.Context, textChunks []chunker.TextChunk) ([]*embedder.Embedding, error) {
	embeddings := make([]*embedder.Embedding, len(textChunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.workers)

	for start := 0; start < len(textChunks); start += ing.batchSize {
		start := start
		end := start + ing.batchSize
		if end > len(textChunks) {
			end = len(textChunks)
		}
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := start; i < end; i++ {
				texts[i-start] = textChunks[i].Content
			}
			resp, err := ing.embedder.GenerateBatch(gctx, embedder.BatchEmbeddingRequest{Texts: texts})
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(resp.Embeddings) != end-start {
				return fmt.Errorf("%w: got %d embeddings for %d texts",
					embedder.ErrProviderFailed, len(resp.Embeddings), end-start)
			}
			copy(embeddings[start:end], resp.Embeddings)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// invalidateForDocuments invalidates cached queries for each borough
// touched by the ingested documents. Invalidation is best-effort;
// stale entries also age out via TTL.
func (ing *Ingestor) invalidateForDocuments(ctx context.Context, inputs []DocumentInput) int {
	if ing.cache == nil {
		return 0
	}

	boroughs := make(map[string]struct{})
	for i := range inputs {
		boroughs[inputs[i].Borough] = struct{}{}
	}

	var total int64
	var wg sync.WaitGroup
	for borough := range boroughs {
		wg.Add(1)
		go func(b string) {
			defer wg.Done()
			n, err := ing.cache.InvalidateScope(ctx, b)
			if err != nil {
				logger.Warn("cache invalidation for %s failed: %v", b, err)
				return
			}
			atomic.AddInt64(&total, int64(n))
		}(borough)
	}
	wg.Wait()
	return int(total)
}
