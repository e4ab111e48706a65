package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clearplan/planrag/internal/cache"
	"github.com/clearplan/planrag/internal/logger"
	"github.com/clearplan/planrag/internal/storage"
	"github.com/clearplan/planrag/pkg/types"
)

const (
	// DefaultVectorWeight and DefaultTextWeight are applied when a
	// request leaves both weights unset
	DefaultVectorWeight = 0.7
	DefaultTextWeight   = 0.3

	// DefaultLimit is the result count when the request omits one
	DefaultLimit = 20
	// MaxLimit caps the result count for any request
	MaxLimit = 100
)

// Options configures an Engine
type Options struct {
	VectorWeight float64
	TextWeight   float64
	DefaultLimit int
	MaxLimit     int
	CacheTTL     time.Duration
	// RecordBypassHits counts a cache hit even when the request
	// bypasses the cache, keeping hit statistics meaningful for
	// freshness-sensitive callers.
	RecordBypassHits bool
}

// SearchRequest contains parameters for a hybrid search
type SearchRequest struct {
	QueryText      string
	QueryEmbedding []float32
	Borough        string
	Category       string
	Limit          int
	VectorWeight   float64
	TextWeight     float64
	BypassCache    bool
	CacheTTL       time.Duration
}

// SearchResponse contains fused results and search metadata
type SearchResponse struct {
	Results       []types.SearchResult
	TotalResults  int
	Duration      time.Duration
	CacheHit      bool
	VectorMatches int
	TextMatches   int
}

// Engine coordinates the similarity and lexical rankers, fuses their
// scores, and fronts the whole pipeline with the query cache
type Engine struct {
	store storage.Storage
	cache cache.Cache
	opts  Options
}

// New creates an Engine over the given store and cache. A nil cache
// disables caching entirely.
func New(store storage.Storage, c cache.Cache, opts Options) *Engine {
	if opts.VectorWeight == 0 && opts.TextWeight == 0 {
		opts.VectorWeight = DefaultVectorWeight
		opts.TextWeight = DefaultTextWeight
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = MaxLimit
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DefaultTTL
	}
	return &Engine{store: store, cache: c, opts: opts}
}

// Search runs the full hybrid pipeline for the request: cache probe,
// parallel vector and text ranking, weighted fusion, result assembly,
// and cache write-back
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := e.validateRequest(&req); err != nil {
		return nil, err
	}

	key := cache.NewKey(req.QueryText, req.Borough)

	if e.cache != nil {
		if req.BypassCache {
			if e.opts.RecordBypassHits {
				if err := e.cache.Touch(ctx, key); err != nil {
					logger.Warn("cache touch failed: %v", err)
				}
			}
		} else {
			resp, err := e.probeCache(ctx, key)
			if err == nil {
				resp.Duration = time.Since(startTime)
				return resp, nil
			}
			if !errors.Is(err, cache.ErrMiss) {
				logger.Warn("cache lookup failed: %v", err)
			}
		}
	}

	resp, err := e.rankAndFuse(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Duration = time.Since(startTime)

	if e.cache != nil && !req.BypassCache {
		if err := e.storeInCache(ctx, key, req, resp); err != nil {
			logger.Warn("cache store failed: %v", err)
		}
	}

	return resp, nil
}

// rankerResult carries one ranker's output across its channel
type rankerResult struct {
	vectorResults []storage.VectorResult
	textResults   []storage.TextResult
	err           error
}

func (e *Engine) runVectorRanker(ctx context.Context, req SearchRequest, filters *storage.SearchFilters, out chan<- rankerResult) {
	var res rankerResult
	res.vectorResults, res.err = e.store.SearchVector(ctx, req.QueryEmbedding, req.Limit*2, filters)
	select {
	case out <- res:
	case <-ctx.Done():
	}
}

func (e *Engine) runTextRanker(ctx context.Context, req SearchRequest, filters *storage.SearchFilters, out chan<- rankerResult) {
	var res rankerResult
	res.textResults, res.err = e.store.SearchText(ctx, req.QueryText, req.Limit*2, filters)
	select {
	case out <- res:
	case <-ctx.Done():
	}
}

func (e *Engine) rankAndFuse(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	filters := searchFilters(req)

	vectorChan := make(chan rankerResult, 1)
	textChan := make(chan rankerResult, 1)

	go e.runVectorRanker(ctx, req, filters, vectorChan)
	go e.runTextRanker(ctx, req, filters, textChan)

	var vectorRes, textRes rankerResult
	var vectorDone, textDone bool
	for !vectorDone || !textDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case textRes = <-textChan:
			textDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Partial results would silently skew fused scores, so either
	// ranker failing fails the whole search.
	if vectorRes.err != nil {
		return nil, fmt.Errorf("vector search: %w", vectorRes.err)
	}
	if textRes.err != nil {
		return nil, fmt.Errorf("text search: %w", textRes.err)
	}

	fused := FuseScores(vectorRes.vectorResults, textRes.textResults, req.VectorWeight, req.TextWeight)
	results, err := e.assembleResults(ctx, fused, req.Limit)
	if err != nil {
		return nil, err
	}

	return &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		VectorMatches: len(vectorRes.vectorResults),
		TextMatches:   len(textRes.textResults),
	}, nil
}

// assembleResults loads chunk and document details for the top fused
// scores and builds the final result list
func (e *Engine) assembleResults(ctx context.Context, fused []FusedScore, limit int) ([]types.SearchResult, error) {
	if limit > len(fused) {
		limit = len(fused)
	}
	if limit == 0 {
		return []types.SearchResult{}, nil
	}

	ids := make([]string, limit)
	for i := 0; i < limit; i++ {
		ids[i] = fused[i].ChunkID
	}

	details, err := e.store.GetChunkDetails(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunk details: %w", err)
	}

	results := make([]types.SearchResult, 0, limit)
	for i := 0; i < limit; i++ {
		fs := fused[i]
		d, ok := details[fs.ChunkID]
		if !ok {
			// Chunk deleted between ranking and assembly.
			continue
		}
		results = append(results, types.SearchResult{
			ChunkID:       fs.ChunkID,
			DocumentID:    d.DocumentID,
			DocumentName:  d.DocumentName,
			Borough:       d.Borough,
			Content:       d.Content,
			PageNumber:    d.PageNumber,
			SectionTitle:  d.SectionTitle,
			VectorScore:   fs.VectorScore,
			TextScore:     fs.TextScore,
			CombinedScore: fs.CombinedScore,
			Metadata:      d.Metadata,
		})
	}
	return results, nil
}

func (e *Engine) probeCache(ctx context.Context, key cache.Key) (*SearchResponse, error) {
	entry, err := e.cache.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	var results []types.SearchResult
	if err := json.Unmarshal(entry.Payload, &results); err != nil {
		return nil, fmt.Errorf("decode cached payload: %w", err)
	}
	for i := range results {
		results[i].FromCache = true
	}
	return &SearchResponse{
		Results:      results,
		TotalResults: len(results),
		CacheHit:     true,
	}, nil
}

func (e *Engine) storeInCache(ctx context.Context, key cache.Key, req SearchRequest, resp *SearchResponse) error {
	payload, err := json.Marshal(resp.Results)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	ttl := req.CacheTTL
	if ttl <= 0 {
		ttl = e.opts.CacheTTL
	}
	return e.cache.Store(ctx, key, &cache.Entry{
		QueryText:       req.QueryText,
		NormalizedQuery: cache.Normalize(req.QueryText),
		Payload:         payload,
		ExpiresAt:       time.Now().Add(ttl),
	})
}

// validateRequest checks and normalizes a search request in place
func (e *Engine) validateRequest(req *SearchRequest) error {
	if req.QueryText == "" {
		return fmt.Errorf("%w: query text is required", types.ErrInvalidInput)
	}
	if len(req.QueryEmbedding) == 0 {
		return fmt.Errorf("%w: query embedding is required", types.ErrInvalidInput)
	}
	if req.VectorWeight < 0 || req.TextWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", types.ErrInvalidInput)
	}
	if req.Borough != "" && !types.Borough(req.Borough).Valid() {
		return fmt.Errorf("%w: unknown borough %q", types.ErrInvalidInput, req.Borough)
	}
	if req.Category != "" && !types.Category(req.Category).Valid() {
		return fmt.Errorf("%w: unknown category %q", types.ErrInvalidInput, req.Category)
	}

	if req.VectorWeight == 0 && req.TextWeight == 0 {
		req.VectorWeight = e.opts.VectorWeight
		req.TextWeight = e.opts.TextWeight
	}
	if req.Limit <= 0 {
		req.Limit = e.opts.DefaultLimit
	}
	if req.Limit > e.opts.MaxLimit {
		req.Limit = e.opts.MaxLimit
	}
	return nil
}

func searchFilters(req SearchRequest) *storage.SearchFilters {
	if req.Borough == "" && req.Category == "" {
		return nil
	}
	return &storage.SearchFilters{Borough: req.Borough, Category: req.Category}
}
