package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearplan/planrag/internal/cache"
	"github.com/clearplan/planrag/internal/embedder"
	"github.com/clearplan/planrag/internal/engine"
)

func newSearchCmd() *cobra.Command {
	var (
		borough    string
		category   string
		limit      int
		vectorW    float64
		textW      float64
		noCache    bool
		autoFilter bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search planning guidance",
		Long: `Runs a hybrid search over ingested planning documents, combining
vector similarity with trigram text matching.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			ctx := context.Background()

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			emb, err := embedder.NewFromEnv(cfg.EmbeddingDim)
			if err != nil {
				return fmt.Errorf("configure embedder: %w", err)
			}
			defer func() { _ = emb.Close() }()

			if autoFilter && borough == "" && category == "" {
				if f := engine.DetectFilters(query); f != nil {
					borough, category = f.Borough, f.Category
					if borough != "" {
						cmd.Printf("Detected borough: %s\n", borough)
					}
					if category != "" {
						cmd.Printf("Detected category: %s\n", category)
					}
				}
			}

			queryEmb, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
			if err != nil {
				return fmt.Errorf("embed query: %w", err)
			}

			eng := engine.New(store, cache.NewStoreCache(store, cfg.CacheTTL), cfg.EngineOptions())
			resp, err := eng.Search(ctx, engine.SearchRequest{
				QueryText:      query,
				QueryEmbedding: queryEmb.Vector,
				Borough:        borough,
				Category:       category,
				Limit:          limit,
				VectorWeight:   vectorW,
				TextWeight:     textW,
				BypassCache:    noCache,
			})
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(resp.Results, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(data))
				return nil
			}

			printResults(cmd, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&borough, "borough", "", "restrict results to one borough")
	cmd.Flags().StringVar(&category, "category", "", "restrict results to one category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results")
	cmd.Flags().Float64Var(&vectorW, "vector-weight", 0, "weight for vector similarity")
	cmd.Flags().Float64Var(&textW, "text-weight", 0, "weight for text matching")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the query cache")
	cmd.Flags().BoolVar(&autoFilter, "auto-filter", false, "detect borough and category from the query")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")

	return cmd
}

func printResults(cmd *cobra.Command, resp *engine.SearchResponse) {
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return
	}

	source := "fresh"
	if resp.CacheHit {
		source = "cached"
	}
	cmd.Printf("%d results (%s, %s)\n\n", resp.TotalResults, source, resp.Duration.Round(time.Millisecond))

	for i, r := range resp.Results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.DocumentName, r.CombinedScore)
		location := r.Borough
		if r.PageNumber != nil {
			location = fmt.Sprintf("%s, p.%d", location, *r.PageNumber)
		}
		if r.SectionTitle != nil {
			location = fmt.Sprintf("%s, %s", location, *r.SectionTitle)
		}
		cmd.Printf("      %s\n", location)
		cmd.Printf("      vector %.3f / text %.3f\n", r.VectorScore, r.TextScore)
		cmd.Printf("      %s\n\n", snippet(r.Content, 160))
	}
}

func snippet(content string, max int) string {
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "..."
}
