package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearplan/planrag/internal/cache"
	"github.com/clearplan/planrag/internal/embedder"
	"github.com/clearplan/planrag/internal/ingest"
	"github.com/clearplan/planrag/internal/stats"
)

func newSeedCmd() *cobra.Command {
	var (
		workers      int
		chunkSize    int
		chunkOverlap int
		skipStats    bool
	)

	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Ingest documents from a JSON seed file",
		Long: `Reads a JSON seed file of documents with pre-extracted page text,
chunks and embeds each one, and loads them into the database.
Cached queries for affected boroughs are invalidated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			ing := ingest.New(store, emb, cache.NewStoreCache(store, cfg.CacheTTL), &ingest.Config{
				Workers:      workers,
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})

			result, err := ing.SeedFromFile(ctx, args[0])
			if err != nil {
				return err
			}

			cmd.Printf("Ingested %d documents (%d chunks) in %s\n",
				result.DocumentsIngested, result.ChunksCreated, result.Duration.Round(time.Millisecond))
			if result.CacheInvalidations > 0 {
				cmd.Printf("Invalidated %d cached queries\n", result.CacheInvalidations)
			}
			if result.DocumentsFailed > 0 {
				cmd.Printf("%d documents failed:\n", result.DocumentsFailed)
				for _, msg := range result.ErrorMessages {
					cmd.Printf("  %s\n", msg)
				}
			}

			if !skipStats && result.DocumentsIngested > 0 {
				if err := stats.NewService(store).Refresh(ctx); err != nil {
					cmd.Printf("Warning: stats refresh failed: %v\n", err)
				} else {
					cmd.Println("Aggregate stats refreshed")
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent embedding batches")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "target tokens per chunk")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "overlap tokens between chunks")
	cmd.Flags().BoolVar(&skipStats, "skip-stats", false, "do not refresh aggregate stats after ingest")

	return cmd
}
