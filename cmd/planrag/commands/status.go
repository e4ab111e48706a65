package commands

import (
	"context"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			status, err := store.Status(context.Background())
			if err != nil {
				return err
			}

			cmd.Printf("Database: %s (%.2f MB)\n", cfg.DBPath, status.DatabaseSizeMB)
			cmd.Printf("Embedding dimension: %d\n", status.EmbeddingDim)
			cmd.Printf("Documents: %d (%d active)\n", status.Documents, status.ActiveDocuments)
			cmd.Printf("Chunks: %d\n", status.Chunks)
			cmd.Printf("Cache entries: %d (%d servable)\n", status.CacheEntries, status.ValidCacheRows)
			cmd.Printf("Stats rows: %d\n", status.StatRows)
			return nil
		},
	}
}
