package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearplan/planrag/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the query cache",
	}
	cmd.AddCommand(newCacheSweepCmd(), newCacheInvalidateCmd())
	return cmd
}

func newCacheSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := cache.NewStoreCache(store, cfg.CacheTTL).Sweep(context.Background(), time.Now())
			if err != nil {
				return err
			}
			cmd.Printf("Swept %d expired entries\n", n)
			return nil
		},
	}
}

func newCacheInvalidateCmd() *cobra.Command {
	var borough string

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Invalidate cached queries",
		Long: `Invalidates cached queries for a borough, including unscoped
queries that may include its documents. Without --borough the whole
cache is invalidated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := cache.NewStoreCache(store, cfg.CacheTTL).InvalidateScope(context.Background(), borough)
			if err != nil {
				return err
			}
			cmd.Printf("Invalidated %d entries\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&borough, "borough", "", "borough scope (empty invalidates everything)")
	return cmd
}
