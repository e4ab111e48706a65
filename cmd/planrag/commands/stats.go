package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/clearplan/planrag/internal/stats"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate corpus statistics",
	}
	cmd.AddCommand(newStatsShowCmd(), newStatsRefreshCmd())
	return cmd
}

func newStatsShowCmd() *cobra.Command {
	var (
		borough  string
		category string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show aggregate statistics per borough and category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := stats.NewService(store)
			if err := svc.Load(ctx); err != nil {
				return err
			}

			rows := svc.Rows(borough, category)
			if len(rows) == 0 {
				cmd.Println("No statistics available. Run 'planrag stats refresh' first.")
				return nil
			}

			for _, row := range rows {
				cmd.Printf("%-12s %-32s %3d docs  %5d chunks  %5d pages\n",
					row.Borough, row.Category, row.DocumentCount, row.TotalChunks, row.TotalPages)
			}

			snap := svc.Snapshot()
			cmd.Printf("\nTotal: %d documents, %d chunks\n", snap.TotalDocs, snap.TotalChunks)
			return nil
		},
	}

	cmd.Flags().StringVar(&borough, "borough", "", "filter by borough")
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	return cmd
}

func newStatsRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute aggregate statistics from the live corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := stats.NewService(store)
			if err := svc.Refresh(context.Background()); err != nil {
				return err
			}

			snap := svc.Snapshot()
			cmd.Printf("Refreshed: %d rows, %d documents, %d chunks\n",
				len(snap.Rows), snap.TotalDocs, snap.TotalChunks)
			return nil
		},
	}
}
