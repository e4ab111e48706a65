package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/clearplan/planrag/internal/cache"
	"github.com/clearplan/planrag/internal/logger"
	"github.com/clearplan/planrag/internal/stats"
)

func newMaintainCmd() *cobra.Command {
	var (
		refreshSpec string
		sweepSpec   string
		runOnce     bool
	)

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run scheduled maintenance",
		Long: `Runs the background maintenance loop: periodic aggregate stats
refresh and expired cache sweeps. Stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := stats.NewService(store)
			qc := cache.NewStoreCache(store, cfg.CacheTTL)

			refresh := func() {
				if err := svc.Refresh(ctx); err != nil {
					logger.Warn("scheduled stats refresh failed: %v", err)
					return
				}
				logger.Info("stats refreshed")
			}
			sweep := func() {
				n, err := qc.Sweep(ctx, time.Now())
				if err != nil {
					logger.Warn("scheduled cache sweep failed: %v", err)
					return
				}
				logger.Info("cache sweep removed %d entries", n)
			}

			// Both also run at startup so a fresh database is usable
			// immediately.
			refresh()
			sweep()

			if runOnce {
				cmd.Println("Maintenance complete")
				return nil
			}

			c := cron.New()
			if _, err := c.AddFunc(refreshSpec, refresh); err != nil {
				return err
			}
			if _, err := c.AddFunc(sweepSpec, sweep); err != nil {
				return err
			}
			c.Start()
			defer c.Stop()

			cmd.Printf("Maintenance running (refresh %q, sweep %q), Ctrl-C to stop\n",
				refreshSpec, sweepSpec)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan
			cmd.Println("Stopping")
			return nil
		},
	}

	cmd.Flags().StringVar(&refreshSpec, "refresh-cron", "@every 15m", "cron spec for stats refresh")
	cmd.Flags().StringVar(&sweepSpec, "sweep-cron", "@hourly", "cron spec for cache sweeps")
	cmd.Flags().BoolVar(&runOnce, "once", false, "run one refresh and sweep, then exit")

	return cmd
}
