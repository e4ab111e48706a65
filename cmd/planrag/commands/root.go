// Package commands implements the planrag CLI using cobra.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearplan/planrag/internal/config"
	"github.com/clearplan/planrag/internal/logger"
	"github.com/clearplan/planrag/internal/storage"
)

var (
	cfg     *config.Config
	dbPath  string
	verbose bool
)

// NewRootCmd creates the root command with all subcommands registered
func NewRootCmd(version, buildTime string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "planrag",
		Short: "Hybrid retrieval over UK planning guidance",
		Long: `planrag indexes planning documents for London boroughs and answers
queries with hybrid vector and text search.

Examples:
  planrag seed documents.json
  planrag search "basement extension in camden"
  planrag docs list --borough Camden
  planrag stats show
  planrag maintain`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if verbose {
				cfg.Verbose = true
			}
			logger.SetVerbose(cfg.Verbose)
			return nil
		},
	}

	rootCmd.AddCommand(
		newSearchCmd(),
		newSeedCmd(),
		newDocsCmd(),
		newStatsCmd(),
		newCacheCmd(),
		newStatusCmd(),
		newMaintainCmd(),
		newVersionCmd(version, buildTime),
	)

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the database file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	return rootCmd
}

// openStore opens the configured database. Callers must Close it.
func openStore() (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DBPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	return store, nil
}
