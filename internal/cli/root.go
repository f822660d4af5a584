// Package cli provides the command-line interface for bidsweep.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhartsell/bidsweep-go/internal/config"
	"github.com/mhartsell/bidsweep-go/internal/db"
	"github.com/mhartsell/bidsweep-go/internal/fetch"
	"github.com/mhartsell/bidsweep-go/internal/metrics"
	"github.com/mhartsell/bidsweep-go/internal/scraper"
	"github.com/mhartsell/bidsweep-go/internal/service"
	"github.com/mhartsell/bidsweep-go/internal/sources"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Shared state built by PersistentPreRunE
	cfg         config.Config
	dbClient    *db.Client
	collector   *metrics.Collector
	manager     *service.Manager
	localBoards *scraper.LocalBoards
	closeLogs   func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bidsweep",
	Short: "Government cleaning contract acquisition engine",
	Long: `Bidsweep discovers janitorial and custodial service solicitations from
government procurement sources: the state marketplace, regional portals
across all states, and local city/county bid boards.

Discovered contracts are deduplicated and stored in SurrealDB; every
scraper run is recorded in a run log for auditing.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}

		logger, closer := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		slog.SetDefault(logger)
		closeLogs = closer

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		manager, err = buildManager()
		if err != nil {
			return err
		}

		// Resolve any runs orphaned by a previous crash before starting new ones
		return manager.ReconcileInterrupted(ctx)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLogs != nil {
			_ = closeLogs()
		}
	},
}

// buildManager wires the scraper adapters against the database.
func buildManager() (*service.Manager, error) {
	collector = metrics.NewCollector()

	// Each call hands out an independent client so adapters and
	// parallel workers never share a rate-limit clock.
	factory := func() *fetch.Client {
		return fetch.NewClient(fetch.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.RequestTimeout,
			MinDelay:  cfg.RequestDelay,
			Metrics:   collector,
		})
	}

	regions, err := sources.LoadRegions(cfg.RegionsFile)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	boards, err := sources.LoadLocalBoards(cfg.LocalBoardsFile)
	if err != nil {
		return nil, fmt.Errorf("load local boards: %w", err)
	}
	localBoards = scraper.NewLocalBoards(boards, factory, nil)

	m := service.NewManager(dbClient, collector)
	for _, a := range []scraper.Adapter{
		scraper.NewStatePortal(scraper.DefaultStatePortalConfig(), factory, nil),
		scraper.NewRegions(regions, cfg.RegionWorkers, factory, nil),
		localBoards,
	} {
		if err := m.Register(a); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
