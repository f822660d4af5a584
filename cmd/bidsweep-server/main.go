// Package main provides the long-running bidsweep server: the admin
// HTTP API plus the daily scrape scheduler.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhartsell/bidsweep-go/internal/config"
	"github.com/mhartsell/bidsweep-go/internal/db"
	"github.com/mhartsell/bidsweep-go/internal/fetch"
	"github.com/mhartsell/bidsweep-go/internal/metrics"
	"github.com/mhartsell/bidsweep-go/internal/scraper"
	"github.com/mhartsell/bidsweep-go/internal/server"
	"github.com/mhartsell/bidsweep-go/internal/service"
	"github.com/mhartsell/bidsweep-go/internal/sources"
)

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, closeLogs := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	slog.SetDefault(logger)
	defer func() {
		if err := closeLogs(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}()

	slog.Info("starting bidsweep-server", "addr", cfg.ServerAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, logger)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	if *wipeDB || os.Getenv("BIDSWEEP_WIPE_DB") == "true" {
		if err := dbClient.WipeData(ctx); err != nil {
			cancel()
			slog.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}

	if err := dbClient.InitSchema(ctx); err != nil {
		cancel()
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector()
	manager, err := buildManager(cfg, dbClient, collector, logger)
	if err != nil {
		cancel()
		slog.Error("failed to build scrapers", "error", err)
		os.Exit(1)
	}

	if err := manager.ReconcileInterrupted(ctx); err != nil {
		cancel()
		slog.Error("failed to reconcile interrupted runs", "error", err)
		os.Exit(1)
	}
	cancel()

	srv := server.New(cfg.ServerAddr, manager, collector, logger)
	go func() {
		if err := srv.Run(); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	scheduler := service.NewScheduler(manager, cfg.ScheduleHour, cfg.ScheduleMinute)
	scheduler.Start()
	slog.Info("daily scrape scheduled", "hour", cfg.ScheduleHour, "minute", cfg.ScheduleMinute)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func buildManager(cfg config.Config, dbClient *db.Client, collector *metrics.Collector, logger *slog.Logger) (*service.Manager, error) {
	factory := func() *fetch.Client {
		return fetch.NewClient(fetch.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.RequestTimeout,
			MinDelay:  cfg.RequestDelay,
			Metrics:   collector,
			Logger:    logger,
		})
	}

	regions, err := sources.LoadRegions(cfg.RegionsFile)
	if err != nil {
		return nil, err
	}
	boards, err := sources.LoadLocalBoards(cfg.LocalBoardsFile)
	if err != nil {
		return nil, err
	}

	manager := service.NewManager(dbClient, collector)
	adapters := []scraper.Adapter{
		scraper.NewStatePortal(scraper.DefaultStatePortalConfig(), factory, logger),
		scraper.NewRegions(regions, cfg.RegionWorkers, factory, logger),
		scraper.NewLocalBoards(boards, factory, logger),
	}
	for _, a := range adapters {
		if err := manager.Register(a); err != nil {
			return nil, err
		}
	}
	return manager, nil
}
