package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhartsell/bidsweep-go/internal/metrics"
	"github.com/mhartsell/bidsweep-go/internal/models"
	"github.com/mhartsell/bidsweep-go/internal/scraper"
)

// RunResult summarizes a single scraper run.
type RunResult struct {
	RunID      string           `json:"run_id"`
	Scraper    string           `json:"scraper"`
	Status     models.RunStatus `json:"status"`
	Found      int              `json:"found"`
	Saved      int              `json:"saved"`
	Duplicates int              `json:"duplicates"`
	Error      string           `json:"error,omitempty"`
	Duration   time.Duration    `json:"duration"`
}

// Manager coordinates scraper adapters against the store. Every run is
// recorded in the run log: created as "running" before the adapter starts
// and resolved to "success" or "failed" when it ends, whatever happens
// in between.
type Manager struct {
	store    Store
	metrics  *metrics.Collector
	adapters map[string]scraper.Adapter
	order    []string // registration order, used for run_all
	mu       sync.RWMutex
}

// NewManager creates a manager with no registered adapters.
// A nil collector disables timing collection.
func NewManager(store Store, collector *metrics.Collector) *Manager {
	return &Manager{
		store:    store,
		metrics:  collector,
		adapters: make(map[string]scraper.Adapter),
	}
}

// Register adds an adapter under its name.
// Registering a second adapter with the same name is an error.
func (m *Manager) Register(a scraper.Adapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := a.Name()
	if _, exists := m.adapters[name]; exists {
		return fmt.Errorf("scraper already registered: %q", name)
	}
	m.adapters[name] = a
	m.order = append(m.order, name)

	slog.Info("scraper registered", "scraper", name)
	return nil
}

// Scrapers returns registered adapter names in registration order.
func (m *Manager) Scrapers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

// RunScraper executes one adapter and records the run. The returned
// result is valid even when err is non-nil: a failed adapter still
// produces a logged, failed run.
func (m *Manager) RunScraper(ctx context.Context, name string) (*RunResult, error) {
	m.mu.RLock()
	adapter, ok := m.adapters[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown scraper: %q", name)
	}

	runID, err := m.store.CreateRun(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	started := time.Now()
	result := &RunResult{RunID: runID, Scraper: name, Status: models.RunStatusRunning}

	slog.Info("scraper run started", "scraper", name, "run_id", runID)

	contracts, scrapeErr := m.scrapeWithRecovery(ctx, adapter)
	if scrapeErr != nil {
		result.Status = models.RunStatusFailed
		result.Error = scrapeErr.Error()
		result.Duration = time.Since(started)
		if dbErr := m.store.FailRun(ctx, runID, scrapeErr.Error()); dbErr != nil {
			slog.Warn("failed to persist run failure", "run_id", runID, "error", dbErr)
		}
		slog.Error("scraper run failed", "scraper", name, "run_id", runID, "error", scrapeErr)
		return result, scrapeErr
	}

	result.Found = len(contracts)
	for _, in := range contracts {
		insStart := time.Now()
		inserted, insErr := m.store.InsertContract(ctx, in)
		if insErr != nil {
			if m.metrics != nil {
				m.metrics.RecordError(metrics.OpInsert)
			}
			slog.Warn("failed to save contract", "scraper", name, "url", in.URL, "error", insErr)
			continue
		}
		if m.metrics != nil {
			m.metrics.RecordTiming(metrics.OpInsert, time.Since(insStart))
		}
		if inserted {
			result.Saved++
		} else {
			result.Duplicates++
		}
	}

	result.Status = models.RunStatusSuccess
	result.Duration = time.Since(started)
	if err := m.store.CompleteRun(ctx, runID, result.Found, result.Saved, result.Duplicates); err != nil {
		slog.Warn("failed to persist run completion", "run_id", runID, "error", err)
	}

	slog.Info("scraper run completed",
		"scraper", name,
		"run_id", runID,
		"found", result.Found,
		"saved", result.Saved,
		"duplicates", result.Duplicates,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// scrapeWithRecovery runs the adapter, converting a panic into an error
// so the run log always resolves.
func (m *Manager) scrapeWithRecovery(ctx context.Context, adapter scraper.Adapter) (contracts []models.ContractInput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal panic: %v", r)
		}
	}()
	return adapter.Scrape(ctx)
}

// RunAll executes every registered adapter in registration order.
// A failing adapter does not stop the remaining ones; its failure is
// recorded in its own run entry and result.
func (m *Manager) RunAll(ctx context.Context) []*RunResult {
	names := m.Scrapers()
	results := make([]*RunResult, 0, len(names))

	for _, name := range names {
		result, err := m.RunScraper(ctx, name)
		if err != nil && result == nil {
			// Run could not even be logged. Synthesize a failed result
			// so callers still see every adapter accounted for.
			result = &RunResult{Scraper: name, Status: models.RunStatusFailed, Error: err.Error()}
		}
		results = append(results, result)
	}

	return results
}

// Logs returns the most recent run entries, newest first.
// A non-positive limit defaults to 20.
func (m *Manager) Logs(ctx context.Context, limit int) ([]models.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return m.store.ListRuns(ctx, limit)
}

// Stats returns aggregated run history per scraper.
func (m *Manager) Stats(ctx context.Context) ([]models.ScraperStats, error) {
	return m.store.AdapterStats(ctx)
}

// ReconcileInterrupted marks runs left in "running" state by a previous
// process as failed. Call once at startup before accepting new runs.
func (m *Manager) ReconcileInterrupted(ctx context.Context) error {
	n, err := m.store.ReconcileInterruptedRuns(ctx)
	if err != nil {
		return fmt.Errorf("reconcile interrupted runs: %w", err)
	}
	if n > 0 {
		slog.Warn("reconciled interrupted runs from previous process", "count", n)
	}
	return nil
}
