package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartsell/bidsweep-go/internal/metrics"
	"github.com/mhartsell/bidsweep-go/internal/models"
)

// fakeStore is an in-memory Store for manager tests.
type fakeStore struct {
	mu        sync.Mutex
	runs      []*models.ScrapeRun
	seen      map[string]bool
	lastLimit int
	insertErr error
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: make(map[string]bool)}
}

func (f *fakeStore) InsertContract(_ context.Context, in models.ContractInput) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	key := in.DedupKey()
	if key == "" {
		return true, nil
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeStore) CreateRun(_ context.Context, scraper string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	id := fmt.Sprintf("run-%d", len(f.runs)+1)
	f.runs = append(f.runs, &models.ScrapeRun{
		Scraper:   scraper,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now(),
	})
	f.runs[len(f.runs)-1].ID.ID = id
	return id, nil
}

func (f *fakeStore) CompleteRun(_ context.Context, id string, found, saved, duplicates int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.findRun(id)
	if run == nil {
		return errors.New("run not found")
	}
	now := time.Now()
	run.Status = models.RunStatusSuccess
	run.Found = found
	run.Saved = saved
	run.Duplicates = duplicates
	run.CompletedAt = &now
	return nil
}

func (f *fakeStore) FailRun(_ context.Context, id string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.findRun(id)
	if run == nil {
		return errors.New("run not found")
	}
	now := time.Now()
	run.Status = models.RunStatusFailed
	run.Error = &errMsg
	run.CompletedAt = &now
	return nil
}

func (f *fakeStore) ListRuns(_ context.Context, limit int) ([]models.ScrapeRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	out := make([]models.ScrapeRun, 0, len(f.runs))
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.runs[i])
	}
	return out, nil
}

func (f *fakeStore) AdapterStats(_ context.Context) ([]models.ScraperStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byName := make(map[string]*models.ScraperStats)
	var order []string
	for _, run := range f.runs {
		st, ok := byName[run.Scraper]
		if !ok {
			st = &models.ScraperStats{Scraper: run.Scraper}
			byName[run.Scraper] = st
			order = append(order, run.Scraper)
		}
		st.TotalRuns++
		switch run.Status {
		case models.RunStatusSuccess:
			st.Successful++
			st.TotalSaved += run.Saved
		case models.RunStatusFailed:
			st.Failed++
		}
	}
	out := make([]models.ScraperStats, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (f *fakeStore) ReconcileInterruptedRuns(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, run := range f.runs {
		if run.Status == models.RunStatusRunning {
			msg := "interrupted by process restart"
			run.Status = models.RunStatusFailed
			run.Error = &msg
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) findRun(id string) *models.ScrapeRun {
	for _, run := range f.runs {
		if run.ID.ID == id {
			return run
		}
	}
	return nil
}

// stubAdapter returns canned contracts or a canned failure.
type stubAdapter struct {
	name      string
	contracts []models.ContractInput
	err       error
	panics    bool
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Scrape(context.Context) ([]models.ContractInput, error) {
	if s.panics {
		panic("nil selector")
	}
	return s.contracts, s.err
}

func contractWithNumber(num string) models.ContractInput {
	return models.ContractInput{
		Title:              "Custodial Services",
		Agency:             "City of Testville",
		URL:                "https://example.org/" + num,
		SolicitationNumber: &num,
		Source:             "stub",
	}
}

func TestRunScraperSuccess(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)
	require.NoError(t, m.Register(&stubAdapter{
		name: "stub",
		contracts: []models.ContractInput{
			contractWithNumber("RFP-1"),
			contractWithNumber("RFP-2"),
			contractWithNumber("RFP-1"), // repeated in the same batch
		},
	}))

	result, err := m.RunScraper(context.Background(), "stub")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusSuccess, result.Status)
	assert.Equal(t, 3, result.Found)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 1, result.Duplicates)

	runs, err := m.Logs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusSuccess, runs[0].Status)
	assert.NotNil(t, runs[0].CompletedAt)
}

func TestRunScraperRecordsInsertMetrics(t *testing.T) {
	store := newFakeStore()
	collector := metrics.NewCollector()
	m := NewManager(store, collector)
	require.NoError(t, m.Register(&stubAdapter{
		name: "stub",
		contracts: []models.ContractInput{
			contractWithNumber("RFP-1"),
			contractWithNumber("RFP-2"),
			contractWithNumber("RFP-1"),
		},
	}))

	_, err := m.RunScraper(context.Background(), "stub")
	require.NoError(t, err)

	// Every insert attempt is timed, duplicates included.
	snap := collector.Snapshot()
	require.Contains(t, snap.Operations, metrics.OpInsert)
	assert.Equal(t, int64(3), snap.Operations[metrics.OpInsert].Count)
	assert.Equal(t, int64(0), snap.Operations[metrics.OpInsert].Errors)

	store.insertErr = errors.New("connection reset")
	_, err = m.RunScraper(context.Background(), "stub")
	require.NoError(t, err, "insert failures fail contracts, not the run")

	snap = collector.Snapshot()
	assert.Equal(t, int64(3), snap.Operations[metrics.OpInsert].Errors)
}

func TestRunScraperAdapterFailure(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)
	require.NoError(t, m.Register(&stubAdapter{name: "broken", err: errors.New("listing page moved")}))

	result, err := m.RunScraper(context.Background(), "broken")
	require.Error(t, err)
	require.NotNil(t, result, "failed runs still produce a result")
	assert.Equal(t, models.RunStatusFailed, result.Status)
	assert.Contains(t, result.Error, "listing page moved")

	runs, err := m.Logs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Error)
	assert.Contains(t, *runs[0].Error, "listing page moved")
}

func TestRunScraperPanicBecomesFailedRun(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)
	require.NoError(t, m.Register(&stubAdapter{name: "panicky", panics: true}))

	result, err := m.RunScraper(context.Background(), "panicky")
	require.Error(t, err)
	assert.Equal(t, models.RunStatusFailed, result.Status)
	assert.Contains(t, result.Error, "internal panic")

	runs, _ := m.Logs(context.Background(), 10)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
}

func TestRunScraperUnknown(t *testing.T) {
	m := NewManager(newFakeStore(), nil)

	_, err := m.RunScraper(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scraper")
}

func TestRegisterDuplicateName(t *testing.T) {
	m := NewManager(newFakeStore(), nil)
	require.NoError(t, m.Register(&stubAdapter{name: "dup"}))

	err := m.Register(&stubAdapter{name: "dup"})
	require.Error(t, err)
}

func TestRunAllContinuesPastFailures(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)
	require.NoError(t, m.Register(&stubAdapter{name: "first", contracts: []models.ContractInput{contractWithNumber("A-1")}}))
	require.NoError(t, m.Register(&stubAdapter{name: "second", err: errors.New("timeout")}))
	require.NoError(t, m.Register(&stubAdapter{name: "third", contracts: []models.ContractInput{contractWithNumber("C-1")}}))

	results := m.RunAll(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, "first", results[0].Scraper)
	assert.Equal(t, models.RunStatusSuccess, results[0].Status)
	assert.Equal(t, "second", results[1].Scraper)
	assert.Equal(t, models.RunStatusFailed, results[1].Status)
	assert.Equal(t, "third", results[2].Scraper)
	assert.Equal(t, models.RunStatusSuccess, results[2].Status)
	assert.Equal(t, 1, results[2].Saved)
}

func TestRunAllWithUnloggableRun(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("db down")
	m := NewManager(store, nil)
	require.NoError(t, m.Register(&stubAdapter{name: "stub"}))

	results := m.RunAll(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, models.RunStatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "db down")
}

func TestLogsDefaultLimit(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)

	_, err := m.Logs(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 20, store.lastLimit)
}

func TestStats(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil)
	require.NoError(t, m.Register(&stubAdapter{name: "stub", contracts: []models.ContractInput{contractWithNumber("S-1")}}))

	_, err := m.RunScraper(context.Background(), "stub")
	require.NoError(t, err)

	stats, err := m.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "stub", stats[0].Scraper)
	assert.Equal(t, 1, stats[0].TotalRuns)
	assert.Equal(t, 1, stats[0].Successful)
	assert.Equal(t, 1, stats[0].TotalSaved)
}

func TestReconcileInterrupted(t *testing.T) {
	store := newFakeStore()
	_, err := store.CreateRun(context.Background(), "orphaned")
	require.NoError(t, err)

	m := NewManager(store, nil)
	require.NoError(t, m.ReconcileInterrupted(context.Background()))

	runs, err := m.Logs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusFailed, runs[0].Status)
}
