package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhartsell/bidsweep-go/internal/metrics"
	"github.com/mhartsell/bidsweep-go/internal/models"
	"github.com/mhartsell/bidsweep-go/internal/server"
	"github.com/mhartsell/bidsweep-go/internal/service"
)

// memStore is a minimal in-memory service.Store for handler tests.
type memStore struct {
	mu   sync.Mutex
	runs []models.ScrapeRun
}

func (s *memStore) InsertContract(context.Context, models.ContractInput) (bool, error) {
	return true, nil
}

func (s *memStore) CreateRun(_ context.Context, scraper string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := models.ScrapeRun{Scraper: scraper, Status: models.RunStatusRunning, StartedAt: time.Now()}
	run.ID.ID = fmt.Sprintf("run-%d", len(s.runs)+1)
	s.runs = append(s.runs, run)
	return run.ID.ID.(string), nil
}

func (s *memStore) CompleteRun(_ context.Context, id string, found, saved, duplicates int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID.ID == id {
			s.runs[i].Status = models.RunStatusSuccess
			s.runs[i].Found = found
			s.runs[i].Saved = saved
			s.runs[i].Duplicates = duplicates
		}
	}
	return nil
}

func (s *memStore) FailRun(_ context.Context, id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].ID.ID == id {
			s.runs[i].Status = models.RunStatusFailed
			s.runs[i].Error = &errMsg
		}
	}
	return nil
}

func (s *memStore) ListRuns(_ context.Context, limit int) ([]models.ScrapeRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScrapeRun, 0, limit)
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

func (s *memStore) AdapterStats(context.Context) ([]models.ScraperStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName := make(map[string]*models.ScraperStats)
	var order []string
	for _, run := range s.runs {
		st, ok := byName[run.Scraper]
		if !ok {
			st = &models.ScraperStats{Scraper: run.Scraper}
			byName[run.Scraper] = st
			order = append(order, run.Scraper)
		}
		st.TotalRuns++
	}
	out := make([]models.ScraperStats, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out, nil
}

func (s *memStore) ReconcileInterruptedRuns(context.Context) (int, error) { return 0, nil }

func (s *memStore) runCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// nopAdapter returns no contracts.
type nopAdapter struct{ name string }

func (a nopAdapter) Name() string { return a.name }
func (a nopAdapter) Scrape(context.Context) ([]models.ContractInput, error) {
	return nil, nil
}

func testServer(t *testing.T) (*server.Server, *memStore) {
	t.Helper()
	store := &memStore{}
	manager := service.NewManager(store, nil)
	require.NoError(t, manager.Register(nopAdapter{name: "state-portal"}))
	require.NoError(t, manager.Register(nopAdapter{name: "regions"}))

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return server.New(":0", manager, metrics.NewCollector(), logger), store
}

func doRequest(t *testing.T, srv *server.Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTriggerSingleRun(t *testing.T) {
	srv, store := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/v1/runs/state-portal")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body["status"])
	assert.Equal(t, "state-portal", body["scraper"])

	// The run executes in the background
	require.Eventually(t, func() bool { return store.runCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestTriggerUnknownScraper(t *testing.T) {
	srv, store := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/v1/runs/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown scraper")
	assert.Zero(t, store.runCount(), "no run should be recorded")
}

func TestTriggerAllRuns(t *testing.T) {
	srv, store := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/v1/runs")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Status   string   `json:"status"`
		Scrapers []string `json:"scrapers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"state-portal", "regions"}, body.Scrapers)

	require.Eventually(t, func() bool { return store.runCount() == 2 },
		2*time.Second, 10*time.Millisecond)
}

func TestListRuns(t *testing.T) {
	srv, store := testServer(t)

	for i := 0; i < 3; i++ {
		id, err := store.CreateRun(context.Background(), "state-portal")
		require.NoError(t, err)
		require.NoError(t, store.CompleteRun(context.Background(), id, 1, 1, 0))
	}

	rec := doRequest(t, srv, http.MethodGet, "/v1/runs?limit=2")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs []models.ScrapeRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Runs, 2)
}

func TestListRunsInvalidLimit(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/v1/runs?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	srv, store := testServer(t)

	_, err := store.CreateRun(context.Background(), "regions")
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/v1/stats")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Scrapers []models.ScraperStats `json:"scrapers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Scrapers, 1)
	assert.Equal(t, "regions", body.Scrapers[0].Scraper)
}

func TestScrapersEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/v1/scrapers")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "state-portal")
	assert.Contains(t, rec.Body.String(), "regions")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/v1/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "uptime_seconds")
}
