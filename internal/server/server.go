// Package server provides the HTTP admin API with lifecycle management.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mhartsell/bidsweep-go/internal/metrics"
	"github.com/mhartsell/bidsweep-go/internal/service"
)

// Server exposes run triggers, run history, and stats over HTTP.
type Server struct {
	manager   *service.Manager
	collector *metrics.Collector
	logger    *slog.Logger
	http      *http.Server
}

// New creates the admin server listening on addr.
func New(addr string, manager *service.Manager, collector *metrics.Collector, logger *slog.Logger) *Server {
	s := &Server{
		manager:   manager,
		collector: collector,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/runs", s.handleRunAll)
		r.Post("/runs/{name}", s.handleRunOne)
		r.Get("/runs", s.handleListRuns)
		r.Get("/stats", s.handleStats)
		r.Get("/scrapers", s.handleScrapers)
		r.Get("/metrics", s.handleMetrics)
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run starts the server and blocks until Shutdown or a listener error.
func (s *Server) Run() error {
	s.logger.Info("admin server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("admin server shutting down")
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRunAll triggers all scrapers in the background and returns 202.
func (s *Server) handleRunAll(w http.ResponseWriter, _ *http.Request) {
	go func() {
		results := s.manager.RunAll(context.Background())
		for _, r := range results {
			if r.Error != "" {
				s.logger.Warn("triggered run failed", "scraper", r.Scraper, "error", r.Error)
			}
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":   "accepted",
		"scrapers": s.manager.Scrapers(),
	})
}

// handleRunOne triggers a single scraper in the background and returns 202.
// Unknown names are rejected with 404 before anything starts.
func (s *Server) handleRunOne(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	known := false
	for _, n := range s.manager.Scrapers() {
		if n == name {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, "unknown scraper: "+name)
		return
	}

	go func() {
		if _, err := s.manager.RunScraper(context.Background(), name); err != nil {
			s.logger.Warn("triggered run failed", "scraper", name, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"scraper": name,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: "+raw)
			return
		}
		limit = n
	}

	runs, err := s.manager.Logs(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scrapers": stats})
}

func (s *Server) handleScrapers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"scrapers": s.manager.Scrapers()})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
