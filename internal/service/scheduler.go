package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mhartsell/bidsweep-go/internal/models"
)

// Scheduler triggers a full run of all scrapers once a day at a fixed
// local time.
type Scheduler struct {
	manager *Manager
	hour    int
	minute  int

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewScheduler creates a scheduler firing daily at hour:minute.
func NewScheduler(manager *Manager, hour, minute int) *Scheduler {
	return &Scheduler{
		manager: manager,
		hour:    hour,
		minute:  minute,
	}
}

// Start launches the scheduling loop. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.loop(s.stop, s.done)
	slog.Info("scheduler started", "hour", s.hour, "minute", s.minute)
}

// Stop halts the scheduling loop and waits for it to exit.
// A run already in progress is not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	slog.Info("scheduler stopped")
}

func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		wait := time.Until(s.nextFire(time.Now()))
		slog.Info("next scheduled run", "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		slog.Info("scheduled run triggered")
		results := s.manager.RunAll(context.Background())
		for _, r := range results {
			if r.Status != models.RunStatusSuccess {
				slog.Warn("scheduled run had failures", "scraper", r.Scraper, "error", r.Error)
			}
		}
	}
}

// nextFire returns the next hour:minute occurrence strictly after now.
func (s *Scheduler) nextFire(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
