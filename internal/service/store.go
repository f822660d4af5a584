// Package service provides business logic for contract acquisition runs.
package service

import (
	"context"

	"github.com/mhartsell/bidsweep-go/internal/models"
)

// Store is the persistence interface the manager depends on.
// Implemented by db.Client; tests substitute an in-memory fake.
type Store interface {
	InsertContract(ctx context.Context, in models.ContractInput) (bool, error)
	CreateRun(ctx context.Context, scraper string) (string, error)
	CompleteRun(ctx context.Context, id string, found, saved, duplicates int) error
	FailRun(ctx context.Context, id string, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]models.ScrapeRun, error)
	AdapterStats(ctx context.Context) ([]models.ScraperStats, error)
	ReconcileInterruptedRuns(ctx context.Context) (int, error)
}
