package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// RunStatus is the lifecycle state of one scraper invocation.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// ScrapeRun is the persisted audit record for one adapter invocation.
// Exactly one row exists per invocation; status only ever moves
// running -> success or running -> failed.
type ScrapeRun struct {
	ID          surrealmodels.RecordID `json:"id"`
	Scraper     string                 `json:"scraper"`
	Status      RunStatus              `json:"status"`
	Found       int                    `json:"found"`
	Saved       int                    `json:"saved"`
	Duplicates  int                    `json:"duplicates"`
	Error       *string                `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// ScraperStats aggregates run history for one adapter.
type ScraperStats struct {
	Scraper    string     `json:"scraper"`
	TotalRuns  int        `json:"total_runs"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	TotalSaved int        `json:"total_saved"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
}
