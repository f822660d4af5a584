// Package db provides SurrealDB query functions for contract and run-log operations.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/mhartsell/bidsweep-go/internal/models"
)

// InsertContract stores a contract if it is not already known.
// Returns (true, nil) when a new record was created and (false, nil) when
// the unique index on dedup_key rejected it as a duplicate. Any other
// database failure is returned as an error.
func (c *Client) InsertContract(ctx context.Context, in models.ContractInput) (bool, error) {
	key := in.DedupKey()
	if key == "" {
		// No solicitation number: give the record its own key so it can
		// never collide with another number-less record.
		key = "none:" + uuid.New().String()
	}

	sql := `
		CREATE contract CONTENT {
			title: $title,
			agency: $agency,
			location: $location,
			estimated_value: $estimated_value,
			deadline: $deadline,
			description: $description,
			naics_code: $naics_code,
			url: $url,
			solicitation_number: $solicitation_number,
			contact_name: $contact_name,
			contact_email: $contact_email,
			contact_phone: $contact_phone,
			source: $source,
			dedup_key: $dedup_key
		}
	`

	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"title":               in.Title,
		"agency":              in.Agency,
		"location":            in.Location,
		"estimated_value":     in.EstimatedValue,
		"deadline":            in.Deadline,
		"description":         in.Description,
		"naics_code":          in.NAICSCode,
		"url":                 in.URL,
		"solicitation_number": in.SolicitationNumber,
		"contact_name":        in.ContactName,
		"contact_email":       in.ContactEmail,
		"contact_phone":       in.ContactPhone,
		"source":              in.Source,
		"dedup_key":           key,
	})
	if err != nil {
		wrapped := wrapQueryError(err)
		if errors.Is(wrapped, ErrDuplicateContract) {
			return false, nil
		}
		return false, fmt.Errorf("insert contract: %w", wrapped)
	}
	return true, nil
}

// ListContracts returns contracts ordered by discovery time, newest first.
// A sourceFilter of "" returns contracts from all sources.
func (c *Client) ListContracts(ctx context.Context, sourceFilter string, limit int) ([]models.Contract, error) {
	sourceClause := ""
	vars := map[string]any{"limit": limit}
	if sourceFilter != "" {
		sourceClause = "WHERE source = $source"
		vars["source"] = sourceFilter
	}

	sql := fmt.Sprintf(`
		SELECT * FROM contract %s ORDER BY discovered_at DESC LIMIT $limit
	`, sourceClause)

	results, err := surrealdb.Query[[]models.Contract](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Contract{}, nil
	}
	return (*results)[0].Result, nil
}

// CountContracts returns the total number of stored contracts.
func (c *Client) CountContracts(ctx context.Context) (int, error) {
	results, err := surrealdb.Query[[]struct {
		C int `json:"c"`
	}](ctx, c.db, `SELECT count() AS c FROM contract GROUP ALL`, nil)
	if err != nil {
		return 0, fmt.Errorf("count contracts: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].C, nil
}

// CreateRun records the start of a scraper run and returns its ID.
// The run begins in status "running".
func (c *Client) CreateRun(ctx context.Context, scraper string) (string, error) {
	// Short random IDs keep log output readable
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	sql := `
		CREATE type::record("scrape_run", $id) CONTENT {
			scraper: $scraper,
			status: $status
		}
	`

	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"id":      id,
		"scraper": scraper,
		"status":  string(models.RunStatusRunning),
	})
	if err != nil {
		return "", fmt.Errorf("create run: %w", wrapQueryError(err))
	}
	return id, nil
}

// CompleteRun marks a run as successful with its result counts.
func (c *Client) CompleteRun(ctx context.Context, id string, found, saved, duplicates int) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("scrape_run", $id) SET
			status = $status,
			found = $found,
			saved = $saved,
			duplicates = $duplicates,
			completed_at = time::now()
	`, map[string]any{
		"id":         id,
		"status":     string(models.RunStatusSuccess),
		"found":      found,
		"saved":      saved,
		"duplicates": duplicates,
	})
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// FailRun marks a run as failed and records the error message.
func (c *Client) FailRun(ctx context.Context, id string, errMsg string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("scrape_run", $id) SET
			status = $status,
			error = $error,
			completed_at = time::now()
	`, map[string]any{
		"id":     id,
		"status": string(models.RunStatusFailed),
		"error":  errMsg,
	})
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]models.ScrapeRun, error) {
	results, err := surrealdb.Query[[]models.ScrapeRun](ctx, c.db, `
		SELECT * FROM scrape_run ORDER BY started_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.ScrapeRun{}, nil
	}
	return (*results)[0].Result, nil
}

// AdapterStats aggregates run history per scraper.
func (c *Client) AdapterStats(ctx context.Context) ([]models.ScraperStats, error) {
	results, err := surrealdb.Query[[]models.ScraperStats](ctx, c.db, `
		SELECT scraper,
			count() AS total_runs,
			count(status = $success) AS successful,
			count(status = $failed) AS failed,
			math::sum(saved) AS total_saved,
			time::max(started_at) AS last_run_at
		FROM scrape_run
		GROUP BY scraper
		ORDER BY scraper
	`, map[string]any{
		"success": string(models.RunStatusSuccess),
		"failed":  string(models.RunStatusFailed),
	})
	if err != nil {
		return nil, fmt.Errorf("adapter stats: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.ScraperStats{}, nil
	}
	return (*results)[0].Result, nil
}

// ReconcileInterruptedRuns marks runs still in status "running" as failed.
// Called at startup: a run that survived a process restart never finished.
// Returns the number of runs reconciled.
func (c *Client) ReconcileInterruptedRuns(ctx context.Context) (int, error) {
	results, err := surrealdb.Query[[]models.ScrapeRun](ctx, c.db, `
		UPDATE scrape_run SET
			status = $failed,
			error = $error,
			completed_at = time::now()
		WHERE status = $running
		RETURN AFTER
	`, map[string]any{
		"failed":  string(models.RunStatusFailed),
		"running": string(models.RunStatusRunning),
		"error":   "interrupted by process restart",
	})
	if err != nil {
		return 0, fmt.Errorf("reconcile runs: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}
