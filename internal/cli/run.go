package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhartsell/bidsweep-go/internal/models"
	"github.com/mhartsell/bidsweep-go/internal/service"
)

var runCity string

var runCmd = &cobra.Command{
	Use:   "run [scraper]",
	Short: "Run one scraper or all of them",
	Long: `Run a single scraper by name, or all registered scrapers when no
name is given. Each run is recorded in the run log.

Examples:
  bidsweep run                    # run all scrapers
  bidsweep run state-portal       # run one scraper
  bidsweep run --city tampa       # refresh a single local bid board`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runCity, "city", "", "scrape a single local board by key")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if runCity != "" {
		if len(args) > 0 {
			return fmt.Errorf("--city cannot be combined with a scraper name")
		}
		return runSingleCity(ctx, runCity)
	}

	if len(args) == 1 {
		result, err := manager.RunScraper(ctx, args[0])
		if result != nil {
			printResult(result)
		}
		return err
	}

	results := manager.RunAll(ctx)
	failed := 0
	for _, result := range results {
		printResult(result)
		if result.Status == models.RunStatusFailed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scrapers failed", failed, len(results))
	}
	return nil
}

// runSingleCity runs the local board adapter scoped to one city, via a
// throwaway manager so the run is logged like any other.
func runSingleCity(ctx context.Context, key string) error {
	m := service.NewManager(dbClient, collector)
	if err := m.Register(localBoards.City(key)); err != nil {
		return err
	}
	result, err := m.RunScraper(ctx, localBoards.Name())
	if result != nil {
		printResult(result)
	}
	return err
}

func printResult(r *service.RunResult) {
	if r.Status == models.RunStatusFailed {
		fmt.Printf("%-14s FAILED  %s\n", r.Scraper, r.Error)
		return
	}
	fmt.Printf("%-14s ok  found=%d saved=%d duplicates=%d (%s)\n",
		r.Scraper, r.Found, r.Saved, r.Duplicates, r.Duration.Round(time.Millisecond))
}
