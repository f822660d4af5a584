package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhartsell/bidsweep-go/internal/models"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the scraper run log",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum entries to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	runs, err := manager.Logs(context.Background(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-14s %-14s %-8s %6s %6s %5s  %s\n",
		"ID", "SCRAPER", "STATUS", "FOUND", "SAVED", "DUP", "STARTED")
	fmt.Println("--------------------------------------------------------------------------")

	for _, run := range runs {
		id, err := models.RecordIDString(run.ID)
		if err != nil {
			id = "?"
		}
		duration := ""
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		fmt.Printf("%-14s %-14s %-8s %6d %6d %5d  %s  %s\n",
			id, run.Scraper, run.Status, run.Found, run.Saved, run.Duplicates,
			run.StartedAt.Local().Format("Jan 02 15:04:05"), duration)
		if run.Error != nil && *run.Error != "" {
			fmt.Printf("  error: %s\n", *run.Error)
		}
	}
	return nil
}
