package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated run statistics per scraper",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	stats, err := manager.Stats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	total, err := dbClient.CountContracts(ctx)
	if err != nil {
		return fmt.Errorf("count contracts: %w", err)
	}

	fmt.Printf("Stored contracts: %d\n\n", total)

	if len(stats) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	fmt.Printf("%-14s %6s %8s %7s %7s  %s\n",
		"SCRAPER", "RUNS", "SUCCESS", "FAILED", "SAVED", "LAST RUN")
	fmt.Println("------------------------------------------------------------------")

	for _, st := range stats {
		lastRun := "-"
		if st.LastRunAt != nil {
			lastRun = st.LastRunAt.Local().Format("Jan 02 15:04")
		}
		fmt.Printf("%-14s %6d %8d %7d %7d  %s\n",
			st.Scraper, st.TotalRuns, st.Successful, st.Failed, st.TotalSaved, lastRun)
	}
	return nil
}
