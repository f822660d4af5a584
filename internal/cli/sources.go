package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhartsell/bidsweep-go/internal/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered scrapers and their configured sources",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	fmt.Println("Scrapers:")
	for _, name := range manager.Scrapers() {
		fmt.Printf("  %s\n", name)
	}

	regions, err := sources.LoadRegions(cfg.RegionsFile)
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	fmt.Printf("\nRegions (%d):\n", len(regions))
	for _, r := range regions {
		fmt.Printf("  %-16s %s\n", r.Key, r.Name)
	}

	boards, err := sources.LoadLocalBoards(cfg.LocalBoardsFile)
	if err != nil {
		return fmt.Errorf("load local boards: %w", err)
	}
	fmt.Printf("\nLocal boards (%d):\n", len(boards))
	for _, b := range boards {
		fmt.Printf("  %-16s %s\n", b.Key, b.Name)
	}
	return nil
}
