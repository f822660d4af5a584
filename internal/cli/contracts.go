package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	contractsSource string
	contractsLimit  int
)

var contractsCmd = &cobra.Command{
	Use:   "contracts",
	Short: "List discovered contracts",
	Long: `List stored contracts, newest first.

Examples:
  bidsweep contracts
  bidsweep contracts --source local-boards --limit 10`,
	Args: cobra.NoArgs,
	RunE: runContracts,
}

func init() {
	contractsCmd.Flags().StringVar(&contractsSource, "source", "", "filter by source scraper")
	contractsCmd.Flags().IntVar(&contractsLimit, "limit", 25, "maximum contracts to show")
	rootCmd.AddCommand(contractsCmd)
}

func runContracts(cmd *cobra.Command, args []string) error {
	contracts, err := dbClient.ListContracts(context.Background(), contractsSource, contractsLimit)
	if err != nil {
		return fmt.Errorf("list contracts: %w", err)
	}

	if len(contracts) == 0 {
		fmt.Println("No contracts found")
		return nil
	}

	for _, c := range contracts {
		fmt.Printf("%s\n", c.Title)
		fmt.Printf("  Agency: %s (%s)\n", c.Agency, c.Location)
		if c.SolicitationNumber != nil {
			fmt.Printf("  Number: %s\n", *c.SolicitationNumber)
		}
		if c.Deadline != nil {
			fmt.Printf("  Deadline: %s\n", c.Deadline.Format("2006-01-02"))
		}
		if c.ContactEmail != nil {
			fmt.Printf("  Contact: %s\n", *c.ContactEmail)
		}
		fmt.Printf("  Source: %s  %s\n\n", c.Source, c.URL)
	}
	return nil
}
