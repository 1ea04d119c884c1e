package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs",
	Long:  `Displays the aggregation and projection runs stored in the database, newest first.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of runs to show (0 = all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(listLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs stored")
		return nil
	}

	rule := "------------------------------------------------------------------------------------------------"
	fmt.Println(rule)
	fmt.Printf("%-36s  %-24s  %-8s  %-6s  %9s  %-14s\n", "ID", "Dataset", "Mode", "Year", "Peak MW", "Created")
	fmt.Println(rule)
	for _, run := range runs {
		year, peak := "-", "-"
		if run.StudyYear != 0 {
			year = fmt.Sprint(run.StudyYear)
		}
		if run.Summary != nil {
			peak = humanize.FormatFloat("#,###.##", run.Summary.NewPeakMW)
		}
		mark := ""
		if run.Published {
			mark = " *"
		}
		fmt.Printf("%-36s  %-24s  %-8s  %-6s  %9s  %-14s%s\n",
			run.ID, run.Dataset, run.Mode, year, peak, humanize.Time(run.CreatedAt), mark)
	}
	fmt.Println(rule)
	fmt.Printf("%d runs (* = published)\n", len(runs))
	return nil
}
