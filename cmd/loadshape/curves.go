package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loadshape_toolkit/internal/electrification"
)

var curvesStep int

var curvesCmd = &cobra.Command{
	Use:   "curves",
	Short: "Print the configured adoption curves",
	Long:  `Prints the fraction of each enabled end-use electrified per year between the initial and target year.`,
	Args:  cobra.NoArgs,
	RunE:  runCurves,
}

func init() {
	curvesCmd.Flags().IntVar(&curvesStep, "step", 1, "years between rows")
	rootCmd.AddCommand(curvesCmd)
}

func runCurves(cmd *cobra.Command, args []string) error {
	if curvesStep < 1 {
		return fmt.Errorf("--step must be positive, got %d", curvesStep)
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	initial, target, _ := cfg.Years()
	scenario, err := electrification.NewScenario(initial, target, cfg.CurveParams(), nil)
	if err != nil {
		return fmt.Errorf("building scenario: %w", err)
	}
	enabled := scenario.Enabled()
	if len(enabled) == 0 {
		fmt.Println("Every end-use is disabled")
		return nil
	}

	fmt.Printf("%-6s", "Year")
	for _, eu := range enabled {
		fmt.Printf("  %12s", eu)
	}
	fmt.Println()
	for year := initial; year <= target; year += curvesStep {
		fmt.Printf("%-6d", year)
		for _, eu := range enabled {
			fmt.Printf("  %11.1f%%", scenario.Fraction(eu, year)*100)
		}
		fmt.Println()
	}
	return nil
}
