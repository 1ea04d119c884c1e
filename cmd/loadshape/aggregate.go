package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"loadshape_toolkit/internal/database"
	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

var (
	aggFlags   aggregationFlags
	aggColumns []string
	aggSave    bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <csv>...",
	Short: "Reduce a year of timeseries to a 24-hour loadshape",
	Long: `Aggregates one or more NREL timeseries CSV files to a representative day.
With several files the loadshapes are added together, e.g. to total every
home type of a region.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAggregate,
}

func init() {
	aggFlags.register(aggregateCmd)
	aggregateCmd.Flags().StringSliceVar(&aggColumns, "columns", nil, "columns to print (default: Electricity Total and fuel totals)")
	aggregateCmd.Flags().BoolVar(&aggSave, "save", false, "store the loadshape in the database")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	spec, tz, err := aggFlags.resolve(cfg)
	if err != nil {
		return err
	}

	names, tables, err := aggFlags.loadDatasets(args)
	if err != nil {
		return err
	}

	shapes := make([]*timeseries.Loadshape, 0, len(tables))
	for i, table := range tables {
		if table.Len() == 0 {
			log.Printf("Warning: no rows of %s fall in the requested date window", names[i])
			continue
		}
		ls, err := timeseries.Aggregate(table, spec)
		if err != nil {
			return fmt.Errorf("aggregating %s: %w", names[i], err)
		}
		if ls.Empty() {
			log.Printf("Warning: %s selects no rows from %s", spec, names[i])
			continue
		}
		shapes = append(shapes, ls)
	}

	ls := timeseries.SumLoadshapes(shapes)
	if ls.Empty() {
		log.Printf("Warning: nothing to report for %s", spec)
		return nil
	}
	ls, err = ls.ShiftTimezone(tz)
	if err != nil {
		return err
	}

	cols := aggColumns
	if len(cols) == 0 {
		cols = append([]string{model.ColElectricityTotal}, cfg.Dataset.Sector.NonElectricTotals()...)
	}
	cols = presentColumns(ls, cols)
	if len(cols) == 0 {
		return fmt.Errorf("none of the requested columns are present")
	}

	name := datasetName(cfg, args[0])
	fmt.Printf("\n%s, %s\n", name, spec)
	printLoadshape(os.Stdout, ls, cols)

	if !aggSave {
		return nil
	}
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	run := database.NewRun(name, spec, ls)
	run.Timezone = string(tz)
	if err := db.SaveRun(run); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	fmt.Printf("Saved run %s\n", run.ID)
	return nil
}
