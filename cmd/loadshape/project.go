package main

import (
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"loadshape_toolkit/internal/database"
	"loadshape_toolkit/internal/forecast"
	"loadshape_toolkit/internal/model"
)

var (
	projFlags        aggregationFlags
	projStudyYear    int
	projFlatFraction float64
	projSave         bool
)

var projectCmd = &cobra.Command{
	Use:   "project <csv>",
	Short: "Project electrified demand for a study year",
	Long: `Projects how much of each non-electric end-use is electrified by the study
year, adds it to Electricity Total and reports the new daily peak.

With --flat-fraction the adoption curves are skipped and the same fraction of
every non-electric fuel total is electrified instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runProject,
}

func init() {
	projFlags.register(projectCmd)
	projectCmd.Flags().IntVar(&projStudyYear, "study-year", 0, "year to project (default from config, else the target year)")
	projectCmd.Flags().Float64Var(&projFlatFraction, "flat-fraction", 0, "electrify this fraction of every fuel total (e.g. 0.25) instead of using curves")
	projectCmd.Flags().BoolVar(&projSave, "save", false, "store the projected loadshape in the database")
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	spec, tz, err := projFlags.resolve(cfg)
	if err != nil {
		return err
	}
	_, tables, err := projFlags.loadDatasets(args)
	if err != nil {
		return err
	}
	table := tables[0]

	var res *forecast.Result
	if cmd.Flags().Changed("flat-fraction") {
		res, err = forecast.RunFlat(table, projFlatFraction, cfg.Dataset.Sector.NonElectricTotals(), spec, tz)
	} else {
		initial, target, study := cfg.Years()
		if projStudyYear != 0 {
			study = projStudyYear
		}
		res, err = forecast.Run(table, forecast.Params{
			InitialYear: initial,
			TargetYear:  target,
			StudyYear:   study,
			Curves:      cfg.CurveParams(),
			Spec:        spec,
			Timezone:    tz,
		})
	}
	if err != nil {
		return fmt.Errorf("projecting: %w", err)
	}

	name := datasetName(cfg, args[0])
	if res.Projection != nil {
		fmt.Printf("\n%s, study year %d, %s\n", name, res.StudyYear, spec)
		for _, eu := range model.EndUses {
			if f, ok := res.Projection.Fractions[eu]; ok {
				fmt.Printf("  %-12s %5.1f%% electrified\n", eu, f*100)
			}
		}
	} else {
		fmt.Printf("\n%s, flat %.1f%% electrification, %s\n", name, projFlatFraction*100, spec)
	}

	cols := presentColumns(res.Loadshape, []string{model.ColElectricityTotal, model.ColNewSupply, model.ColNewElectricityTotal})
	printLoadshape(os.Stdout, res.Loadshape, cols)
	fmt.Printf("New supply:    %s TWh per year\n", humanize.FormatFloat("#,###.####", res.NewSupplyKWh/1e9))
	printSummary(os.Stdout, res.Summary)

	if !projSave {
		return nil
	}
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	run := database.NewRun(name, spec, res.Loadshape)
	run.Timezone = string(tz)
	run.StudyYear = res.StudyYear
	summary := res.Summary
	run.Summary = &summary
	if err := db.SaveRun(run); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	log.Printf("Saved run %s", run.ID)
	return nil
}
