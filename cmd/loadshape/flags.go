package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"loadshape_toolkit/internal/config"
	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/store"
	"loadshape_toolkit/internal/timeseries"
)

// aggregationFlags override the aggregation section of the config file.
type aggregationFlags struct {
	mode     string
	month    int
	season   string
	dayType  string
	timezone string
	from     string
	to       string
}

func (f *aggregationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "aggregation mode: avg, sum or peak_day (default from config, else avg)")
	cmd.Flags().IntVar(&f.month, "month", 0, "restrict to one calendar month (1-12)")
	cmd.Flags().StringVar(&f.season, "season", "", "restrict to a season: winter, spring, summer, fall or all-year")
	cmd.Flags().StringVar(&f.dayType, "day-type", "", "day filter: all, weekday or weekend")
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "report hours in EST, CST, MST or PST")
	cmd.Flags().StringVar(&f.from, "from", "", "only use rows at or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "only use rows before this date (YYYY-MM-DD)")
}

// window parses --from and --to. ok is false when neither is set.
func (f *aggregationFlags) window() (start, end time.Time, ok bool, err error) {
	if f.from == "" && f.to == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	start = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	if f.from != "" {
		if start, err = time.Parse(time.DateOnly, f.from); err != nil {
			return start, end, false, fmt.Errorf("parsing --from: %w", err)
		}
	}
	if f.to != "" {
		if end, err = time.Parse(time.DateOnly, f.to); err != nil {
			return start, end, false, fmt.Errorf("parsing --to: %w", err)
		}
	}
	if !start.Before(end) {
		return start, end, false, fmt.Errorf("--from %s is not before --to %s", f.from, f.to)
	}
	return start, end, true, nil
}

// loadDatasets parses every CSV into a store keyed by file name and
// returns the tables, cut to the --from/--to window when one is set. A
// window keeps the row at its end as the boundary row Aggregate drops.
func (f *aggregationFlags) loadDatasets(paths []string) ([]string, []*timeseries.Table, error) {
	start, end, windowed, err := f.window()
	if err != nil {
		return nil, nil, err
	}

	st := store.New()
	for _, path := range paths {
		log.Printf("Loading %s...", path)
		table, err := loadTable(path)
		if err != nil {
			return nil, nil, err
		}
		if err := st.Add(path, table); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Printf("Loaded %s: %d rows", path, st.RowCount(path))
	}

	names := st.Names()
	tables := make([]*timeseries.Table, 0, len(names))
	for _, name := range names {
		var t *timeseries.Table
		if windowed {
			t, _ = st.Window(name, start, end)
		} else {
			t, _ = st.Table(name)
		}
		tables = append(tables, t)
	}
	return names, tables, nil
}

// resolve merges the flags over cfg and returns the aggregation spec and
// timezone to use.
func (f *aggregationFlags) resolve(cfg *config.Config) (timeseries.Spec, model.Timezone, error) {
	merged := *cfg
	a := &merged.Aggregation
	if f.mode != "" {
		a.Mode = f.mode
	}
	if f.dayType != "" {
		a.DayType = f.dayType
	}
	if f.month != 0 && f.season != "" {
		return timeseries.Spec{}, "", fmt.Errorf("--month and --season are mutually exclusive")
	}
	if f.month != 0 {
		if f.month < 1 || f.month > 12 {
			return timeseries.Spec{}, "", fmt.Errorf("--month must be 1-12, got %d", f.month)
		}
		a.Season = ""
		a.MonthStart, a.MonthEnd = timeseries.MonthWindow(time.Month(f.month))
	}
	if f.season != "" {
		a.Season = f.season
	}

	spec, err := merged.AggregationSpec()
	if err != nil {
		return timeseries.Spec{}, "", err
	}

	tz := cfg.Timezone
	if f.timezone != "" {
		tz = model.Timezone(f.timezone)
	}
	if _, err := tz.OffsetFromEST(); err != nil {
		return timeseries.Spec{}, "", err
	}
	return spec, tz, nil
}
