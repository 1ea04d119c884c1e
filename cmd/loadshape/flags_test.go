package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadshape_toolkit/internal/config"
	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

func TestResolve_ConfigDefaults(t *testing.T) {
	cfg := &config.Config{Timezone: model.TimezonePST}
	cfg.Aggregation.Mode = "sum"
	cfg.Aggregation.DayType = "weekend"

	var f aggregationFlags
	spec, tz, err := f.resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, timeseries.ModeSum, spec.Mode)
	assert.Equal(t, timeseries.DayTypeWeekend, spec.DayType)
	assert.Equal(t, 1, spec.MonthStart)
	assert.Equal(t, 13, spec.MonthEnd)
	assert.Equal(t, model.TimezonePST, tz)
}

func TestResolve_FlagsOverrideConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Aggregation.Season = "winter"

	f := aggregationFlags{mode: "peak_day", month: 7, dayType: "weekday", timezone: "CST"}
	spec, tz, err := f.resolve(cfg)
	require.NoError(t, err)
	assert.Equal(t, timeseries.ModePeakDay, spec.Mode)
	assert.Equal(t, 7, spec.MonthStart)
	assert.Equal(t, 8, spec.MonthEnd)
	assert.Equal(t, timeseries.DayTypeWeekday, spec.DayType)
	assert.Equal(t, model.TimezoneCST, tz)

	// the config is left untouched
	assert.Equal(t, "winter", cfg.Aggregation.Season)
}

func TestResolve_Season(t *testing.T) {
	f := aggregationFlags{season: "summer"}
	spec, _, err := f.resolve(&config.Config{})
	require.NoError(t, err)

	start, end, err := timeseries.SeasonWindow("summer")
	require.NoError(t, err)
	assert.Equal(t, start, spec.MonthStart)
	assert.Equal(t, end, spec.MonthEnd)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name  string
		flags aggregationFlags
	}{
		{"month and season", aggregationFlags{month: 3, season: "summer"}},
		{"month out of range", aggregationFlags{month: 13}},
		{"bad mode", aggregationFlags{mode: "median"}},
		{"bad day type", aggregationFlags{dayType: "holiday"}},
		{"bad timezone", aggregationFlags{timezone: "GMT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.flags.resolve(&config.Config{})
			assert.Error(t, err)
		})
	}
}

func TestWindow(t *testing.T) {
	var f aggregationFlags
	_, _, ok, err := f.window()
	require.NoError(t, err)
	assert.False(t, ok)

	f = aggregationFlags{from: "2018-03-01", to: "2018-04-01"}
	start, end, ok, err := f.window()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2018, 4, 1, 0, 0, 0, 0, time.UTC), end)

	f = aggregationFlags{from: "2018-04-01", to: "2018-03-01"}
	_, _, _, err = f.window()
	assert.Error(t, err)

	f = aggregationFlags{to: "April"}
	_, _, _, err = f.window()
	assert.Error(t, err)
}

func TestLoadDatasets_Window(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homes.csv")
	csv := "timestamp,out.electricity.total.energy_consumption\n" +
		"2018-01-01 01:00:00,1\n" +
		"2018-02-01 01:00:00,2\n" +
		"2018-03-01 01:00:00,3\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	f := aggregationFlags{from: "2018-02-01"}
	names, tables, err := f.loadDatasets([]string{path})
	require.NoError(t, err)
	require.Equal(t, []string{path}, names)
	require.Len(t, tables, 1)
	assert.Equal(t, 2, tables[0].Len())

	elec, ok := tables[0].Column(model.ColElectricityTotal)
	require.True(t, ok)
	assert.Equal(t, []float64{2, 3}, elec)
}

func TestLoadDatasets_WindowAggregatesEveryHour(t *testing.T) {
	var b strings.Builder
	b.WriteString("timestamp,out.electricity.total.energy_consumption\n")
	start := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 72; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		fmt.Fprintf(&b, "%s,%d\n", ts.Format("2006-01-02 15:04:05"), ts.Hour())
	}
	path := filepath.Join(t.TempDir(), "march.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))

	f := aggregationFlags{from: "2018-03-02", to: "2018-03-03"}
	_, tables, err := f.loadDatasets([]string{path})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 25, tables[0].Len())

	ls, err := timeseries.Aggregate(tables[0], timeseries.DefaultSpec())
	require.NoError(t, err)
	elec, ok := ls.Column(model.ColElectricityTotal)
	require.True(t, ok)
	for h, v := range elec {
		assert.Equal(t, float64(h), v, "hour %d", h)
	}
	assert.Equal(t, 1, ls.Days)
}
