package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"loadshape_toolkit/internal/analysis"
	"loadshape_toolkit/internal/timeseries"
)

const colWidth = 22

func formatKWh(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return humanize.CommafWithDigits(v, 2)
}

// printLoadshape writes one row per hour with the given columns.
func printLoadshape(w io.Writer, ls *timeseries.Loadshape, cols []string) {
	rule := strings.Repeat("-", 6+len(cols)*(colWidth+2))

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-6s", "Hour")
	for _, col := range cols {
		fmt.Fprintf(w, "  %*s", colWidth, col)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)

	for h := 0; h < timeseries.HoursPerDay; h++ {
		fmt.Fprintf(w, "%-6s", fmt.Sprintf("%02d:00", h))
		for _, col := range cols {
			v, _ := ls.Column(col)
			fmt.Fprintf(w, "  %*s", colWidth, formatKWh(v[h]))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%d days, source interval %s\n", ls.Days, ls.Interval)
}

func printSummary(w io.Writer, s analysis.Summary) {
	fmt.Fprintf(w, "Current peak:  %s MW at %02d:00\n", humanize.FormatFloat("#,###.###", s.CurrentPeakMW), s.CurrentPeakHour)
	fmt.Fprintf(w, "New peak:      %s MW at %02d:00\n", humanize.FormatFloat("#,###.###", s.NewPeakMW), s.NewPeakHour)
	fmt.Fprintf(w, "Supply peak:   %s MW at %02d:00\n", humanize.FormatFloat("#,###.###", s.SupplyPeakMW), s.SupplyPeakHour)
	fmt.Fprintf(w, "Load growth:   %.1f%% at the new peak\n", s.LoadGrowthPct)
}

// presentColumns keeps the columns of want that ls carries.
func presentColumns(ls *timeseries.Loadshape, want []string) []string {
	var out []string
	for _, col := range want {
		if _, ok := ls.Column(col); ok {
			out = append(out, col)
		}
	}
	return out
}
