// Package forecast runs the full electrification study on one table:
// project new supply, recompose the table, aggregate it to a day and
// compare peaks.
package forecast

import (
	"fmt"

	"loadshape_toolkit/internal/analysis"
	"loadshape_toolkit/internal/electrification"
	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

// Params describes one study.
type Params struct {
	InitialYear int
	TargetYear  int
	StudyYear   int
	Curves      map[model.EndUse]electrification.CurveParams
	Spec        timeseries.Spec
	Timezone    model.Timezone
}

// Result is the outcome of a study.
type Result struct {
	// StudyYear is clamped to the scenario range. It and Projection are
	// unset for flat-fraction runs.
	StudyYear  int
	Projection *electrification.Projection
	// Loadshape holds every numeric column of the recomposed table,
	// including New Supply and New Electricity Total, in local time.
	Loadshape *timeseries.Loadshape
	Summary   analysis.Summary
	// NewSupplyKWh is the projected annual new electric demand.
	NewSupplyKWh float64
}

// Run executes the study on t. t must carry "Electricity Total".
func Run(t *timeseries.Table, p Params) (*Result, error) {
	scenario, err := electrification.NewScenario(p.InitialYear, p.TargetYear, p.Curves, electrification.BaselinesFromTable(t))
	if err != nil {
		return nil, fmt.Errorf("building scenario: %w", err)
	}
	proj := scenario.ProjectSupply(p.StudyYear)

	composed, err := electrification.Compose(t, proj.NewSupply)
	if err != nil {
		return nil, err
	}

	res, err := summarize(composed, p.Spec, p.Timezone)
	if err != nil {
		return nil, err
	}
	res.StudyYear = proj.StudyYear
	res.Projection = proj
	return res, nil
}

// RunFlat electrifies a fixed fraction of the given non-electric columns
// instead of following adoption curves. Columns missing from t are ignored.
func RunFlat(t *timeseries.Table, fraction float64, nonElectric []string, spec timeseries.Spec, tz model.Timezone) (*Result, error) {
	var present []string
	for _, col := range nonElectric {
		if t.HasColumn(col) {
			present = append(present, col)
		}
	}

	flat, err := electrification.ApplyFlat(t, fraction, present)
	if err != nil {
		return nil, err
	}
	supply, _ := flat.Column(model.ColNewSupply)
	composed, err := electrification.Compose(flat, supply)
	if err != nil {
		return nil, err
	}
	return summarize(composed, spec, tz)
}

func summarize(composed *timeseries.Table, spec timeseries.Spec, tz model.Timezone) (*Result, error) {
	ls, err := timeseries.Aggregate(composed, spec)
	if err != nil {
		return nil, fmt.Errorf("aggregating: %w", err)
	}
	if ls.Empty() {
		return nil, fmt.Errorf("%s selects no rows: %w", spec, analysis.ErrEmptyLoadshape)
	}
	ls, err = ls.ShiftTimezone(tz)
	if err != nil {
		return nil, err
	}

	summary, err := analysis.Analyze(ls, ls.Interval)
	if err != nil {
		return nil, err
	}
	total, err := analysis.TotalEnergy(timeseries.TrimBoundary(composed), model.ColNewSupply)
	if err != nil {
		return nil, err
	}

	return &Result{
		Loadshape:    ls,
		Summary:      summary,
		NewSupplyKWh: total,
	}, nil
}
