package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

var ErrEmptyLoadshape = errors.New("loadshape has no rows")

// Summary compares the peak of a loadshape before and after electrification.
// Peak values are in MW, hours are 0-23.
type Summary struct {
	CurrentPeakMW   float64 `json:"current_peak_mw"`
	CurrentPeakHour int     `json:"current_peak_hour"`
	NewPeakMW       float64 `json:"new_peak_mw"`
	NewPeakHour     int     `json:"new_peak_hour"`
	LoadGrowthPct   float64 `json:"load_growth_pct"` // at the new peak hour
	SupplyPeakMW    float64 `json:"supply_peak_mw"`
	SupplyPeakHour  int     `json:"supply_peak_hour"`
}

// ToMW converts energy per interval in kWh to average power in MW.
func ToMW(kwh float64, interval time.Duration) float64 {
	return kwh / 1000 * (60 / interval.Minutes())
}

// Analyze finds the current, new and supply peaks of an electrified
// loadshape. Ties resolve to the earliest hour.
func Analyze(ls *timeseries.Loadshape, interval time.Duration) (Summary, error) {
	if ls == nil || ls.Empty() {
		return Summary{}, ErrEmptyLoadshape
	}
	if interval <= 0 {
		return Summary{}, fmt.Errorf("interval must be positive, got %s", interval)
	}

	elec, err := column(ls, model.ColElectricityTotal)
	if err != nil {
		return Summary{}, err
	}
	newElec, err := column(ls, model.ColNewElectricityTotal)
	if err != nil {
		return Summary{}, err
	}
	supply, err := column(ls, model.ColNewSupply)
	if err != nil {
		return Summary{}, err
	}

	cur := floats.MaxIdx(elec)
	peak := floats.MaxIdx(newElec)
	sup := floats.MaxIdx(supply)

	var growth float64
	if elec[peak] != 0 {
		growth = supply[peak] / elec[peak] * 100
	}

	return Summary{
		CurrentPeakMW:   ToMW(elec[cur], interval),
		CurrentPeakHour: cur,
		NewPeakMW:       ToMW(newElec[peak], interval),
		NewPeakHour:     peak,
		LoadGrowthPct:   growth,
		SupplyPeakMW:    ToMW(supply[sup], interval),
		SupplyPeakHour:  sup,
	}, nil
}

// TotalEnergy returns the sum of a table column in kWh.
func TotalEnergy(t *timeseries.Table, col string) (float64, error) {
	v, ok := t.Column(col)
	if !ok {
		return 0, fmt.Errorf("%w %q", timeseries.ErrMissingColumn, col)
	}
	return floats.Sum(v), nil
}

func column(ls *timeseries.Loadshape, name string) ([]float64, error) {
	v, ok := ls.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", timeseries.ErrMissingColumn, name)
	}
	return v, nil
}

// Nullable converts NaN (an hour no row fell into) to nil so the values can
// be JSON encoded.
func Nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			out[i] = &values[i]
		}
	}
	return out
}
