package electrification

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SampleCount is the number of points on the year grid the adoption curves
// are sampled and normalised over.
const SampleCount = 100

// CurveParams shapes the adoption curve of one end-use.
type CurveParams struct {
	// PeakYear is the year of fastest adoption (the sigmoid midpoint).
	PeakYear float64 `yaml:"peak_year" json:"peak_year"`
	// PeakRate is the steepness as a percentage; k = PeakRate/100.
	PeakRate float64 `yaml:"peak_rate" json:"peak_rate"`
	Enabled  bool    `yaml:"enabled" json:"enabled"`
}

// DefaultCurve peaks halfway between the initial and target year at a 50%
// rate.
func DefaultCurve(initialYear, targetYear int) CurveParams {
	return CurveParams{
		PeakYear: float64(initialYear+targetYear) / 2,
		PeakRate: 50,
		Enabled:  true,
	}
}

// Sigmoid is the logistic function 1/(1+exp(-k(x-x0))).
func Sigmoid(x, k, x0 float64) float64 {
	return 1 / (1 + math.Exp(-k*(x-x0)))
}

// YearGrid returns SampleCount evenly spaced years covering
// [initialYear, targetYear].
func YearGrid(initialYear, targetYear int) []float64 {
	grid := make([]float64, SampleCount)
	floats.Span(grid, float64(initialYear), float64(targetYear))
	return grid
}

// NormalizedCurve samples the sigmoid on grid and rescales it so its
// minimum on the grid is 0 and its maximum 1. A curve that is numerically
// flat on the grid cannot be normalised.
func NormalizedCurve(p CurveParams, grid []float64) ([]float64, error) {
	if p.PeakRate <= 0 || math.IsNaN(p.PeakRate) || math.IsInf(p.PeakRate, 0) {
		return nil, fmt.Errorf("peak rate must be positive, got %v", p.PeakRate)
	}
	if len(grid) < 2 {
		return nil, fmt.Errorf("year grid needs at least 2 points, got %d", len(grid))
	}
	k := p.PeakRate / 100
	s := make([]float64, len(grid))
	for i, x := range grid {
		s[i] = Sigmoid(x, k, p.PeakYear)
	}

	lo, hi := floats.Min(s), floats.Max(s)
	span := hi - lo
	if span <= 0 {
		return nil, fmt.Errorf("adoption curve peaking in %.1f is flat over %.0f-%.0f", p.PeakYear, grid[0], grid[len(grid)-1])
	}
	floats.AddConst(-lo, s)
	floats.Scale(1/span, s)
	return s, nil
}

// nearestIndex maps a year onto the closest grid index.
func nearestIndex(year, initialYear, targetYear int) int {
	pos := float64(year-initialYear) / float64(targetYear-initialYear) * (SampleCount - 1)
	idx := int(math.Round(pos))
	return max(0, min(SampleCount-1, idx))
}

// AdoptionPath returns the year grid and the normalised adoption fraction
// at every grid point.
func AdoptionPath(p CurveParams, initialYear, targetYear int) (years, fractions []float64, err error) {
	if initialYear >= targetYear {
		return nil, nil, fmt.Errorf("%w: %d >= %d", ErrDegenerateScenario, initialYear, targetYear)
	}
	years = YearGrid(initialYear, targetYear)
	fractions, err = NormalizedCurve(p, years)
	if err != nil {
		return nil, nil, err
	}
	return years, fractions, nil
}
