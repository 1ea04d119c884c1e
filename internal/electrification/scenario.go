package electrification

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"gonum.org/v1/gonum/floats"

	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

// ErrDegenerateScenario also matches timeseries.ErrDegenerateScenario.
var ErrDegenerateScenario = fmt.Errorf("%w: initial year must precede target year", timeseries.ErrDegenerateScenario)

var ErrUnknownEndUse = errors.New("unknown end-use")

// Scenario is an immutable electrification scenario: adoption curves and
// non-electric baselines for the fixed set of end-uses. A Scenario may be
// shared across goroutines and reused for any number of study years.
type Scenario struct {
	InitialYear int
	TargetYear  int

	curves     map[model.EndUse]CurveParams
	baselines  map[model.EndUse][]float64
	normalized map[model.EndUse][]float64
	length     int
}

// NewScenario validates and captures a scenario. Baselines are per-record
// non-electric series aligned with the table they were taken from and must
// share one length. End-uses without curve parameters are disabled; an
// enabled end-use without a baseline contributes a zero series.
func NewScenario(initialYear, targetYear int, curves map[model.EndUse]CurveParams, baselines map[model.EndUse][]float64) (*Scenario, error) {
	if initialYear >= targetYear {
		return nil, fmt.Errorf("%w: %d >= %d", ErrDegenerateScenario, initialYear, targetYear)
	}

	s := &Scenario{
		InitialYear: initialYear,
		TargetYear:  targetYear,
		curves:      maps.Clone(curves),
		baselines:   make(map[model.EndUse][]float64, len(baselines)),
		normalized:  make(map[model.EndUse][]float64),
		length:      -1,
	}
	if s.curves == nil {
		s.curves = make(map[model.EndUse]CurveParams)
	}

	for eu, series := range baselines {
		if !eu.IsValid() {
			return nil, fmt.Errorf("baseline: %w %q", ErrUnknownEndUse, eu)
		}
		if s.length >= 0 && len(series) != s.length {
			return nil, fmt.Errorf("baseline %s has %d values, want %d", eu, len(series), s.length)
		}
		s.length = len(series)
		s.baselines[eu] = slices.Clone(series)
	}
	if s.length < 0 {
		s.length = 0
	}

	grid := YearGrid(initialYear, targetYear)
	for eu, p := range s.curves {
		if !eu.IsValid() {
			return nil, fmt.Errorf("curve: %w %q", ErrUnknownEndUse, eu)
		}
		if !p.Enabled {
			continue
		}
		curve, err := NormalizedCurve(p, grid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", eu, err)
		}
		s.normalized[eu] = curve
	}
	return s, nil
}

// Len returns the number of records in each baseline series.
func (s *Scenario) Len() int {
	return s.length
}

// Curve returns the parameters of an end-use.
func (s *Scenario) Curve(eu model.EndUse) (CurveParams, bool) {
	p, ok := s.curves[eu]
	return p, ok
}

// Enabled returns the enabled end-uses in catalog order.
func (s *Scenario) Enabled() []model.EndUse {
	var out []model.EndUse
	for _, eu := range model.EndUses {
		if _, ok := s.normalized[eu]; ok {
			out = append(out, eu)
		}
	}
	return out
}

// ClampYear limits a study year to [InitialYear, TargetYear].
func (s *Scenario) ClampYear(year int) int {
	return max(s.InitialYear, min(s.TargetYear, year))
}

// Fraction returns the adoption fraction of an end-use in a study year,
// read from the normalised curve at the nearest grid point. Disabled
// end-uses return 0.
func (s *Scenario) Fraction(eu model.EndUse, year int) float64 {
	curve, ok := s.normalized[eu]
	if !ok {
		return 0
	}
	return curve[nearestIndex(s.ClampYear(year), s.InitialYear, s.TargetYear)]
}

// Projection is the incremental electric demand of a study year.
type Projection struct {
	// StudyYear is the year after clamping to the scenario range.
	StudyYear int
	Fractions map[model.EndUse]float64
	// Contributions holds one series per enabled end-use only.
	Contributions map[model.EndUse][]float64
	// NewSupply is the sum of the contributions.
	NewSupply []float64
}

// ProjectSupply converts the enabled end-use baselines into new electric
// demand for a study year. Years past TargetYear are clamped to it and years
// before InitialYear to InitialYear.
func (s *Scenario) ProjectSupply(studyYear int) *Projection {
	year := s.ClampYear(studyYear)
	p := &Projection{
		StudyYear:     year,
		Fractions:     make(map[model.EndUse]float64),
		Contributions: make(map[model.EndUse][]float64),
		NewSupply:     make([]float64, s.length),
	}

	for _, eu := range s.Enabled() {
		frac := s.Fraction(eu, year)
		contribution := make([]float64, s.length)
		if baseline, ok := s.baselines[eu]; ok {
			floats.ScaleTo(contribution, frac, baseline)
		}
		floats.Add(p.NewSupply, contribution)
		p.Fractions[eu] = frac
		p.Contributions[eu] = contribution
	}
	return p
}
