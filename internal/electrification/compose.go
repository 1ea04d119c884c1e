package electrification

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

// Compose returns a copy of t with the projected "New Supply" and the
// resulting "New Electricity Total" columns added.
func Compose(t *timeseries.Table, newSupply []float64) (*timeseries.Table, error) {
	elec, ok := t.Column(model.ColElectricityTotal)
	if !ok {
		return nil, fmt.Errorf("compose: %w %q", timeseries.ErrMissingColumn, model.ColElectricityTotal)
	}
	if len(newSupply) != t.Len() {
		return nil, fmt.Errorf("compose: new supply has %d values, table has %d rows", len(newSupply), t.Len())
	}

	out := t.Clone()
	supply := make([]float64, len(newSupply))
	copy(supply, newSupply)
	total := make([]float64, len(elec))
	floats.AddTo(total, elec, supply)

	if err := out.SetColumn(model.ColNewSupply, supply); err != nil {
		return nil, err
	}
	if err := out.SetColumn(model.ColNewElectricityTotal, total); err != nil {
		return nil, err
	}
	return out, nil
}

// BaselinesFromTable builds the non-electric series of every end-use by
// adding up that end-use's fuel columns. Fuel columns missing from t are
// skipped, so an end-use with none of its columns present gets zeros.
func BaselinesFromTable(t *timeseries.Table) map[model.EndUse][]float64 {
	baselines := make(map[model.EndUse][]float64, len(model.EndUses))
	for _, eu := range model.EndUses {
		acc := make([]float64, t.Len())
		for _, col := range model.EndUseCatalog[eu].FuelColumns {
			if v, ok := t.Column(col); ok {
				floats.Add(acc, v)
			}
		}
		baselines[eu] = acc
	}
	return baselines
}

// ApplyFlat electrifies a fixed fraction of the given non-electric columns:
// "New Supply" = fraction × their sum, "Load Growth" = New Supply divided by
// "Electricity Total" (0 where the latter is 0).
func ApplyFlat(t *timeseries.Table, fraction float64, nonElectric []string) (*timeseries.Table, error) {
	if fraction < 0 {
		return nil, fmt.Errorf("electrification fraction must not be negative, got %v", fraction)
	}
	elec, ok := t.Column(model.ColElectricityTotal)
	if !ok {
		return nil, fmt.Errorf("apply: %w %q", timeseries.ErrMissingColumn, model.ColElectricityTotal)
	}

	supply := make([]float64, t.Len())
	for _, col := range nonElectric {
		v, ok := t.Column(col)
		if !ok {
			return nil, fmt.Errorf("apply: %w %q", timeseries.ErrMissingColumn, col)
		}
		floats.Add(supply, v)
	}
	floats.Scale(fraction, supply)

	growth := make([]float64, t.Len())
	for i, e := range elec {
		if e != 0 {
			growth[i] = supply[i] / e
		}
	}

	out := t.Clone()
	if err := out.SetColumn(model.ColNewSupply, supply); err != nil {
		return nil, err
	}
	if err := out.SetColumn(model.ColLoadGrowth, growth); err != nil {
		return nil, err
	}
	return out, nil
}
