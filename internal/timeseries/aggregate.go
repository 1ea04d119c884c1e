package timeseries

import (
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"loadshape_toolkit/internal/model"
)

const minutesPerDay = 24 * 60

// Aggregate reduces a full-year table into a representative 24-hour
// loadshape.
//
// The final row is dropped (see TrimBoundary), rows are filtered by month
// window and day type, and the remaining rows are grouped by time of day.
// ModeAverage takes the mean of each time-of-day slot across days and
// ModeSum the sum. ModePeakDay ignores the filters and extracts the calendar
// day holding the annual maximum of "Electricity Total". In every mode the
// slots inside an hour are then averaged, so the result has 24 rows whatever
// the sampling interval. Text columns are dropped.
//
// A filter that selects no rows yields an empty Loadshape and a nil error.
func Aggregate(t *Table, spec Spec) (*Loadshape, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var interval time.Duration
	if t.Len() > 1 {
		interval, _ = DetectInterval(t.Timestamps)
	}
	trimmed := TrimBoundary(t)

	switch spec.Mode {
	case ModeAverage, ModeSum:
		rows := make([]int, 0, trimmed.Len())
		for i, ts := range trimmed.Timestamps {
			if spec.includes(ts) {
				rows = append(rows, i)
			}
		}
		return reduceSlots(trimmed, rows, spec.Mode == ModeSum, interval), nil
	case ModePeakDay:
		rows, err := peakDayRows(trimmed)
		if err != nil {
			return nil, err
		}
		return reduceSlots(trimmed, rows, false, interval), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAggregationMode, spec.Mode)
	}
}

// peakDayRows returns the rows of the calendar day holding the first
// occurrence of the maximum "Electricity Total".
func peakDayRows(t *Table) ([]int, error) {
	elec, ok := t.Column(model.ColElectricityTotal)
	if !ok {
		return nil, fmt.Errorf("peak day: %w %q", ErrMissingColumn, model.ColElectricityTotal)
	}
	if len(elec) == 0 {
		return nil, nil
	}
	peak := t.Timestamps[floats.MaxIdx(elec)]

	var rows []int
	for i, ts := range t.Timestamps {
		if ts.Month() == peak.Month() && ts.Day() == peak.Day() {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

// reduceSlots groups rows by minute of day, reduces each slot across days
// (sum or mean), then averages the slots inside each hour.
func reduceSlots(t *Table, rows []int, sum bool, interval time.Duration) *Loadshape {
	ls := newLoadshape(t.Columns, interval)
	if len(rows) == 0 {
		return ls
	}

	slot := make([]int, len(rows))
	var slotCount [minutesPerDay]int
	days := make(map[string]struct{})
	for k, i := range rows {
		ts := t.Timestamps[i]
		slot[k] = ts.Hour()*60 + ts.Minute()
		slotCount[slot[k]]++
		days[ts.Format(time.DateOnly)] = struct{}{}
	}
	ls.Days = len(days)

	bucket := make([]float64, 0, 60)
	for _, name := range t.Columns {
		values := t.Values[name]
		var slotSum [minutesPerDay]float64
		for k, i := range rows {
			slotSum[slot[k]] += values[i]
		}

		hourly := make([]float64, HoursPerDay)
		for h := range hourly {
			bucket = bucket[:0]
			for m := h * 60; m < (h+1)*60; m++ {
				if slotCount[m] == 0 {
					continue
				}
				v := slotSum[m]
				if !sum {
					v /= float64(slotCount[m])
				}
				bucket = append(bucket, v)
			}
			if len(bucket) == 0 {
				hourly[h] = math.NaN()
				continue
			}
			hourly[h] = stat.Mean(bucket, nil)
		}
		ls.Values[name] = hourly
	}
	return ls
}

// DetectInterval returns the median positive spacing between consecutive
// timestamps.
func DetectInterval(timestamps []time.Time) (time.Duration, error) {
	deltas := make([]time.Duration, 0, len(timestamps))
	for i := 1; i < len(timestamps); i++ {
		if d := timestamps[i].Sub(timestamps[i-1]); d > 0 {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) == 0 {
		return 0, &FormatError{Row: -1, Reason: "need at least two increasing timestamps to detect interval"}
	}
	slices.Sort(deltas)
	return deltas[len(deltas)/2], nil
}
