package timeseries

import (
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"

	"loadshape_toolkit/internal/model"
)

const HoursPerDay = 24

// Loadshape is a representative day: one value per hour 0-23 for every
// column. An empty Loadshape (no rows) means the filters selected nothing.
type Loadshape struct {
	Columns []string
	Values  map[string][]float64
	// Days is the number of calendar days that contributed.
	Days int
	// Interval is the sampling interval of the source table.
	Interval time.Duration
}

func newLoadshape(columns []string, interval time.Duration) *Loadshape {
	return &Loadshape{
		Columns:  slices.Clone(columns),
		Values:   make(map[string][]float64, len(columns)),
		Interval: interval,
	}
}

// Len returns the number of hourly rows: HoursPerDay, or 0 when empty.
func (l *Loadshape) Len() int {
	for _, v := range l.Values {
		return len(v)
	}
	return 0
}

// Empty reports whether no data survived filtering.
func (l *Loadshape) Empty() bool {
	return l.Len() == 0
}

func (l *Loadshape) Column(name string) ([]float64, bool) {
	v, ok := l.Values[name]
	return v, ok
}

// SetColumn adds or replaces an hourly column.
func (l *Loadshape) SetColumn(name string, values []float64) error {
	if len(values) != HoursPerDay {
		return fmt.Errorf("column %q has %d values, want %d", name, len(values), HoursPerDay)
	}
	if _, exists := l.Values[name]; !exists {
		l.Columns = append(l.Columns, name)
	}
	l.Values[name] = values
	return nil
}

func (l *Loadshape) Clone() *Loadshape {
	c := newLoadshape(l.Columns, l.Interval)
	c.Days = l.Days
	for name, v := range l.Values {
		c.Values[name] = slices.Clone(v)
	}
	return c
}

// Rotate returns a copy shifted circularly by offset hours: hour h of the
// result holds hour h-offset of l. A negative offset moves values earlier.
func (l *Loadshape) Rotate(offset int) *Loadshape {
	c := l.Clone()
	if l.Empty() {
		return c
	}
	for name, v := range l.Values {
		out := c.Values[name]
		for h := range v {
			src := ((h-offset)%HoursPerDay + HoursPerDay) % HoursPerDay
			out[h] = v[src]
		}
	}
	return c
}

// ShiftTimezone re-expresses an EST loadshape in another US timezone.
func (l *Loadshape) ShiftTimezone(tz model.Timezone) (*Loadshape, error) {
	off, err := tz.OffsetFromEST()
	if err != nil {
		return nil, err
	}
	// Hour h in CST is hour h+1 in EST, so values move one row earlier.
	return l.Rotate(off), nil
}

// SumLoadshapes adds loadshapes column by column, for instance to total
// every home type of a region. Empty inputs are skipped; columns missing
// from some inputs count as zero. The result is empty if every input is.
func SumLoadshapes(shapes []*Loadshape) *Loadshape {
	var total *Loadshape
	for _, ls := range shapes {
		if ls == nil || ls.Empty() {
			continue
		}
		if total == nil {
			total = newLoadshape(nil, ls.Interval)
		}
		for _, name := range ls.Columns {
			acc, ok := total.Values[name]
			if !ok {
				acc = make([]float64, HoursPerDay)
				total.Columns = append(total.Columns, name)
				total.Values[name] = acc
			}
			floats.Add(acc, ls.Values[name])
		}
		if ls.Days > total.Days {
			total.Days = ls.Days
		}
	}
	if total == nil {
		return newLoadshape(nil, 0)
	}
	return total
}
