package timeseries

import (
	"fmt"
	"slices"
	"time"

	"loadshape_toolkit/internal/model"
)

// Table is a timestamp-keyed set of numeric energy columns, one value per
// timestamp. Columns keeps insertion order. Text holds non-numeric columns,
// which are carried along but never aggregated.
type Table struct {
	Timestamps []time.Time
	Columns    []string
	Values     map[string][]float64
	Text       map[string][]string
}

func NewTable(timestamps []time.Time) *Table {
	return &Table{
		Timestamps: timestamps,
		Values:     make(map[string][]float64),
		Text:       make(map[string][]string),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Timestamps)
}

// SetColumn adds or replaces a numeric column.
func (t *Table) SetColumn(name string, values []float64) error {
	if len(values) != len(t.Timestamps) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.Timestamps))
	}
	if t.Values == nil {
		t.Values = make(map[string][]float64)
	}
	if _, exists := t.Values[name]; !exists {
		t.Columns = append(t.Columns, name)
	}
	t.Values[name] = values
	return nil
}

// SetText adds or replaces a non-numeric column.
func (t *Table) SetText(name string, values []string) error {
	if len(values) != len(t.Timestamps) {
		return fmt.Errorf("text column %q has %d values, table has %d rows", name, len(values), len(t.Timestamps))
	}
	if t.Text == nil {
		t.Text = make(map[string][]string)
	}
	t.Text[name] = values
	return nil
}

// Column returns the values of a numeric column.
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.Values[name]
	return v, ok
}

// HasColumn reports whether a numeric column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Values[name]
	return ok
}

// Validate checks that the timestamps form a well-formed increasing datetime
// index and that every column matches it in length.
func (t *Table) Validate() error {
	if t == nil || len(t.Timestamps) == 0 {
		return &FormatError{Row: -1, Reason: "table has no datetime index"}
	}
	for i, ts := range t.Timestamps {
		if ts.IsZero() {
			return &FormatError{Row: i, Reason: "zero timestamp"}
		}
		if i > 0 && !ts.After(t.Timestamps[i-1]) {
			return &FormatError{Row: i, Reason: fmt.Sprintf("timestamp %s not after %s",
				ts.Format(time.RFC3339), t.Timestamps[i-1].Format(time.RFC3339))}
		}
	}
	for _, name := range t.Columns {
		if n := len(t.Values[name]); n != len(t.Timestamps) {
			return &FormatError{Row: -1, Reason: fmt.Sprintf("column %q has %d values for %d timestamps", name, n, len(t.Timestamps))}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := NewTable(slices.Clone(t.Timestamps))
	c.Columns = slices.Clone(t.Columns)
	for name, v := range t.Values {
		c.Values[name] = slices.Clone(v)
	}
	for name, v := range t.Text {
		c.Text[name] = slices.Clone(v)
	}
	return c
}

// Head returns the first n rows. The result shares storage with t.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.Len() {
		n = t.Len()
	}
	h := NewTable(t.Timestamps[:n])
	h.Columns = t.Columns
	for name, v := range t.Values {
		h.Values[name] = v[:n]
	}
	for name, v := range t.Text {
		h.Text[name] = v[:n]
	}
	return h
}

// TimeRange returns the first and last timestamp.
func (t *Table) TimeRange() (model.TimeRange, bool) {
	if t.Len() == 0 {
		return model.TimeRange{}, false
	}
	return model.TimeRange{
		Start: t.Timestamps[0],
		End:   t.Timestamps[t.Len()-1],
	}, true
}

// TrimBoundary drops the final row. Year-long pulls carry one extra record
// at the first instant of the following year; the drop is positional and
// callers must ensure the convention holds.
func TrimBoundary(t *Table) *Table {
	if t.Len() == 0 {
		return t
	}
	return t.Head(t.Len() - 1)
}
