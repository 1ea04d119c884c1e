package store

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

// Store holds loaded datasets in memory, keyed by name. Tables are treated
// as read-only once added.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*timeseries.Table
	order  []string
}

func New() *Store {
	return &Store{
		tables: make(map[string]*timeseries.Table),
	}
}

// Add registers a validated table under name, replacing any previous one.
func (s *Store) Add(name string, t *timeseries.Table) error {
	if name == "" {
		return fmt.Errorf("dataset name must not be empty")
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("dataset %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tables[name]; !exists {
		s.order = append(s.order, name)
	}
	s.tables[name] = t
	return nil
}

// Table returns the table registered under name.
func (s *Store) Table(name string) (*timeseries.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

// Names returns dataset names in the order they were added.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// RowCount returns the number of rows of a dataset.
func (s *Store) RowCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[name]; ok {
		return t.Len()
	}
	return 0
}

// TimeRange returns the time range covered by a dataset.
func (s *Store) TimeRange(name string) (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return model.TimeRange{}, false
	}
	return t.TimeRange()
}

// GlobalTimeRange returns the union of all datasets' time ranges.
func (s *Store) GlobalTimeRange() (model.TimeRange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var start, end time.Time
	first := true

	for _, t := range s.tables {
		tr, ok := t.TimeRange()
		if !ok {
			continue
		}
		if first || tr.Start.Before(start) {
			start = tr.Start
		}
		if first || tr.End.After(end) {
			end = tr.End
		}
		first = false
	}

	if first {
		return model.TimeRange{}, false
	}
	return model.TimeRange{Start: start, End: end}, true
}

// RowsInRange returns the rows of a dataset between start (inclusive) and end
// (exclusive) as a new table.
func (s *Store) RowsInRange(name string, start, end time.Time) (*timeseries.Table, bool) {
	return s.window(name, start, end, false)
}

// Window is RowsInRange plus the first row at or after end, when there is
// one. The extra row takes the place of the boundary row that ends every
// NREL file, so the window can go straight to timeseries.Aggregate.
func (s *Store) Window(name string, start, end time.Time) (*timeseries.Table, bool) {
	return s.window(name, start, end, true)
}

func (s *Store) window(name string, start, end time.Time, boundary bool) (*timeseries.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, false
	}

	ts := t.Timestamps
	startIdx := sort.Search(len(ts), func(i int) bool {
		return !ts[i].Before(start)
	})
	endIdx := sort.Search(len(ts), func(i int) bool {
		return !ts[i].Before(end)
	})
	if startIdx >= endIdx {
		return timeseries.NewTable(nil), true
	}
	if boundary && endIdx < len(ts) {
		endIdx++
	}

	out := timeseries.NewTable(slices.Clone(ts[startIdx:endIdx]))
	out.Columns = slices.Clone(t.Columns)
	for col, v := range t.Values {
		out.Values[col] = slices.Clone(v[startIdx:endIdx])
	}
	for col, v := range t.Text {
		out.Text[col] = slices.Clone(v[startIdx:endIdx])
	}
	return out, true
}
