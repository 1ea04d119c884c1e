package timeseries

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how the days of a window are reduced into one loadshape.
// The zero value is invalid.
type Mode int

const (
	ModeAverage Mode = iota + 1
	ModeSum
	ModePeakDay
)

func (m Mode) String() string {
	switch m {
	case ModeAverage:
		return "avg"
	case ModeSum:
		return "sum"
	case ModePeakDay:
		return "peak_day"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the names used by the CLI, config file and WebSocket API.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "avg", "average", "mean":
		return ModeAverage, nil
	case "sum":
		return ModeSum, nil
	case "peak_day", "peak-day", "peakday":
		return ModePeakDay, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAggregationMode, s)
	}
}

// DayType filters rows by weekday. The zero value keeps every day.
type DayType int

const (
	DayTypeAll DayType = iota
	DayTypeWeekday
	DayTypeWeekend
)

func (d DayType) String() string {
	switch d {
	case DayTypeAll:
		return "all"
	case DayTypeWeekday:
		return "weekday"
	case DayTypeWeekend:
		return "weekend"
	default:
		return fmt.Sprintf("DayType(%d)", int(d))
	}
}

func ParseDayType(s string) (DayType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "none":
		return DayTypeAll, nil
	case "weekday":
		return DayTypeWeekday, nil
	case "weekend":
		return DayTypeWeekend, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDayType, s)
	}
}

// Matches reports whether a weekday passes the filter.
// Monday through Friday are weekdays, Saturday and Sunday the weekend.
func (d DayType) Matches(wd time.Weekday) bool {
	weekend := wd == time.Saturday || wd == time.Sunday
	switch d {
	case DayTypeWeekday:
		return !weekend
	case DayTypeWeekend:
		return weekend
	default:
		return true
	}
}

// Spec configures Aggregate. The month window is half-open:
// [MonthStart, MonthEnd) with 1 <= MonthStart < MonthEnd <= 13.
type Spec struct {
	Mode       Mode
	MonthStart int
	MonthEnd   int
	DayType    DayType
}

// DefaultSpec averages the whole year over every day.
func DefaultSpec() Spec {
	start, end := WholeYear()
	return Spec{Mode: ModeAverage, MonthStart: start, MonthEnd: end}
}

func WholeYear() (start, end int) { return 1, 13 }

// MonthWindow returns the window selecting a single calendar month.
func MonthWindow(m time.Month) (start, end int) { return int(m), int(m) + 1 }

// seasonWindows are the seasons offered by the interactive tool.
var seasonWindows = map[string][2]int{
	"winter": {1, 3},
	"spring": {3, 6},
	"summer": {6, 9},
	"fall":   {9, 12},
}

// SeasonWindow returns the month window of a named season, or of the whole
// year for "all-year".
func SeasonWindow(name string) (start, end int, err error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "all-year" || name == "year" {
		start, end = WholeYear()
		return start, end, nil
	}
	w, ok := seasonWindows[name]
	if !ok {
		return 0, 0, fmt.Errorf("unknown season %q", name)
	}
	return w[0], w[1], nil
}

// Validate rejects unknown modes, unknown day types and empty or
// out-of-range month windows.
func (s Spec) Validate() error {
	switch s.Mode {
	case ModeAverage, ModeSum, ModePeakDay:
	default:
		return fmt.Errorf("%w: %v", ErrInvalidAggregationMode, s.Mode)
	}
	switch s.DayType {
	case DayTypeAll, DayTypeWeekday, DayTypeWeekend:
	default:
		return fmt.Errorf("%w: %v", ErrInvalidDayType, s.DayType)
	}
	if s.MonthStart < 1 || s.MonthEnd > 13 || s.MonthStart >= s.MonthEnd {
		return fmt.Errorf("%w: month window [%d, %d)", ErrDegenerateScenario, s.MonthStart, s.MonthEnd)
	}
	return nil
}

func (s Spec) String() string {
	return fmt.Sprintf("%s months=[%d,%d) days=%s", s.Mode, s.MonthStart, s.MonthEnd, s.DayType)
}

// includes reports whether a timestamp passes the month and day-type filters.
func (s Spec) includes(ts time.Time) bool {
	m := int(ts.Month())
	if m < s.MonthStart || m >= s.MonthEnd {
		return false
	}
	return s.DayType.Matches(ts.Weekday())
}
