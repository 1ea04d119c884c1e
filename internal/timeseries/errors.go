package timeseries

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is matched by every *FormatError.
	ErrFormat                 = errors.New("malformed datetime index")
	ErrInvalidAggregationMode = errors.New("invalid aggregation mode")
	ErrInvalidDayType         = errors.New("invalid day type")
	ErrDegenerateScenario     = errors.New("degenerate scenario")
	ErrMissingColumn          = errors.New("missing column")
)

// FormatError reports a table whose timestamp key cannot serve as an
// increasing datetime index. Row is -1 when the problem is not tied to a row.
type FormatError struct {
	Row    int
	Reason string
}

func (e *FormatError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%v: %s", ErrFormat, e.Reason)
	}
	return fmt.Sprintf("%v: row %d: %s", ErrFormat, e.Row, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrFormat }
