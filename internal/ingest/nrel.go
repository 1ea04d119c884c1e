package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

// timestampLayouts are tried in order for the datetime column.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
}

// NRELParser parses NREL ResStock/ComStock timeseries aggregate CSV files.
//
// Expected format:
//
//	timestamp,out.electricity.total.energy_consumption.kwh,out.natural_gas.total.energy_consumption.kwh,...
//	2018-01-01 00:15:00,1234.5,678.9,...
//
// Raw headers are renamed to canonical columns (see model.NRELColumnMapping).
// Unknown columns keep their header; a column whose every cell parses as a
// number is numeric, anything else is carried as text. A file may instead
// split the datetime into "Date" and "Time" columns.
type NRELParser struct {
	// Location interprets timestamps without a zone. Nil means UTC.
	Location *time.Location
}

func NewNRELParser() *NRELParser {
	return &NRELParser{Location: time.UTC}
}

func (p *NRELParser) Parse(r io.Reader) (*timeseries.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols, err := canonicalHeader(header)
	if err != nil {
		return nil, err
	}
	tsIdx, dateIdx, timeIdx := locateTime(cols)
	if tsIdx < 0 && (dateIdx < 0 || timeIdx < 0) {
		return nil, &timeseries.FormatError{Row: -1, Reason: "no timestamp column (or Date and Time columns) in header"}
	}

	var (
		timestamps []time.Time
		cells      = make([][]string, len(cols))
	)
	lineNum := 1 // header was line 1

	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		var raw string
		if tsIdx >= 0 {
			raw = record[tsIdx]
		} else {
			raw = strings.TrimSpace(record[dateIdx]) + " " + strings.TrimSpace(record[timeIdx])
		}
		ts, err := p.parseTimestamp(raw)
		if err != nil {
			return nil, &timeseries.FormatError{Row: lineNum, Reason: err.Error()}
		}
		timestamps = append(timestamps, ts)

		for i, v := range record {
			cells[i] = append(cells[i], strings.TrimSpace(v))
		}
	}

	t := timeseries.NewTable(timestamps)
	for i, name := range cols {
		if i == tsIdx || i == dateIdx || i == timeIdx {
			continue
		}
		if values, blanks, ok := parseNumeric(cells[i]); ok {
			if blanks > 0 {
				log.Printf("Column %q: %d blank cells read as 0", name, blanks)
			}
			if err := t.SetColumn(name, values); err != nil {
				return nil, err
			}
			continue
		}
		if err := t.SetText(name, cells[i]); err != nil {
			return nil, err
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func canonicalHeader(header []string) ([]string, error) {
	cols := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		col := model.CanonicalColumn(strings.TrimPrefix(h, "\ufeff"))
		if col == "" {
			return nil, fmt.Errorf("column %d has an empty header", i+1)
		}
		if j, dup := seen[col]; dup {
			return nil, fmt.Errorf("columns %d and %d both map to %q", j+1, i+1, col)
		}
		seen[col] = i
		cols[i] = col
	}
	return cols, nil
}

func locateTime(cols []string) (tsIdx, dateIdx, timeIdx int) {
	tsIdx, dateIdx, timeIdx = -1, -1, -1
	for i, c := range cols {
		switch strings.ToLower(c) {
		case strings.ToLower(model.ColDatetime):
			tsIdx = i
		case "date":
			dateIdx = i
		case "time":
			timeIdx = i
		}
	}
	return tsIdx, dateIdx, timeIdx
}

// parseTimestamp accepts the layouts in timestampLayouts. An hour of 24,
// which some exports use for midnight at the end of a day, becomes 00 of
// the next day.
func (p *NRELParser) parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	rollover := false
	if date, rest, ok := strings.Cut(s, " "); ok && strings.HasPrefix(rest, "24:") {
		s = date + " 00:" + rest[3:]
		rollover = true
	}

	for _, layout := range timestampLayouts {
		ts, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}
		if rollover {
			ts = ts.AddDate(0, 0, 1)
		}
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// parseNumeric parses a column whose non-blank cells are all numbers.
// Blank cells read as 0 and are counted. A column with no non-blank cell is
// not numeric.
func parseNumeric(cells []string) (values []float64, blanks int, ok bool) {
	values = make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			blanks++
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, 0, false
		}
		values[i] = v
	}
	if blanks == len(cells) {
		return nil, 0, false
	}
	return values, blanks, true
}
