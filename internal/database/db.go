package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"loadshape_toolkit/internal/analysis"
	"loadshape_toolkit/internal/timeseries"
)

// Run is one stored aggregation or projection result.
type Run struct {
	ID         string
	Dataset    string
	Mode       string
	MonthStart int
	MonthEnd   int
	DayType    string
	Timezone   string
	// StudyYear is 0 for plain aggregations.
	StudyYear       int
	IntervalMinutes float64
	Days            int
	CreatedAt       time.Time
	Published       bool
	// Summary is nil for plain aggregations.
	Summary *analysis.Summary
	Columns []string
	Values  map[string][]float64
}

// NewRun captures a loadshape and the aggregation settings that produced it.
func NewRun(dataset string, spec timeseries.Spec, ls *timeseries.Loadshape) *Run {
	r := &Run{
		Dataset:    dataset,
		Mode:       spec.Mode.String(),
		MonthStart: spec.MonthStart,
		MonthEnd:   spec.MonthEnd,
		DayType:    spec.DayType.String(),
		Days:       ls.Days,
		Columns:    append([]string(nil), ls.Columns...),
		Values:     make(map[string][]float64, len(ls.Columns)),
	}
	if ls.Interval > 0 {
		r.IntervalMinutes = ls.Interval.Minutes()
	}
	for _, col := range ls.Columns {
		r.Values[col] = append([]float64(nil), ls.Values[col]...)
	}
	return r
}

// Loadshape rebuilds the stored hourly table.
func (r *Run) Loadshape() *timeseries.Loadshape {
	ls := &timeseries.Loadshape{
		Columns:  append([]string(nil), r.Columns...),
		Values:   make(map[string][]float64, len(r.Columns)),
		Days:     r.Days,
		Interval: time.Duration(r.IntervalMinutes * float64(time.Minute)),
	}
	for _, col := range r.Columns {
		ls.Values[col] = append([]float64(nil), r.Values[col]...)
	}
	return ls
}

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		dataset TEXT NOT NULL,
		mode TEXT NOT NULL,
		month_start INTEGER NOT NULL,
		month_end INTEGER NOT NULL,
		day_type TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT '',
		study_year INTEGER NOT NULL DEFAULT 0,
		interval_minutes REAL NOT NULL DEFAULT 0,
		days INTEGER NOT NULL DEFAULT 0,
		summary TEXT,
		created_at TEXT NOT NULL,
		published INTEGER DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS run_values (
		run_id TEXT NOT NULL REFERENCES runs(id),
		column_index INTEGER NOT NULL,
		column_name TEXT NOT NULL,
		hour INTEGER NOT NULL,
		value REAL,
		PRIMARY KEY (run_id, column_name, hour)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun stores a run and its hourly values in one transaction. An empty
// ID is filled with a new UUID and a zero CreatedAt with the current time.
func (db *DB) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	var summary sql.NullString
	if run.Summary != nil {
		data, err := json.Marshal(run.Summary)
		if err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		summary = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO runs (id, dataset, mode, month_start, month_end, day_type, timezone,
		study_year, interval_minutes, days, summary, created_at, published)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Dataset, run.Mode, run.MonthStart, run.MonthEnd, run.DayType, run.Timezone,
		run.StudyYear, run.IntervalMinutes, run.Days, summary,
		run.CreatedAt.UTC().Format(time.RFC3339), boolToInt(run.Published))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO run_values (run_id, column_index, column_name, hour, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing value insert: %w", err)
	}
	defer stmt.Close()

	for ci, col := range run.Columns {
		for hour, v := range run.Values[col] {
			// SQLite has no NaN; an empty hour is stored as NULL.
			var value sql.NullFloat64
			if !math.IsNaN(v) {
				value = sql.NullFloat64{Float64: v, Valid: true}
			}
			if _, err := stmt.Exec(run.ID, ci, col, hour, value); err != nil {
				return fmt.Errorf("inserting %s hour %d: %w", col, hour, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

const runColumns = `id, dataset, mode, month_start, month_end, day_type, timezone,
	study_year, interval_minutes, days, summary, created_at, published`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run       Run
		summary   sql.NullString
		createdAt string
		published int
	)
	err := row.Scan(&run.ID, &run.Dataset, &run.Mode, &run.MonthStart, &run.MonthEnd, &run.DayType,
		&run.Timezone, &run.StudyYear, &run.IntervalMinutes, &run.Days, &summary, &createdAt, &published)
	if err != nil {
		return nil, err
	}

	run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	run.Published = published != 0

	if summary.Valid {
		var s analysis.Summary
		if err := json.Unmarshal([]byte(summary.String), &s); err != nil {
			return nil, fmt.Errorf("decoding summary: %w", err)
		}
		run.Summary = &s
	}
	return &run, nil
}

// ListRuns returns stored runs without their hourly values, newest first.
// A limit of 0 returns every run.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetRun returns a run with its hourly values, or nil if it does not exist.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	rows, err := db.conn.Query(`
	SELECT column_name, hour, value
	FROM run_values
	WHERE run_id = ?
	ORDER BY column_index, hour
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying run values: %w", err)
	}
	defer rows.Close()

	run.Values = make(map[string][]float64)
	for rows.Next() {
		var (
			col   string
			hour  int
			value sql.NullFloat64
		)
		if err := rows.Scan(&col, &hour, &value); err != nil {
			return nil, fmt.Errorf("scanning run value: %w", err)
		}
		if _, ok := run.Values[col]; !ok {
			run.Columns = append(run.Columns, col)
		}
		v := math.NaN()
		if value.Valid {
			v = value.Float64
		}
		run.Values[col] = append(run.Values[col], v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return run, nil
}

// MarkPublished flags a run as published
func (db *DB) MarkPublished(id string) error {
	res, err := db.conn.Exec(`UPDATE runs SET published = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking run published: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
