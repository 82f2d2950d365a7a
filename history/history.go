// Package history keeps a SQLite log of finished pipeline runs: one row
// per submission that reached the project stage.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lguimbarda/reportflow/report"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one finished run.
type Entry struct {
	ID           string        `json:"id"`
	SubmissionID string        `json:"submission_id"`
	URL          report.URL    `json:"url"`
	Outcome      report.Status `json:"outcome"`
	Error        string        `json:"error,omitempty"`
	TopTerms     []report.Term `json:"top_terms,omitempty"`
	RecordedAt   time.Time     `json:"recorded_at"`
}

// EntryFor builds the Entry for a terminal Result.
func EntryFor(sub report.Submission, r report.ProjectResult) Entry {
	e := Entry{SubmissionID: sub.ID, URL: sub.URL}
	if v, err, ok := r.Get(); ok {
		e.Outcome = report.StatusReport
		e.TopTerms = v.TopTerms
	} else {
		e.Outcome = report.StatusError
		e.Error = err.Error()
	}
	return e
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	submission_id TEXT NOT NULL,
	url TEXT NOT NULL,
	outcome TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	top_terms TEXT NOT NULL DEFAULT '[]',
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_recorded_at ON runs (recorded_at);
`

// Store is the run log.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at dsn and creates the schema if needed.
// ":memory:" gives a private in-memory log.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends e. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	e.RecordedAt = e.RecordedAt.UTC()

	terms, err := json.Marshal(e.TopTerms)
	if err != nil {
		return Entry{}, fmt.Errorf("encode top terms: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, submission_id, url, outcome, error, top_terms, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SubmissionID, string(e.URL), e.Outcome.String(), e.Error, string(terms), e.RecordedAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert run: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	return queryAll(ctx, s.db, scanEntry,
		`SELECT id, submission_id, url, outcome, error, top_terms, recorded_at
		 FROM runs ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
}

// scanner converts the current row into a value.
type scanner[T any] func(*sql.Rows) (T, error)

func queryAll[T any](ctx context.Context, db *sql.DB, scan scanner[T], query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e       Entry
		url     string
		outcome string
		terms   string
		nanos   int64
	)
	if err := rows.Scan(&e.ID, &e.SubmissionID, &url, &outcome, &e.Error, &terms, &nanos); err != nil {
		return Entry{}, err
	}
	e.URL = report.URL(url)
	e.Outcome = parseOutcome(outcome)
	e.RecordedAt = time.Unix(0, nanos).UTC()
	if err := json.Unmarshal([]byte(terms), &e.TopTerms); err != nil {
		return Entry{}, fmt.Errorf("decode top terms of run %s: %w", e.ID, err)
	}
	return e, nil
}

func parseOutcome(s string) report.Status {
	if s == report.StatusReport.String() {
		return report.StatusReport
	}
	return report.StatusError
}
