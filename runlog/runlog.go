// Package runlog keeps an audit trail of digest runs in SQLite. It records
// what each run did; it is never consulted to decide what a run sends.
package runlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run statuses.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Run is one recorded run.
type Run struct {
	RunID            uuid.UUID `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	DateLabel        string    `json:"date_label"`
	Mode             string    `json:"mode"`
	ItemCount        int       `json:"item_count"`
	PromotionalCount int       `json:"promotional_count"`
	Status           string    `json:"status"`
	Error            *string   `json:"error,omitempty"`
}

// Timestamps are stored in UTC with fixed-width fractions so that text
// ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the run log database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the run log at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		date_label TEXT NOT NULL,
		mode TEXT NOT NULL,
		item_count INTEGER NOT NULL DEFAULT 0,
		promotional_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts run.
func (s *Store) Record(run Run) error {
	query := `
		INSERT INTO runs (
			run_id, started_at, date_label, mode,
			item_count, promotional_count, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.RunID.String(),
		run.StartedAt.UTC().Format(timeLayout),
		run.DateLabel,
		run.Mode,
		run.ItemCount,
		run.PromotionalCount,
		run.Status,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// List returns up to limit runs, most recent first. A limit of zero or less
// returns every run.
func (s *Store) List(limit int) ([]Run, error) {
	query := `
		SELECT run_id, started_at, date_label, mode,
			item_count, promotional_count, status, error
		FROM runs
		ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run       Run
			runID     string
			startedAt string
			errText   sql.NullString
		)

		if err := rows.Scan(
			&runID, &startedAt, &run.DateLabel, &run.Mode,
			&run.ItemCount, &run.PromotionalCount, &run.Status, &errText,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.RunID, err = uuid.Parse(runID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run_id: %w", err)
		}
		run.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if errText.Valid {
			run.Error = &errText.String
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
