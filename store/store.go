// Package store persists formation timelines in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/LdDl/formation-go/formation"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// schema.sql defines one row per generator run and one row per timeline entry.
//
//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned when a run identifier is unknown
var ErrRunNotFound = errors.New("formation run not found")

// Run describes a single generator run
type Run struct {
	RunID         uuid.UUID `json:"run_id"`
	Source        string    `json:"source"`
	Notes         string    `json:"notes,omitempty"`
	NumDancers    int       `json:"num_dancers"`
	GridSize      int       `json:"grid_size"`
	FrameInterval int       `json:"frame_interval"`
	// Number of slots ever assigned
	Allocated int `json:"allocated"`
	// Number of slots the placer could not draw
	Dropped    int   `json:"dropped"`
	EntryCount int   `json:"entry_count"`
	CreatedAt  int64 `json:"created_at"`
}

// Store wraps SQLite connection
type Store struct {
	db *sql.DB
}

// Open opens (or creates) database at path and applies schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// Pragmas below are per connection
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "execute %q", pragma)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	return &Store{db: db}, nil
}

// Close closes database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists run metadata and its timeline entries in a single transaction.
// Empty RunID is replaced with a new UUID, zero CreatedAt with current time.
func (s *Store) SaveRun(ctx context.Context, run Run, entries []formation.Entry) (uuid.UUID, error) {
	if run.RunID == uuid.Nil {
		run.RunID = uuid.New()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}
	run.EntryCount = len(entries)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO formation_runs (
			run_id, source, notes, num_dancers, grid_size, frame_interval,
			allocated, dropped, entry_count, created_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID.String(), run.Source, run.Notes, run.NumDancers, run.GridSize, run.FrameInterval,
		run.Allocated, run.Dropped, run.EntryCount, run.CreatedAt,
	)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "insert run")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO formation_entries (run_id, seq, timestamp, position_matrix)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "prepare entry insert")
	}
	defer stmt.Close()
	for seq, entry := range entries {
		matrix, err := json.Marshal(entry.PositionMatrix)
		if err != nil {
			return uuid.Nil, errors.Wrapf(err, "encode matrix of entry %d", seq)
		}
		if _, err := stmt.ExecContext(ctx, run.RunID.String(), seq, entry.Timestamp, string(matrix)); err != nil {
			return uuid.Nil, errors.Wrapf(err, "insert entry %d", seq)
		}
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, errors.Wrap(err, "commit")
	}
	return run.RunID, nil
}

// GetRun returns run metadata
func (s *Store) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, source, notes, num_dancers, grid_size, frame_interval,
		       allocated, dropped, entry_count, created_at_ns
		FROM formation_runs
		WHERE run_id = ?`, runID.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return run, err
}

// LoadEntries returns timeline entries of the run in append order
func (s *Store) LoadEntries(ctx context.Context, runID uuid.UUID) ([]formation.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, position_matrix
		FROM formation_entries
		WHERE run_id = ?
		ORDER BY seq`, runID.String())
	if err != nil {
		return nil, errors.Wrap(err, "query entries")
	}
	defer rows.Close()

	entries := make([]formation.Entry, 0)
	for rows.Next() {
		var entry formation.Entry
		var matrix string
		if err := rows.Scan(&entry.Timestamp, &matrix); err != nil {
			return nil, errors.Wrap(err, "scan entry")
		}
		if err := json.Unmarshal([]byte(matrix), &entry.PositionMatrix); err != nil {
			return nil, errors.Wrap(err, "decode matrix")
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// LoadRun returns run metadata together with its timeline
func (s *Store) LoadRun(ctx context.Context, runID uuid.UUID) (*Run, []formation.Entry, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.LoadEntries(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return run, entries, nil
}

// ListRuns returns runs ordered by creation time descending
func (s *Store) ListRuns(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source, notes, num_dancers, grid_size, frame_interval,
		       allocated, dropped, entry_count, created_at_ns
		FROM formation_runs
		ORDER BY created_at_ns DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes run and its entries
func (s *Store) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM formation_runs WHERE run_id = ?`, runID.String())
	if err != nil {
		return errors.Wrap(err, "delete run")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var id string
	var notes sql.NullString
	err := row.Scan(
		&id, &run.Source, &notes, &run.NumDancers, &run.GridSize, &run.FrameInterval,
		&run.Allocated, &run.Dropped, &run.EntryCount, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.RunID, err = uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrapf(err, "parse run id %q", id)
	}
	run.Notes = notes.String
	return &run, nil
}
