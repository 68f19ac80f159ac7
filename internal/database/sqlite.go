package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"recrypt/internal/database/migrations"
	"recrypt/internal/recrypt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements the recrypt.Journal interface using SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens the journal at path, creating it and applying any
// pending migrations. path can be a file path or ":memory:".
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal: %w", err)
	}

	return &SQLiteJournal{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// The pool is limited to one connection so ":memory:" databases stay shared.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

func (s *SQLiteJournal) StartRun(run *recrypt.Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, source, destination, recipient, started_at, status) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Destination, run.Recipient, run.StartedAt.UTC(), run.Status,
	)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) RecordEntry(runID string, entry *recrypt.Entry) error {
	_, err := s.db.Exec(
		`INSERT INTO entries (run_id, relative_path, kind, size, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		runID, entry.RelativePath, string(entry.Kind), entry.Size, entry.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording entry: %w", err)
	}
	return nil
}

func (s *SQLiteJournal) FinishRun(runID string, status string, finishedAt time.Time) error {
	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, finishedAt.UTC(), runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing run: no run with id %s", runID)
	}
	return nil
}

func (s *SQLiteJournal) ListRuns(limit int) ([]*recrypt.Run, error) {
	rows, err := s.db.Query(
		`SELECT id, source, destination, recipient, started_at, finished_at, status
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*recrypt.Run
	for rows.Next() {
		run := &recrypt.Run{}
		if err := rows.Scan(&run.ID, &run.Source, &run.Destination, &run.Recipient, &run.StartedAt, &run.FinishedAt, &run.Status); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteJournal) ListEntries(runID string) ([]*recrypt.Entry, error) {
	rows, err := s.db.Query(
		`SELECT relative_path, kind, size, recorded_at FROM entries WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var entries []*recrypt.Entry
	for rows.Next() {
		entry := &recrypt.Entry{}
		var kind string
		if err := rows.Scan(&entry.RelativePath, &kind, &entry.Size, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entry.Kind = recrypt.EntryKind(kind)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// FindRun returns a run by ID, or nil if there is none.
func (s *SQLiteJournal) FindRun(runID string) (*recrypt.Run, error) {
	run := &recrypt.Run{}
	err := s.db.QueryRow(
		`SELECT id, source, destination, recipient, started_at, finished_at, status FROM runs WHERE id = ?`,
		runID,
	).Scan(&run.ID, &run.Source, &run.Destination, &run.Recipient, &run.StartedAt, &run.FinishedAt, &run.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding run: %w", err)
	}
	return run, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteJournal) Path() string {
	return s.path
}

// CheckMigrations verifies the journal schema is up-to-date.
func (s *SQLiteJournal) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteJournal) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteJournal implements recrypt.Journal interface
var _ recrypt.Journal = (*SQLiteJournal)(nil)
