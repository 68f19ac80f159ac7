package recrypt

import (
	"database/sql"
	"time"
)

// Run statuses recorded in the journal.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunError   = "error"
)

// EntryKind names what happened to a single source entry.
type EntryKind string

const (
	EntryDirectory EntryKind = "dir"
	EntryCopy      EntryKind = "copy"
	EntryReencrypt EntryKind = "recrypt"
)

// Run describes one migration from a source tree to a destination tree.
type Run struct {
	ID          string
	Source      string
	Destination string
	Recipient   string
	StartedAt   time.Time
	FinishedAt  sql.NullTime
	Status      string
}

// Entry records a source entry that was fully migrated. Re-encrypted files
// are recorded only after their round trip has been verified.
type Entry struct {
	RelativePath string
	Kind         EntryKind
	Size         int64
	RecordedAt   time.Time
}

// Journal is an append-only audit record of migration runs.
// It is never read back to resume a run.
type Journal interface {
	// StartRun records a new run.
	StartRun(run *Run) error

	// RecordEntry appends a migrated entry to a run.
	RecordEntry(runID string, entry *Entry) error

	// FinishRun sets the final status of a run.
	FinishRun(runID string, status string, finishedAt time.Time) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*Run, error)

	// ListEntries returns the entries of a run in the order they were recorded.
	ListEntries(runID string) ([]*Entry, error)

	Close() error
}

// NopJournal is a Journal that records nothing. It is used when no journal
// is configured.
type NopJournal struct{}

func NewNopJournal() *NopJournal { return &NopJournal{} }

func (*NopJournal) StartRun(*Run) error                       { return nil }
func (*NopJournal) RecordEntry(string, *Entry) error          { return nil }
func (*NopJournal) FinishRun(string, string, time.Time) error { return nil }
func (*NopJournal) ListRuns(int) ([]*Run, error)              { return nil, nil }
func (*NopJournal) ListEntries(string) ([]*Entry, error)      { return nil, nil }
func (*NopJournal) Close() error                              { return nil }
