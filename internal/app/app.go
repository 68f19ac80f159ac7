package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"recrypt/internal/config"
	"recrypt/internal/database"
	"recrypt/internal/encryption"
	"recrypt/internal/fs"
	"recrypt/internal/recrypt"
)

// Options are the command line switches that shape an app beyond its config.
type Options struct {
	Verbose bool
	Stderr  io.Writer // defaults to os.Stderr
}

// RecryptApp is the application layer between the CLI and the Migrator.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and closes the journal and log file on Close.
type RecryptApp struct {
	cfg      *config.Config
	runID    string
	journal  recrypt.Journal
	fsmgr    recrypt.FilesystemManager
	engine   recrypt.Engine
	clock    recrypt.Clock
	logger   recrypt.Logger
	migrator *recrypt.Migrator
	logFile  *os.File
}

// migrationChecker is implemented by journals with a versioned schema.
type migrationChecker interface {
	CheckMigrations() error
}

// NewRecryptApp creates a fully wired RecryptApp from the given config.
// The caller must call Close when done.
func NewRecryptApp(cfg *config.Config, opts Options) (*RecryptApp, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	runID := recrypt.NewRunID()
	slogger, logFile, err := newLogger(cfg.LogDir, runID, opts.Verbose, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	closeLog := func() {
		if logFile != nil {
			logFile.Close()
		}
	}

	journal, err := database.NewJournalFromConfig(cfg.Journal)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if mc, ok := journal.(migrationChecker); ok {
		if err := mc.CheckMigrations(); err != nil {
			journal.Close()
			closeLog()
			return nil, fmt.Errorf("journal schema out of date: %w", err)
		}
	}

	engine, err := encryption.NewEngineFromConfig(cfg.Engine, logger)
	if err != nil {
		journal.Close()
		closeLog()
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	fsmgr := fs.NewOSFilesystemManager()
	clock := recrypt.RealClock{}

	return &RecryptApp{
		cfg:      cfg,
		runID:    runID,
		journal:  journal,
		fsmgr:    fsmgr,
		engine:   engine,
		clock:    clock,
		logger:   logger,
		migrator: recrypt.NewMigrator(engine, fsmgr, journal, logger, clock, cfg.Engine.Suffix),
		logFile:  logFile,
	}, nil
}

// RunID returns the identifier used for this invocation's journal run and log lines.
func (a *RecryptApp) RunID() string {
	return a.runID
}

// Migrate creates the destination root and mirrors src into it, re-encrypting
// encrypted files for recipient. Preconditions must already have been
// checked. The journal run is finished with the outcome either way.
func (a *RecryptApp) Migrate(ctx context.Context, src, dst, recipient string) (*recrypt.Summary, error) {
	op := NewMigrationOperation(a.runID, src, dst, recipient, a.clock)

	if err := a.fsmgr.MkdirAll(dst); err != nil {
		return nil, fmt.Errorf("creating destination root: %w", err)
	}
	if err := op.Start(a.journal); err != nil {
		return nil, fmt.Errorf("starting journal run: %w", err)
	}

	summary, err := a.migrator.Run(ctx, op.Run)
	if err != nil {
		a.logger.Error("migration failed", "error", err)
	}

	if finishErr := op.Finish(a.journal, a.clock, err); finishErr != nil {
		if err == nil {
			return summary, fmt.Errorf("finishing journal run: %w", finishErr)
		}
		a.logger.Warn("could not finish journal run", "error", finishErr)
	}
	return summary, err
}

// RunHistory is a journal run together with its recorded entries.
type RunHistory struct {
	Run     *recrypt.Run
	Entries []*recrypt.Entry
}

// History returns the most recent runs from the journal, newest first.
func (a *RecryptApp) History(limit int) ([]*RunHistory, error) {
	runs, err := a.journal.ListRuns(limit)
	if err != nil {
		return nil, err
	}

	history := make([]*RunHistory, 0, len(runs))
	for _, run := range runs {
		entries, err := a.journal.ListEntries(run.ID)
		if err != nil {
			return nil, err
		}
		history = append(history, &RunHistory{Run: run, Entries: entries})
	}
	return history, nil
}

// Close closes the journal and the log file.
func (a *RecryptApp) Close() error {
	var firstErr error

	if err := a.journal.Close(); err != nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}

	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}
