package recrypt

import (
	"context"
	"fmt"
	"path/filepath"
)

// Summary counts what a run migrated.
type Summary struct {
	Directories int
	Copied      int
	Reencrypted int
	BytesCopied int64
}

// Migrator mirrors a source tree into a destination tree, copying plain files
// and re-encrypting encrypted ones for a new recipient.
type Migrator struct {
	engine  Engine
	fsmgr   FilesystemManager
	journal Journal
	logger  Logger
	clock   Clock
	suffix  string
}

// NewMigrator creates a Migrator. Files whose name ends with suffix are
// re-encrypted; an empty suffix means DefaultEncryptedSuffix.
func NewMigrator(engine Engine, fsmgr FilesystemManager, journal Journal, logger Logger, clock Clock, suffix string) *Migrator {
	if suffix == "" {
		suffix = DefaultEncryptedSuffix
	}
	return &Migrator{
		engine:  engine,
		fsmgr:   fsmgr,
		journal: journal,
		logger:  logger,
		clock:   clock,
		suffix:  suffix,
	}
}

// migration is the state of a single Run call.
type migration struct {
	run     *Run
	summary *Summary
}

// destination resolves a relative path, given as segments below the source
// root, against the destination root.
func (m *migration) destination(rel ...string) string {
	return filepath.Join(append([]string{m.run.Destination}, rel...)...)
}

// Run walks run.Source depth-first and migrates every entry below it into
// run.Destination, which must already exist. Any failure stops the walk and
// is returned; nothing is skipped.
func (m *Migrator) Run(ctx context.Context, run *Run) (*Summary, error) {
	mig := &migration{run: run, summary: &Summary{}}

	m.logger.Info("migration started", "source", run.Source, "destination", run.Destination)
	if err := m.walkDir(ctx, mig, run.Source, nil); err != nil {
		return mig.summary, err
	}

	m.logger.Info("migration complete",
		"directories", mig.summary.Directories,
		"copied", mig.summary.Copied,
		"reencrypted", mig.summary.Reencrypted,
	)
	return mig.summary, nil
}

// walkDir visits srcDir, whose position below the source root is rel.
// The root itself (empty rel) is not created here.
func (m *Migrator) walkDir(ctx context.Context, mig *migration, srcDir string, rel []string) error {
	if len(rel) > 0 {
		dstDir := mig.destination(rel...)
		m.logger.Debug("entering directory", "path", srcDir)
		if err := m.fsmgr.MkdirAll(dstDir); err != nil {
			return fmt.Errorf("creating directory %s: %w", dstDir, err)
		}
		mig.summary.Directories++
		if err := m.record(mig, filepath.Join(rel...), EntryDirectory, 0); err != nil {
			return err
		}
	}

	entries, err := m.fsmgr.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", srcDir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		srcPath := filepath.Join(srcDir, entry.Name())
		if entry.IsDir() {
			// Full slice expression so siblings never share a backing array.
			child := append(rel[:len(rel):len(rel)], entry.Name())
			if err := m.walkDir(ctx, mig, srcPath, child); err != nil {
				return err
			}
			continue
		}
		if err := m.visitFile(ctx, mig, srcPath, rel); err != nil {
			return err
		}
	}

	m.logger.Debug("leaving directory", "path", srcDir)
	return nil
}

// visitFile dispatches a single file to copy or re-encryption.
func (m *Migrator) visitFile(ctx context.Context, mig *migration, srcPath string, rel []string) error {
	name := filepath.Base(srcPath)
	dstPath := mig.destination(append(rel[:len(rel):len(rel)], name)...)
	relPath := filepath.Join(append(rel[:len(rel):len(rel)], name)...)

	switch Classify(name, m.suffix) {
	case Encrypted:
		if err := m.reencrypt(ctx, mig.run.Recipient, srcPath, dstPath); err != nil {
			return err
		}
		mig.summary.Reencrypted++
		return m.record(mig, relPath, EntryReencrypt, 0)
	default:
		m.logger.Info("copying file", "source", srcPath, "destination", dstPath)
		n, err := m.fsmgr.CopyFile(srcPath, dstPath)
		if err != nil {
			return fmt.Errorf("copying %s: %w", srcPath, err)
		}
		mig.summary.Copied++
		mig.summary.BytesCopied += n
		return m.record(mig, relPath, EntryCopy, n)
	}
}

func (m *Migrator) record(mig *migration, relPath string, kind EntryKind, size int64) error {
	entry := &Entry{
		RelativePath: relPath,
		Kind:         kind,
		Size:         size,
		RecordedAt:   m.clock.Now(),
	}
	if err := m.journal.RecordEntry(mig.run.ID, entry); err != nil {
		return fmt.Errorf("recording %s in journal: %w", relPath, err)
	}
	return nil
}
