package database

import (
	"fmt"
	"os"
	"path/filepath"

	"recrypt/internal/config"
	"recrypt/internal/recrypt"
)

// JournalFileName is the name of the journal database inside data_dir.
const JournalFileName = "journal.db"

// NewJournalFromConfig creates a Journal implementation based on the journal config type.
func NewJournalFromConfig(cfg config.JournalConfig) (recrypt.Journal, error) {
	switch cfg.Type {
	case "", "none":
		return recrypt.NewNopJournal(), nil
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite journal")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		return NewSQLiteJournal(filepath.Join(cfg.DataDir, JournalFileName))
	case "memory":
		return NewSQLiteJournal(":memory:")
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}
