package database

import (
	"os"
	"path/filepath"
	"testing"

	"recrypt/internal/config"
	"recrypt/internal/recrypt"
)

func TestNewJournalFromConfig(t *testing.T) {
	t.Run("no journal", func(t *testing.T) {
		for _, typ := range []string{"", "none"} {
			got, err := NewJournalFromConfig(config.JournalConfig{Type: typ})
			if err != nil {
				t.Fatalf("NewJournalFromConfig(%q) unexpected error: %v", typ, err)
			}
			if _, ok := got.(*recrypt.NopJournal); !ok {
				t.Errorf("NewJournalFromConfig(%q) = %T, want *recrypt.NopJournal", typ, got)
			}
		}
	})

	t.Run("memory journal", func(t *testing.T) {
		got, err := NewJournalFromConfig(config.JournalConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewJournalFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, ok := got.(*SQLiteJournal); !ok {
			t.Errorf("NewJournalFromConfig() = %T, want *SQLiteJournal", got)
		}
	})

	t.Run("sqlite journal", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "state")
		got, err := NewJournalFromConfig(config.JournalConfig{Type: "sqlite", DataDir: dataDir})
		if err != nil {
			t.Fatalf("NewJournalFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, err := os.Stat(filepath.Join(dataDir, JournalFileName)); err != nil {
			t.Errorf("journal file not created: %v", err)
		}
	})

	t.Run("sqlite journal without data_dir", func(t *testing.T) {
		got, err := NewJournalFromConfig(config.JournalConfig{Type: "sqlite"})
		if err == nil {
			t.Error("NewJournalFromConfig() expected error for missing data_dir, got nil")
		}
		if got != nil {
			t.Error("NewJournalFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		got, err := NewJournalFromConfig(config.JournalConfig{Type: "postgres"})
		if err == nil {
			t.Error("NewJournalFromConfig() expected error for unknown type, got nil")
		}
		if got != nil {
			got.Close()
		}
	})
}
