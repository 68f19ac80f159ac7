package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional configuration for recrypt.
// Without a config file every field keeps the value from NewConfig.
type Config struct {
	LogDir  string        `toml:"log_dir"` // empty: log to stderr only
	Engine  EngineConfig  `toml:"engine"`
	Journal JournalConfig `toml:"journal"`
}

// EngineConfig selects the encryption engine.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type EngineConfig struct {
	Type   string `toml:"type"`   // "gpg" (default), "age" or "test"
	Suffix string `toml:"suffix"` // files ending with this are re-encrypted

	// gpg-specific fields (only used when Type == "gpg")
	Command   string   `toml:"command,omitempty"`
	ExtraArgs []string `toml:"extra_args,omitempty"`

	// age-specific fields (only used when Type == "age")
	IdentityPath string `toml:"identity_path,omitempty"`
}

// JournalConfig represents configuration for the run journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "", "none", "memory" or "sqlite"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a Config with the defaults used when no config file is given.
func NewConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Type:    "gpg",
			Suffix:  ".gpg",
			Command: "gpg",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader. Keys missing from the
// input keep their defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := NewConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. It refuses to overwrite.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
