package encryption

import (
	"fmt"

	"recrypt/internal/config"
	"recrypt/internal/recrypt"
)

// NewEngineFromConfig creates an Engine based on the configuration type.
func NewEngineFromConfig(cfg config.EngineConfig, logger recrypt.Logger) (recrypt.Engine, error) {
	switch cfg.Type {
	case "gpg", "":
		return NewGPGEngine(NewExecRunner(logger), cfg.Command, cfg.ExtraArgs), nil
	case "age":
		if cfg.IdentityPath == "" {
			return nil, fmt.Errorf("age engine requires identity_path to be set")
		}
		return NewAgeEngine(cfg.IdentityPath, TerminalPassphrase("Identity passphrase: ")), nil
	case "test":
		return NewTestEngine(), nil
	default:
		return nil, fmt.Errorf("unknown engine type: %q", cfg.Type)
	}
}
