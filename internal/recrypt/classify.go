package recrypt

import (
	"path/filepath"
	"strings"
)

// DefaultEncryptedSuffix marks a file as encrypted when its name ends with it.
const DefaultEncryptedSuffix = ".gpg"

// TempSuffix is appended to a destination path to form the temporary path
// holding decrypted plaintext during a re-encryption.
const TempSuffix = ".tmp"

// Classification decides how a file is migrated.
type Classification int

const (
	// Plain files are copied verbatim.
	Plain Classification = iota
	// Encrypted files go through the re-encryption round trip.
	Encrypted
)

func (c Classification) String() string {
	switch c {
	case Encrypted:
		return "encrypted"
	default:
		return "plain"
	}
}

// Classify returns Encrypted if the base name of path ends with suffix.
// Nothing but the name is consulted.
func Classify(path string, suffix string) Classification {
	if strings.HasSuffix(filepath.Base(path), suffix) {
		return Encrypted
	}
	return Plain
}
