package recrypt

import (
	_ "crypto/sha512" // registers SHA-512 for go-digest
	"fmt"

	"github.com/opencontainers/go-digest"
)

// DigestFile reads the whole file at path and returns its SHA-512 content
// fingerprint. The file is held in memory while hashing, so very large files
// cost their full size in RAM.
func DigestFile(fsmgr FilesystemManager, path string) (digest.Digest, error) {
	data, err := fsmgr.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s for digest: %w", path, err)
	}
	return digest.SHA512.FromBytes(data), nil
}
