package recrypt

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/opencontainers/go-digest"
)

// reencrypt migrates one encrypted file: decrypt src, re-encrypt the
// plaintext for recipient into dst, decrypt dst again and compare both
// plaintext digests.
//
// The temporary plaintext at dst+TempSuffix is removed on every path out of
// this function. If anything fails after encryption started, dst is removed
// as well so the destination tree never holds unverified ciphertext.
func (m *Migrator) reencrypt(ctx context.Context, recipient, src, dst string) error {
	tmp := dst + TempSuffix
	for _, p := range []string{dst, tmp} {
		exists, err := m.fsmgr.Exists(p)
		if err != nil {
			return fmt.Errorf("checking %s: %w", p, err)
		}
		if exists {
			return fmt.Errorf("refusing to overwrite existing file: %s", p)
		}
	}

	m.logger.Info("re-encrypting file", "source", src, "destination", dst)

	err := m.roundTrip(ctx, recipient, src, dst, tmp)
	if rmErr := m.removeIfPresent(tmp); rmErr != nil && err == nil {
		err = fmt.Errorf("removing temporary file: %w", rmErr)
	}
	if err != nil {
		if rmErr := m.removeIfPresent(dst); rmErr != nil {
			m.logger.Warn("could not remove unverified destination", "path", dst, "error", rmErr)
		}
		return err
	}

	m.logger.Info("sum ok", "source", src)
	return nil
}

// roundTrip performs the strict decrypt, digest, encrypt, decrypt, digest,
// compare sequence.
func (m *Migrator) roundTrip(ctx context.Context, recipient, src, dst, tmp string) error {
	if err := m.engine.Decrypt(ctx, src, tmp); err != nil {
		return fmt.Errorf("decrypting %s: %w", src, err)
	}
	want, err := DigestFile(m.fsmgr, tmp)
	if err != nil {
		return err
	}

	if err := m.engine.EncryptFor(ctx, recipient, tmp, dst); err != nil {
		return fmt.Errorf("encrypting %s: %w", src, err)
	}
	if err := m.fsmgr.Remove(tmp); err != nil {
		return fmt.Errorf("removing temporary file: %w", err)
	}

	if err := m.engine.Decrypt(ctx, dst, tmp); err != nil {
		return fmt.Errorf("verifying %s: %w", dst, err)
	}
	got, err := DigestFile(m.fsmgr, tmp)
	if err != nil {
		return err
	}
	if err := m.fsmgr.Remove(tmp); err != nil {
		return fmt.Errorf("removing temporary file: %w", err)
	}

	return compareDigests(src, want, got)
}

func compareDigests(src string, want, got digest.Digest) error {
	if want != got {
		return &IntegrityError{Source: src, Expected: want, Actual: got}
	}
	return nil
}

func (m *Migrator) removeIfPresent(path string) error {
	if err := m.fsmgr.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
