package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"recrypt/internal/recrypt"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct {
	dirPerm  fs.FileMode
	filePerm fs.FileMode
}

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{
		dirPerm:  0755,
		filePerm: 0644,
	}
}

// ReadDir returns the entries of a directory sorted by filename.
func (m *OSFilesystemManager) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// MkdirAll creates a directory and any missing ancestors.
func (m *OSFilesystemManager) MkdirAll(path string) error {
	return os.MkdirAll(path, m.dirPerm)
}

// CopyFile copies the bytes of src into a newly created dst.
// dst must not exist; a partially written dst is removed on failure.
func (m *OSFilesystemManager) CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, m.filePerm)
	if err != nil {
		return 0, fmt.Errorf("creating destination: %w", err)
	}

	success := false
	defer func() {
		if !success {
			os.Remove(dst)
		}
	}()

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return 0, fmt.Errorf("copying data: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing destination: %w", err)
	}

	success = true
	return written, nil
}

// ReadFile returns the full contents of a file.
func (m *OSFilesystemManager) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Exists reports whether anything exists at path. Dangling symlinks count.
func (m *OSFilesystemManager) Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat path: %w", err)
}

// Remove deletes a single file.
func (m *OSFilesystemManager) Remove(path string) error {
	return os.Remove(path)
}

// Compile-time check that OSFilesystemManager implements recrypt.FilesystemManager interface
var _ recrypt.FilesystemManager = (*OSFilesystemManager)(nil)
