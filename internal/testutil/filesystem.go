package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"

	rfs "recrypt/internal/fs"
	"recrypt/internal/recrypt"
)

// FaultyFilesystemManager wraps the OS filesystem and fails selected
// operations on request. Paths are matched exactly.
type FaultyFilesystemManager struct {
	*rfs.OSFilesystemManager

	mu          sync.Mutex
	readDirErrs map[string]error
	copyErrs    map[string]error
	removed     []string
}

// NewFaultyFilesystemManager creates a FaultyFilesystemManager with no faults.
func NewFaultyFilesystemManager() *FaultyFilesystemManager {
	return &FaultyFilesystemManager{
		OSFilesystemManager: rfs.NewOSFilesystemManager(),
		readDirErrs:         make(map[string]error),
		copyErrs:            make(map[string]error),
	}
}

// FailReadDir makes ReadDir of path return err.
func (m *FaultyFilesystemManager) FailReadDir(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readDirErrs[path] = err
}

// FailCopy makes CopyFile from src return err.
func (m *FaultyFilesystemManager) FailCopy(src string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copyErrs[src] = err
}

// Removed returns every path passed to Remove, in order.
func (m *FaultyFilesystemManager) Removed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

func (m *FaultyFilesystemManager) ReadDir(path string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	err := m.readDirErrs[path]
	m.mu.Unlock()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return m.OSFilesystemManager.ReadDir(path)
}

func (m *FaultyFilesystemManager) CopyFile(src, dst string) (int64, error) {
	m.mu.Lock()
	err := m.copyErrs[src]
	m.mu.Unlock()
	if err != nil {
		return 0, &fs.PathError{Op: "open", Path: src, Err: err}
	}
	return m.OSFilesystemManager.CopyFile(src, dst)
}

func (m *FaultyFilesystemManager) Remove(path string) error {
	m.mu.Lock()
	m.removed = append(m.removed, path)
	m.mu.Unlock()
	return m.OSFilesystemManager.Remove(path)
}

// Compile-time check
var _ recrypt.FilesystemManager = (*FaultyFilesystemManager)(nil)

// WriteTree creates files below root. Keys are slash-separated relative
// paths; a key ending in "/" creates an empty directory.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatalf("creating directory %s: %v", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("creating parent of %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("writing %s: %v", rel, err)
		}
	}
}

// TreeSnapshot maps every entry below root to a description of it: "dir" for
// directories and the SHA-512 digest of the contents for files. Keys are
// slash-separated relative paths.
func TreeSnapshot(t *testing.T, root string) map[string]string {
	t.Helper()

	snap := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			snap[filepath.ToSlash(rel)] = "dir"
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		snap[filepath.ToSlash(rel)] = digest.SHA512.FromBytes(data).String()
		return nil
	})
	if err != nil {
		t.Fatalf("snapshotting %s: %v", root, err)
	}
	return snap
}
