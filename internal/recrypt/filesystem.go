package recrypt

import "io/fs"

// FilesystemManager provides the filesystem primitives the migration needs.
// It abstracts file access so traversal and fault handling can be tested
// without depending on real permission errors.
type FilesystemManager interface {
	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(path string) ([]fs.DirEntry, error)

	// MkdirAll creates a directory and any missing ancestors.
	MkdirAll(path string) error

	// CopyFile copies the bytes of src to dst and returns the number of bytes
	// written. It fails if dst already exists.
	CopyFile(src, dst string) (int64, error)

	// ReadFile returns the full contents of a file.
	ReadFile(path string) ([]byte, error)

	// Exists reports whether anything exists at path.
	Exists(path string) (bool, error)

	// Remove deletes a single file.
	Remove(path string) error
}
