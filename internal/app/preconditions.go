package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UsageError reports invalid arguments. The CLI exits with status 1 for
// usage errors and status 2 for failures during the walk.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// IsUsageError reports whether err is or wraps a *UsageError.
func IsUsageError(err error) bool {
	var u *UsageError
	return errors.As(err, &u)
}

// CheckPreconditions validates a source and destination pair before anything
// is written. Both paths must be absolute, the source must be an existing
// directory, and the destination must not exist or lie inside the source.
func CheckPreconditions(src, dst string) error {
	if !filepath.IsAbs(src) {
		return usageErrorf("source path must be absolute: %s", src)
	}
	if !filepath.IsAbs(dst) {
		return usageErrorf("destination path must be absolute: %s", dst)
	}

	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return usageErrorf("source path does not exist: %s", src)
		}
		return usageErrorf("cannot access source path: %v", err)
	}
	if !info.IsDir() {
		return usageErrorf("source path is not a directory: %s", src)
	}

	if _, err := os.Lstat(dst); err == nil {
		return usageErrorf("destination path already exists: %s", dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return usageErrorf("cannot access destination path: %v", err)
	}

	if isWithin(src, dst) {
		return usageErrorf("destination path %s is inside source path %s", dst, src)
	}
	return nil
}

// isWithin reports whether path lies below root. Both must be absolute.
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
