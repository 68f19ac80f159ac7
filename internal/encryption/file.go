package encryption

import (
	"fmt"
	"io"
	"os"
)

// writeExclusive creates path, which must not exist, and fills it with fn.
// The file is removed again if fn or closing fails.
func writeExclusive(path string, fn func(w io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}
