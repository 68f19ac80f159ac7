package recrypt

import (
	"fmt"

	"github.com/opencontainers/go-digest"
)

// IntegrityError reports that a re-encrypted file did not decrypt back to the
// plaintext of its source.
type IntegrityError struct {
	Source   string
	Expected digest.Digest
	Actual   digest.Digest
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("message digest mismatch %s != %s of: %s", e.Expected, e.Actual, e.Source)
}
