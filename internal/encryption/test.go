package encryption

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"recrypt/internal/recrypt"
)

// testHeader starts every file written by TestEngine.EncryptFor.
var testHeader = []byte("RCTEST\x00\x00")

// TestEngine is a simple, deterministic engine for testing.
// Encryption writes a fixed header, the recipient on its own line, then the
// plaintext. Decryption checks the header and strips the recipient line.
// The output differs from the plaintext (so digests of ciphertext and
// plaintext differ) while being trivially reversible and requiring no crypto.
type TestEngine struct{}

var _ recrypt.Engine = (*TestEngine)(nil)

// NewTestEngine creates a new TestEngine.
func NewTestEngine() *TestEngine {
	return &TestEngine{}
}

// Seal returns the TestEngine ciphertext of plaintext for recipient.
func (e *TestEngine) Seal(recipient string, plaintext []byte) []byte {
	var buf bytes.Buffer
	buf.Write(testHeader)
	buf.WriteString(recipient)
	buf.WriteByte('\n')
	buf.Write(plaintext)
	return buf.Bytes()
}

// Open returns the recipient and plaintext of a TestEngine ciphertext.
func (e *TestEngine) Open(r io.Reader) (string, []byte, error) {
	br := bufio.NewReader(r)
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(br, header); err != nil {
		return "", nil, fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return "", nil, fmt.Errorf("invalid test encryption header")
	}
	recipient, err := br.ReadString('\n')
	if err != nil {
		return "", nil, fmt.Errorf("reading recipient: %w", err)
	}
	plaintext, err := io.ReadAll(br)
	if err != nil {
		return "", nil, fmt.Errorf("reading data: %w", err)
	}
	return strings.TrimSuffix(recipient, "\n"), plaintext, nil
}

func (e *TestEngine) Decrypt(_ context.Context, input, output string) error {
	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening ciphertext: %w", err)
	}
	defer in.Close()

	_, plaintext, err := e.Open(in)
	if err != nil {
		return err
	}
	return writeExclusive(output, func(w io.Writer) error {
		_, err := w.Write(plaintext)
		return err
	})
}

func (e *TestEngine) EncryptFor(_ context.Context, recipient, input, output string) error {
	if recipient == "" || strings.ContainsRune(recipient, '\n') {
		return fmt.Errorf("invalid recipient %q", recipient)
	}
	plaintext, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading plaintext: %w", err)
	}
	return writeExclusive(output, func(w io.Writer) error {
		_, err := w.Write(e.Seal(recipient, plaintext))
		return err
	})
}
