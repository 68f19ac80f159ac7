package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"recrypt/internal/encryption"
	"recrypt/internal/recrypt"
)

// EngineCall records one call made to a FakeEngine.
type EngineCall struct {
	Op        string // "decrypt" or "encrypt"
	Recipient string
	Input     string
	Output    string
}

// FakeEngine wraps encryption.TestEngine and lets tests inject failures.
// Failures are keyed by file base name.
type FakeEngine struct {
	*encryption.TestEngine

	mu             sync.Mutex
	calls          []EngineCall
	failDecrypt    map[string][]byte
	failEncrypt    map[string][]byte
	failVerify     map[string]bool
	corruptEncrypt bool
}

var _ recrypt.Engine = (*FakeEngine)(nil)

// NewFakeEngine creates a FakeEngine that behaves like TestEngine until told otherwise.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		TestEngine:  encryption.NewTestEngine(),
		failDecrypt: make(map[string][]byte),
		failEncrypt: make(map[string][]byte),
		failVerify:  make(map[string]bool),
	}
}

// FailDecrypt makes decryption of any input named name fail with output as
// the engine's captured output.
func (e *FakeEngine) FailDecrypt(name string, output string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failDecrypt[name] = []byte(output)
}

// FailVerify makes the verification decrypt of name fail. That is the
// decrypt whose input was written by an earlier EncryptFor call.
func (e *FakeEngine) FailVerify(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failVerify[name] = true
}

// FailEncrypt makes encryption of any output named name fail after the
// output file has been partially written.
func (e *FakeEngine) FailEncrypt(name string, output string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failEncrypt[name] = []byte(output)
}

// CorruptEncrypt makes every encryption flip the last plaintext byte, so the
// round trip decrypts to different content.
func (e *FakeEngine) CorruptEncrypt() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.corruptEncrypt = true
}

// Calls returns the calls made so far, in order.
func (e *FakeEngine) Calls() []EngineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EngineCall(nil), e.calls...)
}

func (e *FakeEngine) Decrypt(ctx context.Context, input, output string) error {
	e.mu.Lock()
	e.calls = append(e.calls, EngineCall{Op: "decrypt", Input: input, Output: output})
	out, fail := e.failDecrypt[filepath.Base(input)]
	verifyFail := e.failVerify[filepath.Base(input)] && e.encryptedBefore(input)
	e.mu.Unlock()

	if fail {
		return execFailure("--decrypt", input, out)
	}
	if verifyFail {
		return execFailure("--decrypt", input, []byte("gpg: decryption failed: No secret key"))
	}
	return e.TestEngine.Decrypt(ctx, input, output)
}

func (e *FakeEngine) EncryptFor(ctx context.Context, recipient, input, output string) error {
	e.mu.Lock()
	e.calls = append(e.calls, EngineCall{Op: "encrypt", Recipient: recipient, Input: input, Output: output})
	out, fail := e.failEncrypt[filepath.Base(output)]
	corrupt := e.corruptEncrypt
	e.mu.Unlock()

	if fail {
		// Leave a partial file behind the way a crashing engine would.
		if err := os.WriteFile(output, []byte("partial"), 0600); err != nil {
			return err
		}
		return execFailure("--encrypt", input, out)
	}
	if !corrupt {
		return e.TestEngine.EncryptFor(ctx, recipient, input, output)
	}

	plaintext, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	if len(plaintext) == 0 {
		plaintext = []byte{0}
	} else {
		plaintext[len(plaintext)-1] ^= 0xff
	}
	return os.WriteFile(output, e.Seal(recipient, plaintext), 0600)
}

// encryptedBefore reports whether input was written by an earlier encrypt
// call. Callers hold e.mu.
func (e *FakeEngine) encryptedBefore(input string) bool {
	for _, c := range e.calls {
		if c.Op == "encrypt" && c.Output == input {
			return true
		}
	}
	return false
}

func execFailure(op, input string, output []byte) error {
	return &encryption.ExecError{
		Command:  encryption.DefaultGPGCommand,
		Args:     []string{op, input},
		ExitCode: 2,
		Output:   output,
		Err:      errors.New("exit status 2"),
	}
}
