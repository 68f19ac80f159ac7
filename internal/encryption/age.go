package encryption

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"golang.org/x/term"

	"recrypt/internal/recrypt"
)

// ageHeader starts every age file, including passphrase-protected identity files.
const ageHeader = "age-encryption.org/"

// PassphraseFunc returns the passphrase protecting an identity file.
type PassphraseFunc func() (string, error)

// AgeEngine implements recrypt.Engine in-process using filippo.io/age.
// Decryption uses the identities in an identity file, which may itself be
// encrypted with a passphrase. Recipients are age recipient strings such as
// "age1...".
type AgeEngine struct {
	identityPath string
	passphrase   PassphraseFunc
	identities   []age.Identity
}

var _ recrypt.Engine = (*AgeEngine)(nil)

// NewAgeEngine creates an AgeEngine. The identity file is read on the first
// decryption and kept in memory for the rest of the run.
func NewAgeEngine(identityPath string, passphrase PassphraseFunc) *AgeEngine {
	return &AgeEngine{
		identityPath: identityPath,
		passphrase:   passphrase,
	}
}

// Decrypt reads age ciphertext from input and writes plaintext to output.
func (e *AgeEngine) Decrypt(_ context.Context, input, output string) error {
	identities, err := e.loadIdentities()
	if err != nil {
		return fmt.Errorf("loading identities: %w", err)
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening ciphertext: %w", err)
	}
	defer in.Close()

	decReader, err := age.Decrypt(in, identities...)
	if err != nil {
		return fmt.Errorf("creating decrypted reader: %w", err)
	}

	return writeExclusive(output, func(w io.Writer) error {
		if _, err := io.Copy(w, decReader); err != nil {
			return fmt.Errorf("decrypting data: %w", err)
		}
		return nil
	})
}

// EncryptFor encrypts input for the age recipient and writes ciphertext to output.
func (e *AgeEngine) EncryptFor(_ context.Context, recipient, input, output string) error {
	recipients, err := age.ParseRecipients(strings.NewReader(recipient))
	if err != nil {
		return fmt.Errorf("parsing recipient: %w", err)
	}

	in, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("opening plaintext: %w", err)
	}
	defer in.Close()

	return writeExclusive(output, func(w io.Writer) error {
		encWriter, err := age.Encrypt(w, recipients...)
		if err != nil {
			return fmt.Errorf("creating encrypted writer: %w", err)
		}
		if _, err := io.Copy(encWriter, in); err != nil {
			return fmt.Errorf("encrypting data: %w", err)
		}
		if err := encWriter.Close(); err != nil {
			return fmt.Errorf("finalizing encryption: %w", err)
		}
		return nil
	})
}

// loadIdentities reads and parses the identity file, unlocking it with the
// passphrase first if it is itself age-encrypted.
func (e *AgeEngine) loadIdentities() ([]age.Identity, error) {
	if e.identities != nil {
		return e.identities, nil
	}

	data, err := os.ReadFile(e.identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	if bytes.HasPrefix(data, []byte(ageHeader)) {
		data, err = e.unlock(data)
		if err != nil {
			return nil, err
		}
	}

	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities found in %s", e.identityPath)
	}

	e.identities = identities
	return identities, nil
}

func (e *AgeEngine) unlock(data []byte) ([]byte, error) {
	if e.passphrase == nil {
		return nil, fmt.Errorf("identity file is passphrase protected")
	}
	passphrase, err := e.passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	decReader, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting identity file: %w", err)
	}

	keyData, err := io.ReadAll(decReader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted identity file: %w", err)
	}
	return keyData, nil
}

// TerminalPassphrase prompts for a passphrase on the controlling terminal.
func TerminalPassphrase(prompt string) PassphraseFunc {
	return func() (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", fmt.Errorf("stdin is not a terminal")
		}
		fmt.Fprint(os.Stderr, prompt)
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
}
