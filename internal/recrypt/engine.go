package recrypt

import "context"

// Engine is the external encryption engine the migration delegates all
// cryptography to. Implementations write their result to a path and never
// overwrite an existing file.
type Engine interface {
	// Decrypt decrypts the file at input and writes the plaintext to output.
	Decrypt(ctx context.Context, input, output string) error

	// EncryptFor encrypts the file at input for recipient and writes the
	// ciphertext to output. The recipient is passed through unvalidated.
	EncryptFor(ctx context.Context, recipient, input, output string) error
}
