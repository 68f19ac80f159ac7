package encryption

import (
	"context"

	"recrypt/internal/recrypt"
)

// DefaultGPGCommand is the engine binary used when none is configured.
const DefaultGPGCommand = "gpg"

// GPGEngine implements recrypt.Engine by invoking gpg (or a compatible
// binary) once per operation:
//
//	decrypt: gpg [extra...] --output <output> --decrypt <input>
//	encrypt: gpg [extra...] --output <output> --encrypt --recipient <id> <input>
type GPGEngine struct {
	runner    CommandRunner
	command   string
	extraArgs []string
}

var _ recrypt.Engine = (*GPGEngine)(nil)

// NewGPGEngine creates a GPGEngine. extraArgs are inserted right after the
// command name and are normally empty.
func NewGPGEngine(runner CommandRunner, command string, extraArgs []string) *GPGEngine {
	if command == "" {
		command = DefaultGPGCommand
	}
	return &GPGEngine{
		runner:    runner,
		command:   command,
		extraArgs: extraArgs,
	}
}

// Decrypt decrypts input into output.
func (e *GPGEngine) Decrypt(ctx context.Context, input, output string) error {
	_, err := e.runner.Run(ctx, e.command, e.decryptArgs(input, output)...)
	return err
}

// EncryptFor encrypts input for recipient into output.
func (e *GPGEngine) EncryptFor(ctx context.Context, recipient, input, output string) error {
	_, err := e.runner.Run(ctx, e.command, e.encryptArgs(recipient, input, output)...)
	return err
}

func (e *GPGEngine) decryptArgs(input, output string) []string {
	args := append([]string{}, e.extraArgs...)
	return append(args, "--output", output, "--decrypt", input)
}

func (e *GPGEngine) encryptArgs(recipient, input, output string) []string {
	args := append([]string{}, e.extraArgs...)
	return append(args, "--output", output, "--encrypt", "--recipient", recipient, input)
}
