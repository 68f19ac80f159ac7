package encryption

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"recrypt/internal/recrypt"
)

// CommandRunner runs an external command to completion and returns its
// combined stdout and stderr.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecError is returned when an external command cannot be started or exits
// with a non-zero status. Output holds everything the command printed.
type ExecError struct {
	Command  string
	Args     []string
	ExitCode int // -1 if the command never ran to completion
	Output   []byte
	Err      error
}

func (e *ExecError) Error() string {
	out := strings.TrimSpace(string(e.Output))
	if e.ExitCode < 0 {
		return fmt.Sprintf("running %s: %v", e.Command, e.Err)
	}
	if out == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.ExitCode, out)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ExecRunner runs commands as subprocesses. Stdin is the null device, stderr
// is merged into stdout, and there is no timeout.
type ExecRunner struct {
	logger recrypt.Logger
}

var _ CommandRunner = (*ExecRunner)(nil)

// NewExecRunner creates an ExecRunner that logs every command and its output.
func NewExecRunner(logger recrypt.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes name with args and blocks until it exits.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.logger.Info("running command", "cmd", strings.Join(append([]string{name}, args...), " "))

	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		r.logger.Info("command output", "cmd", name, "output", strings.TrimSpace(string(out)))
	}
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return out, &ExecError{Command: name, Args: args, ExitCode: code, Output: out, Err: err}
	}
	return out, nil
}
