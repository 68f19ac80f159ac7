package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recrypt/internal/encryption"
)

// writeTestConfig writes a config selecting the test engine and a sqlite
// journal, and returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "recrypt.toml")
	content := fmt.Sprintf(`log_dir = %q

[engine]
type = "test"

[journal]
type = "sqlite"
data_dir = %q
`, filepath.Join(dir, "log"), filepath.Join(dir, "data"))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeSourceTree(t *testing.T) string {
	t.Helper()

	src := filepath.Join(t.TempDir(), "old")
	if err := os.MkdirAll(filepath.Join(src, "a"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(src, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "a", "b.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sealed := encryption.NewTestEngine().Seal("OLD", []byte("top secret"))
	if err := os.WriteFile(filepath.Join(src, "a", "secret.gpg"), sealed, 0644); err != nil {
		t.Fatal(err)
	}
	return src
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func assertNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("%s exists, want it absent (err = %v)", path, err)
	}
}

func TestRun_Success(t *testing.T) {
	cfgPath := writeTestConfig(t)
	src := writeSourceTree(t)
	dst := filepath.Join(t.TempDir(), "new")

	code, stdout, stderr := runCLI(t, "--config", cfgPath, src, dst, "NEW")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d; stderr:\n%s", code, exitOK, stderr)
	}

	for _, rel := range []string{"a/b.txt", "a/secret.gpg", "empty"} {
		if _, err := os.Stat(filepath.Join(dst, filepath.FromSlash(rel))); err != nil {
			t.Errorf("%s not migrated: %v", rel, err)
		}
	}
	for _, want := range []string{"Created 2 directories", "Copied 1 file (5 B)", "Re-encrypted 1 file"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout = %q, want %q", stdout, want)
		}
	}
	if !strings.Contains(stderr, "sum ok") {
		t.Errorf("stderr = %q, want sum ok line", stderr)
	}

	code, stdout, _ = runCLI(t, "--config", cfgPath, "history")
	if code != exitOK {
		t.Fatalf("history exit code = %d", code)
	}
	if !strings.Contains(stdout, "success") || !strings.Contains(stdout, src+" -> "+dst) {
		t.Errorf("history output = %q", stdout)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	base := t.TempDir()
	src := writeSourceTree(t)
	existing := filepath.Join(base, "existing")
	if err := os.Mkdir(existing, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
		noDst   string
	}{
		{
			name:    "relative source",
			args:    []string{"old", filepath.Join(base, "new1"), "KEY"},
			wantErr: "source path must be absolute",
			noDst:   filepath.Join(base, "new1"),
		},
		{
			name:    "relative destination",
			args:    []string{src, "new2", "KEY"},
			wantErr: "destination path must be absolute",
		},
		{
			name:    "existing destination",
			args:    []string{src, existing, "KEY"},
			wantErr: "already exists",
		},
		{
			name:    "destination inside source",
			args:    []string{src, filepath.Join(src, "new"), "KEY"},
			wantErr: "inside source",
			noDst:   filepath.Join(src, "new"),
		},
		{
			name:    "too few arguments",
			args:    []string{src, filepath.Join(base, "new3")},
			wantErr: "expected 3 arguments",
			noDst:   filepath.Join(base, "new3"),
		},
		{
			name:    "too many arguments",
			args:    []string{src, filepath.Join(base, "new4"), "KEY", "extra"},
			wantErr: "expected 3 arguments",
			noDst:   filepath.Join(base, "new4"),
		},
		{
			name:    "empty recipient",
			args:    []string{src, filepath.Join(base, "new5"), ""},
			wantErr: "recipient must not be empty",
			noDst:   filepath.Join(base, "new5"),
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus", src, filepath.Join(base, "new6"), "KEY"},
			wantErr: "unknown flag",
			noDst:   filepath.Join(base, "new6"),
		},
		{
			name:    "missing config file",
			args:    []string{"--config", filepath.Join(base, "missing.toml"), src, filepath.Join(base, "new7"), "KEY"},
			wantErr: "reading config",
			noDst:   filepath.Join(base, "new7"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			if code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantErr)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want empty", stdout)
			}
			if tt.noDst != "" {
				assertNotExist(t, tt.noDst)
			}
		})
	}
}

func TestRun_WalkFailure(t *testing.T) {
	cfgPath := writeTestConfig(t)
	src := writeSourceTree(t)
	if err := os.WriteFile(filepath.Join(src, "a", "broken.gpg"), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(t.TempDir(), "new")

	code, _, stderr := runCLI(t, "--config", cfgPath, src, dst, "NEW")
	if code != exitWalk {
		t.Fatalf("exit code = %d, want %d; stderr:\n%s", code, exitWalk, stderr)
	}
	if !strings.Contains(stderr, "broken.gpg") {
		t.Errorf("stderr = %q, want it to name the failed file", stderr)
	}
	assertNotExist(t, filepath.Join(dst, "a", "broken.gpg"))
	assertNotExist(t, filepath.Join(dst, "a", "broken.gpg.tmp"))

	code, stdout, _ := runCLI(t, "--config", cfgPath, "history")
	if code != exitOK {
		t.Fatalf("history exit code = %d", code)
	}
	if !strings.Contains(stdout, "error") {
		t.Errorf("history output = %q, want an errored run", stdout)
	}
}

func TestRun_ConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recrypt.toml")

	code, stdout, stderr := runCLI(t, "config", "init", path)
	if code != exitOK {
		t.Fatalf("exit code = %d; stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, path) {
		t.Errorf("stdout = %q", stdout)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), `suffix = ".gpg"`) {
		t.Errorf("config = %q, want default suffix", data)
	}

	if code, _, _ := runCLI(t, "config", "init", path); code != exitUsage {
		t.Errorf("second config init exit code = %d, want %d", code, exitUsage)
	}
}

func TestRun_HistoryWithoutJournal(t *testing.T) {
	code, stdout, _ := runCLI(t, "history")
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "No runs recorded.") {
		t.Errorf("stdout = %q", stdout)
	}
}
