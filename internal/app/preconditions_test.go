package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckPreconditions(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "old")
	if err := os.MkdirAll(filepath.Join(src, "a"), 0755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(base, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(base, "existing")
	if err := os.Mkdir(existing, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		src     string
		dst     string
		wantErr string
	}{
		{name: "valid", src: src, dst: filepath.Join(base, "new")},
		{name: "valid with missing ancestors", src: src, dst: filepath.Join(base, "x", "y", "new")},
		{name: "sibling with common prefix", src: src, dst: src + "-new"},
		{name: "relative source", src: "old", dst: filepath.Join(base, "new"), wantErr: "source path must be absolute"},
		{name: "relative destination", src: src, dst: "new", wantErr: "destination path must be absolute"},
		{name: "missing source", src: filepath.Join(base, "missing"), dst: filepath.Join(base, "new"), wantErr: "does not exist"},
		{name: "source is a file", src: file, dst: filepath.Join(base, "new"), wantErr: "not a directory"},
		{name: "destination exists", src: src, dst: existing, wantErr: "already exists"},
		{name: "destination is an existing file", src: src, dst: file, wantErr: "already exists"},
		{name: "destination inside source", src: src, dst: filepath.Join(src, "new"), wantErr: "inside source"},
		{name: "destination deep inside source", src: src, dst: filepath.Join(src, "a", "b", "new"), wantErr: "inside source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPreconditions(tt.src, tt.dst)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("CheckPreconditions() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("CheckPreconditions() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckPreconditions() error = %q, want it to contain %q", err, tt.wantErr)
			}
			if !IsUsageError(err) {
				t.Errorf("CheckPreconditions() error %T is not a UsageError", err)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(base, "new")); !errors.Is(err, os.ErrNotExist) {
		t.Error("CheckPreconditions() created the destination")
	}
}

func TestIsUsageError(t *testing.T) {
	if !IsUsageError(fmt.Errorf("wrapped: %w", &UsageError{Msg: "bad"})) {
		t.Error("IsUsageError() = false for a wrapped UsageError")
	}
	if IsUsageError(errors.New("bad")) {
		t.Error("IsUsageError() = true for a plain error")
	}
}

func TestIsWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/data", "/data", true},
		{"/data", "/data/new", true},
		{"/data", "/data/../data/new", true},
		{"/data", "/data-new", false},
		{"/data", "/other", false},
		{"/data/old", "/data", false},
		{"/data", "/data/..new", true},
	}

	for _, tt := range tests {
		if got := isWithin(tt.root, tt.path); got != tt.want {
			t.Errorf("isWithin(%q, %q) = %v, want %v", tt.root, tt.path, got, tt.want)
		}
	}
}
