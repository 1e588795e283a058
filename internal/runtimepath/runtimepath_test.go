package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDir_UsesXDGRuntimeDirWhenSet(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallbacksWhenXDGRuntimeDirMissing(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	wantRun := fmt.Sprintf("/run/user/%d", os.Getuid())
	wantTmp := fmt.Sprintf("/tmp/wayshell-runtime-%d", os.Getuid())
	if got != wantRun && got != wantTmp {
		t.Fatalf("Dir() = %q, want %q or %q", got, wantRun, wantTmp)
	}
}

func TestSocketPaths(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"control", SocketPath, "wayshell.sock"},
		{"policy", PolicySocketPath, "wayshell-policy.sock"},
		{"protocol", ProtocolSocketPath, "wayshell-protocol.sock"},
	}
	for _, tt := range tests {
		got, err := tt.fn()
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got != filepath.Join(td, tt.want) {
			t.Fatalf("%s socket = %q", tt.name, got)
		}
	}
}

func TestResolvePrefersConfigured(t *testing.T) {
	got, err := Resolve("/custom.sock", SocketPath)
	if err != nil || got != "/custom.sock" {
		t.Fatalf("Resolve() = %q, %v", got, err)
	}

	t.Setenv("XDG_RUNTIME_DIR", "/run/test")
	got, err = Resolve("", PolicySocketPath)
	if err != nil || got != "/run/test/wayshell-policy.sock" {
		t.Fatalf("Resolve() = %q, %v", got, err)
	}
}
