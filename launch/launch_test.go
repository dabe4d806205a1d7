//go:build unix

package launch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestArgv(t *testing.T) {
	t.Parallel()

	argv := Argv("/cache/abc/node", []string{"--version", "script.js"})
	want := []string{"/cache/abc/node", "--version", "script.js"}
	if len(argv) != len(want) {
		t.Fatalf("Argv() = %v, want %v", argv, want)
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Fatalf("Argv()[%d] = %q, want %q", i, argv[i], want[i])
		}
	}

	if got := Argv("/bin/x", nil); len(got) != 1 || got[0] != "/bin/x" {
		t.Fatalf("Argv() with no args = %v", got)
	}
}

// Only failure paths are testable: a successful Launch replaces the
// test process.

func TestLaunchMissingExecutable(t *testing.T) {
	t.Parallel()

	err := New().Launch(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("Launch() error = %v, want ErrLaunchFailed", err)
	}
}

func TestLaunchNonExecutable(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	path := filepath.Join(t.TempDir(), "plain-file")
	if err := os.WriteFile(path, []byte("not executable"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New().Launch(path, []string{"--ignored"})
	if !errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("Launch() error = %v, want ErrLaunchFailed", err)
	}
}
