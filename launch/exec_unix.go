//go:build unix

package launch

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type execLauncher struct{}

// New returns the platform launcher. On Unix it replaces the current
// process image via execve(2).
func New() Launcher {
	return execLauncher{}
}

func (execLauncher) Launch(path string, args []string) error {
	err := unix.Exec(path, Argv(path, args), os.Environ())
	// Exec only returns on failure.
	return fmt.Errorf("%w: %s: %v", ErrLaunchFailed, path, err)
}
