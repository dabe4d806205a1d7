//go:build !unix

package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

type spawnLauncher struct{}

// New returns the platform launcher. Without execve the closest
// equivalent is spawning the artifact with inherited stdio and handing
// the child's exit code back to the caller as an [*ExitError].
func New() Launcher {
	return spawnLauncher{}
}

func (spawnLauncher) Launch(path string, args []string) error {
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("%w: %s: %v", ErrLaunchFailed, path, err)
	}
	return &ExitError{Code: 0}
}
