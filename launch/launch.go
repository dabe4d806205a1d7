// Package launch hands control to a resolved executable. On Unix the
// current process image is replaced outright, preserving signal and
// exit-code transparency with the original invocation; platforms
// without exec spawn a child and forward its exit code instead.
package launch

import (
	"errors"
	"fmt"
)

// ErrLaunchFailed is returned when the resolved executable could not be
// started. This is the only condition under which the invocation's own
// exit code, rather than the launched program's, is surfaced.
var ErrLaunchFailed = errors.New("launch: exec failed")

// Launcher starts the resolved artifact with the forwarded arguments.
// On Unix a successful Launch never returns; on platforms without exec
// it returns an [*ExitError] carrying the finished child's exit code.
// Any other error means the artifact could not be started at all.
type Launcher interface {
	Launch(path string, args []string) error
}

// ExitError reports that the launched program ran to completion on a
// platform where the process image cannot be replaced. The caller owns
// the decision to exit with Code; the library never exits the process.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("launch: child exited with code %d", e.Code)
}

// Argv builds the argument vector for the resolved executable: argv[0]
// is the artifact path, followed by the arguments forwarded unchanged
// from the original invocation.
func Argv(path string, args []string) []string {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, path)
	return append(argv, args...)
}
