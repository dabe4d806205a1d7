// Command smolrun decompresses and executes a binary produced by the
// Socket compressors, caching the decompressed artifact so subsequent
// runs execute with zero decompression overhead.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	smolrun "github.com/SocketDev/smolrun"
	"github.com/SocketDev/smolrun/launch"
)

func usage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <compressed_binary> [args...]\n", name)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Decompresses and executes a compressed Socket binary.\n")
	fmt.Fprintf(os.Stderr, "Caches under ~/.socket/cache/dlx/ (zero overhead on subsequent runs).\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Example:\n")
	fmt.Fprintf(os.Stderr, "  %s ./node.compressed --version\n", name)
}

func main() {
	// Everything after the container path is forwarded verbatim to the
	// launched executable, so no flag parsing happens here: a forwarded
	// --flag must never be consumed by this wrapper.
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	err := smolrun.Run(os.Args[1], os.Args[2:], smolrun.WithLogger(logger))

	// On Unix, Run only returns on failure: on success the process
	// image has been replaced. On platforms without exec, Run hands
	// back the finished child's exit code to forward.
	var exitErr *launch.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}
	fmt.Fprintf(os.Stderr, "smolrun: %v\n", err)
	os.Exit(1)
}
