package smolrun

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SocketDev/smolrun/cache"
	"github.com/SocketDev/smolrun/container"
	"github.com/SocketDev/smolrun/decompress"
	"github.com/SocketDev/smolrun/launch"
)

// Backend is the decompression capability Run dispatches to on a cache
// miss. The default backend wraps the decompress package; tests inject
// counting or failing implementations.
type Backend interface {
	// Decompress inflates payload to exactly originalSize bytes.
	Decompress(family container.Family, algorithm uint32, payload []byte, originalSize uint64) ([]byte, error)

	// AlgorithmName names the codec for metadata, e.g. "zstd".
	AlgorithmName(family container.Family, algorithm uint32) string
}

type nativeBackend struct{}

func (nativeBackend) Decompress(family container.Family, algorithm uint32, payload []byte, originalSize uint64) ([]byte, error) {
	return decompress.Decompress(family, algorithm, payload, originalSize)
}

func (nativeBackend) AlgorithmName(family container.Family, algorithm uint32) string {
	return decompress.AlgorithmName(family, algorithm)
}

// DefaultCacheRoot resolves the per-user cache root directory.
func DefaultCacheRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".socket", "cache", "dlx"), nil
}

// Run decompresses, caches, and launches the container at
// containerPath, forwarding args to the launched executable.
//
// The flow is sequential and single-threaded: parse and validate the
// container, derive the cache key, look the key up in the store. A
// verified or unverified hit launches the cached artifact directly with
// zero decompression overhead; a miss (including a failed verification)
// decompresses, populates the store atomically, then launches.
//
// On Unix a successful Run never returns — the process image is
// replaced by the launched executable. On platforms without exec the
// launched child's exit code comes back as a [*launch.ExitError] for
// the caller to forward. Every other return is terminal for the
// invocation; nothing is retried and a partially validated artifact is
// never launched.
func Run(containerPath string, args []string, opts ...Option) error {
	cfg := newConfig(opts)

	data, err := os.ReadFile(containerPath)
	if err != nil {
		return fmt.Errorf("read container: %w", err)
	}

	c, err := container.Parse(data)
	if err != nil {
		return err
	}

	root := cfg.cacheRoot
	if root == "" {
		if root, err = DefaultCacheRoot(); err != nil {
			return err
		}
	}
	store, err := cache.New(root, cache.WithLogger(cfg.logger))
	if err != nil {
		return err
	}

	key := cache.DeriveKey(data)
	logger := cfg.logger.With("key", key.String(), "container", containerPath)

	if path, res := store.Lookup(key); res != cache.Miss {
		logger.Info("cache hit, launching cached artifact",
			"result", res.String(), "path", path)
		return cfg.launcher.Launch(path, args)
	}

	logger.Info("cache miss, decompressing",
		"family", c.Family.String(),
		"algorithm", cfg.backend.AlgorithmName(c.Family, c.Algorithm),
		"compressed_size", c.CompressedSize,
		"original_size", c.OriginalSize)

	// An embedded identifier trailer is key material, not compressed
	// data; strip it before handing the payload to the codec.
	payload := container.TrimIdentifier(c.Payload)

	artifact, err := cfg.backend.Decompress(c.Family, c.Algorithm, payload, c.OriginalSize)
	if err != nil {
		return err
	}
	// The backend contract already enforces this; re-check here so an
	// injected backend can never slip a short or long buffer into the
	// cache and on to exec.
	if uint64(len(artifact)) != c.OriginalSize {
		return fmt.Errorf("%w: backend produced %d bytes, expected %d",
			decompress.ErrSizeMismatch, len(artifact), c.OriginalSize)
	}

	path, err := store.Populate(key, artifact, cache.PopulateInfo{
		SourcePath:     containerPath,
		CompressedSize: c.CompressedSize,
		Algorithm:      cfg.backend.AlgorithmName(c.Family, c.Algorithm),
	})
	if err != nil {
		return err
	}

	logger.Info("launching decompressed artifact", "path", path)
	return cfg.launcher.Launch(path, args)
}

// Compile-time check that the default backend satisfies Backend.
var _ Backend = nativeBackend{}

// Compile-time check that the platform launcher satisfies Launcher.
var _ launch.Launcher = launch.New()
