package smolrun

import (
	"log/slog"

	"github.com/SocketDev/smolrun/launch"
)

type config struct {
	cacheRoot string
	backend   Backend
	launcher  launch.Launcher
	logger    *slog.Logger
}

// Option configures Run.
type Option func(*config)

func newConfig(opts []Option) *config {
	cfg := &config{
		backend:  nativeBackend{},
		launcher: launch.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	return cfg
}

// WithCacheRoot overrides the cache root directory. Defaults to
// [DefaultCacheRoot], resolved lazily so tests never touch the real
// home directory.
func WithCacheRoot(root string) Option {
	return func(cfg *config) {
		cfg.cacheRoot = root
	}
}

// WithBackend overrides the decompression backend.
func WithBackend(b Backend) Option {
	return func(cfg *config) {
		if b != nil {
			cfg.backend = b
		}
	}
}

// WithLauncher overrides the process launcher.
func WithLauncher(l launch.Launcher) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.launcher = l
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}
