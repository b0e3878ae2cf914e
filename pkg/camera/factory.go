package camera

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Options carries collaborators shared by every backend.
type Options struct {
	// Preview receives every captured frame. May be nil.
	Preview *Preview
}

// Option configures Options.
type Option func(*Options)

// WithPreview publishes captured frames to p.
func WithPreview(p *Preview) Option {
	return func(o *Options) { o.Preview = p }
}

// Factory creates a Source for a backend.
type Factory func(cfg Config, logger *slog.Logger, opts Options) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[Backend]Factory{
		BackendMock: func(cfg Config, logger *slog.Logger, opts Options) (Source, error) {
			return NewMockSource(cfg, logger, WithMockPreview(opts.Preview)), nil
		},
	}
)

// Register makes a backend available to NewSource.
// Backend packages call this from init().
func Register(backend Backend, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[backend] = f
}

// IsRegistered reports whether a backend can be created.
func IsRegistered(backend Backend) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[backend]
	return ok
}

// Backends returns the registered backend names, sorted.
func Backends() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	backends := make([]Backend, 0, len(registry))
	for b := range registry {
		backends = append(backends, b)
	}
	sort.Slice(backends, func(i, j int) bool { return backends[i] < backends[j] })
	return backends
}

// NewSource creates a capture source with the given configuration.
// If cfg.Backend is BackendAuto, gocv is used when linked in.
func NewSource(cfg Config, logger *slog.Logger, opts ...Option) (Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigurationError{Op: "validate", Err: fmt.Errorf("%s", strings.Join(errs, "; "))}
	}

	if logger == nil {
		logger = slog.Default()
	}

	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	backend := cfg.Backend
	if backend == BackendAuto || backend == "" {
		backend = detectBestBackend()
	}

	registryMu.RLock()
	factory, ok := registry[backend]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}

	logger.Info("creating capture source",
		"backend", backend,
		"device", deviceLabel(cfg.Device),
		"width", cfg.Width,
		"height", cfg.Height,
		"framerate", cfg.Framerate,
		"orientation", cfg.Orientation,
	)

	cfg.Backend = backend
	return factory(cfg, logger, o)
}

// detectBestBackend returns gocv if registered, mock otherwise.
func detectBestBackend() Backend {
	if IsRegistered(BackendGoCV) {
		return BackendGoCV
	}
	return BackendMock
}

func deviceLabel(device string) string {
	if device == "" {
		return "default"
	}
	return device
}
