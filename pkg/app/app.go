package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/classify"
	"github.com/teslashibe/clockcam/pkg/display"
	"github.com/teslashibe/clockcam/pkg/web"
)

// Surface is a display that owns the UI execution context, such as the
// preview window. Run blocks on the calling goroutine and must drain the
// app's display.Loop.
type Surface interface {
	display.Sink
	display.Notifier
	Run(ctx context.Context) error
}

// App is the clockcam application.
type App struct {
	cfg    Config
	logger *slog.Logger

	loop    *display.Loop
	preview *camera.Preview
	manager *camera.Manager
	metrics *classify.MetricsCollector

	classifier classify.Classifier
	pipeline   *classify.Pipeline
	sinks      display.Multi
	surface    Surface
	web        *web.Server

	mu     sync.Mutex
	source camera.Source
}

// Option customizes an App.
type Option func(*App)

// WithSurface renders on s. Run then blocks in s.Run instead of the loop.
func WithSurface(s Surface) Option {
	return func(a *App) { a.surface = s }
}

// AttachSurface sets the surface after New, for surfaces that need the
// app's loop or preview. It must be called before Init.
func (a *App) AttachSurface(s Surface) {
	a.surface = s
}

// WithSink adds a verdict sink.
func WithSink(s display.Sink) Option {
	return func(a *App) { a.sinks = append(a.sinks, s) }
}

// WithSource uses src instead of creating one from the camera config.
func WithSource(src camera.Source) Option {
	return func(a *App) { a.source = src }
}

// WithClassifier uses c instead of loading the configured model.
func WithClassifier(c classify.Classifier) Option {
	return func(a *App) { a.classifier = c }
}

// New creates the application. Nothing is opened until Init.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		loop:    display.NewLoop(),
		preview: camera.NewPreview(),
		manager: camera.NewManager(cfg.Camera),
		metrics: classify.NewMetricsCollector(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Loop returns the UI execution context. Surfaces drain it.
func (a *App) Loop() *display.Loop {
	return a.loop
}

// Preview returns the latest-frame slot shared with surfaces.
func (a *App) Preview() *camera.Preview {
	return a.preview
}

// Init loads the model and builds the pipeline. A *classify.ModelLoadError
// means the app cannot do anything useful; no capture has started.
func (a *App) Init() error {
	if a.classifier == nil {
		c, err := classify.LoadModel(a.cfg.Model, a.logger.With("component", "classify"))
		if err != nil {
			return err
		}
		a.classifier = c
	}

	a.sinks = append(a.sinks, display.NewConsole(a.logger.With("component", "console")))
	if a.surface != nil {
		a.sinks = append(a.sinks, a.surface)
	}

	var observers []classify.PipelineOption
	if a.cfg.WebEnabled {
		a.web = web.NewServer(a.cfg.Web, a.logger.With("component", "web"),
			web.WithManager(a.manager),
			web.WithPreview(a.preview),
			web.WithMetrics(a.metrics),
			web.WithStats(a.stats),
			web.WithClassify(a.classifyStill),
		)
		a.sinks = append(a.sinks, a.web)
		observers = append(observers, classify.WithObserver(a.web.RecordVerdict))
	}

	req := classify.NewRequest(a.classifier,
		classify.WithTarget(a.cfg.Target),
		classify.WithMinConfidence(a.cfg.MinConfidence),
		classify.WithLocale(classify.MatchLocale(a.cfg.Locale)),
	)

	opts := append([]classify.PipelineOption{classify.WithMetrics(a.metrics)}, observers...)
	p, err := classify.NewPipeline(req, a.sinks, a.loop, a.logger.With("component", "pipeline"), opts...)
	if err != nil {
		return err
	}
	a.pipeline = p

	a.logger.Info("pipeline ready",
		"target", req.Target,
		"top_k", req.TopK,
		"min_confidence", req.MinConfidence,
		"locale", req.Locale.String(),
	)
	return nil
}

// Run starts the dashboard and the capture session, then runs the UI
// context until ctx is cancelled or the surface closes.
//
// A missing camera is logged and the app keeps running without preview.
// A camera configuration problem is shown to the user as a notice.
func (a *App) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return errors.New("app: Run called before Init")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.web != nil {
		go func() {
			if err := a.web.Start(ctx); err != nil {
				a.logger.Error("web server stopped", "error", err)
			}
		}()
	}

	if err := a.startCapture(ctx); err != nil {
		return err
	}

	if a.surface != nil {
		return a.surface.Run(ctx)
	}

	a.logger.Info("running, press Ctrl+C to exit")
	if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) startCapture(ctx context.Context) error {
	a.mu.Lock()
	src := a.source
	a.mu.Unlock()

	if src == nil {
		var err error
		src, err = camera.NewSource(a.cfg.Camera, a.logger.With("component", "camera"), camera.WithPreview(a.preview))
		if err != nil {
			return a.captureFailed(err)
		}
		a.mu.Lock()
		a.source = src
		a.mu.Unlock()
	}

	a.manager.OnConfigChange(src.Reconfigure)

	if err := src.Start(ctx, a.pipeline); err != nil {
		return a.captureFailed(err)
	}
	return nil
}

// captureFailed sorts session setup errors into the ones the app survives
// and the ones it does not.
func (a *App) captureFailed(err error) error {
	switch {
	case errors.Is(err, camera.ErrDeviceUnavailable):
		a.logger.Warn("no camera available, running without preview", "error", err)
		return nil

	case camera.IsConfigurationError(err):
		a.logger.Error("camera setup failed", "error", err)
		msg := fmt.Sprintf("Camera setup failed: %v", err)
		a.loop.Post(func() { a.sinks.ShowNotice(msg) })
		return nil

	default:
		return fmt.Errorf("start capture: %w", err)
	}
}

// classifyStill serves uploads through the same request as live frames.
func (a *App) classifyStill(f camera.Frame) (classify.Verdict, error) {
	return a.pipeline.Classify(f)
}

func (a *App) stats() camera.SourceStats {
	a.mu.Lock()
	src := a.source
	a.mu.Unlock()

	if src == nil {
		return camera.SourceStats{}
	}
	return src.Stats()
}

// Stats returns capture counters for the current session.
func (a *App) Stats() camera.SourceStats {
	return a.stats()
}

// Metrics returns classification metrics.
func (a *App) Metrics() classify.Metrics {
	return a.metrics.Snapshot()
}

// Shutdown stops capture and releases the model. In-flight classification
// finishes first.
func (a *App) Shutdown() {
	a.mu.Lock()
	src := a.source
	a.mu.Unlock()

	if src != nil {
		if err := src.Close(); err != nil {
			a.logger.Warn("camera close failed", "error", err)
		}
	}
	if a.web != nil {
		if err := a.web.Shutdown(); err != nil {
			a.logger.Warn("web shutdown failed", "error", err)
		}
	}
	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			a.logger.Warn("classifier close failed", "error", err)
		}
	}
	a.logger.Info("goodbye")
}
