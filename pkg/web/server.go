// Package web provides the clockcam dashboard: live verdict, preview and
// camera settings over HTTP and websockets.
package web

import (
	"context"
	_ "embed"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/classify"
	"github.com/teslashibe/clockcam/pkg/display"
	"github.com/teslashibe/clockcam/pkg/hub"
)

//go:embed index.html
var indexHTML []byte

// Config holds dashboard settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `yaml:"addr" json:"addr"`

	// PreviewFPS caps how often preview JPEGs are pushed to /ws/camera.
	PreviewFPS int `yaml:"preview_fps" json:"preview_fps"`
}

// DefaultConfig returns the dashboard defaults.
func DefaultConfig() Config {
	return Config{
		Addr:       ":8080",
		PreviewFPS: 5,
	}
}

// VerdictEvent is pushed on /ws/verdict whenever the displayed text changes.
type VerdictEvent struct {
	Text     string    `json:"text"`
	Positive bool      `json:"positive"`
	Labels   []string  `json:"labels"`
	Time     time.Time `json:"time"`
}

// NoticeEvent is pushed on /ws/verdict when a notice is shown.
type NoticeEvent struct {
	Notice string    `json:"notice"`
	Time   time.Time `json:"time"`
}

// StatsFunc reports capture counters.
type StatsFunc func() camera.SourceStats

// ClassifyFunc classifies one still image.
type ClassifyFunc func(f camera.Frame) (classify.Verdict, error)

// Server is the web dashboard server.
// It is a display.Sink and display.Notifier; those methods are called on
// the UI context and only touch state guarded by mu.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	manager  *camera.Manager
	preview  *camera.Preview
	metrics  *classify.MetricsCollector
	stats    StatsFunc
	classify ClassifyFunc

	// Hubs for websocket broadcast
	verdictHub *hub.Hub
	cameraHub  *hub.Hub

	mu      sync.RWMutex
	text    string
	notice  string
	verdict classify.Verdict
	started time.Time
}

// Option wires a collaborator into the server.
type Option func(*Server)

// WithManager enables /api/camera.
func WithManager(m *camera.Manager) Option {
	return func(s *Server) { s.manager = m }
}

// WithPreview enables /ws/camera.
func WithPreview(p *camera.Preview) Option {
	return func(s *Server) { s.preview = p }
}

// WithMetrics adds classifier metrics to /api/status.
func WithMetrics(m *classify.MetricsCollector) Option {
	return func(s *Server) { s.metrics = m }
}

// WithStats adds capture counters to /api/status.
func WithStats(fn StatsFunc) Option {
	return func(s *Server) { s.stats = fn }
}

// WithClassify enables POST /api/classify.
func WithClassify(fn ClassifyFunc) Option {
	return func(s *Server) { s.classify = fn }
}

// NewServer creates a new web dashboard server
func NewServer(cfg Config, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PreviewFPS <= 0 {
		cfg.PreviewFPS = DefaultConfig().PreviewFPS
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		verdictHub: hub.New("verdict", hub.WithLogger(logger), hub.WithReplay()),
		cameraHub:  hub.New("camera", hub.WithLogger(logger), hub.WithKeepLatest(), hub.WithClientBuffer(2)),
		started:    time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		AppName:               "clockcam",
		DisableStartupMessage: true,
		BodyLimit:             MaxUploadBytes,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/healthz", s.handleHealth)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handlePresets)
	api.Post("/classify", s.handleClassify)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/verdict", websocket.New(s.handleVerdictWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start runs the hubs and the preview encoder, then serves until the
// listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("web dashboard listening", "addr", s.cfg.Addr)

	go s.verdictHub.Run()
	go s.cameraHub.Run()
	if s.preview != nil {
		go s.streamPreview(ctx)
	}

	return s.app.Listen(s.cfg.Addr)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	s.verdictHub.Stop()
	s.cameraHub.Stop()
	return s.app.Shutdown()
}

// SetVerdictText records the displayed verdict and pushes it to viewers.
func (s *Server) SetVerdictText(text string) {
	s.mu.Lock()
	s.text = text
	ev := VerdictEvent{
		Text:     text,
		Positive: s.verdict.Positive,
		Labels:   s.verdict.Labels,
		Time:     time.Now(),
	}
	s.mu.Unlock()

	if err := s.verdictHub.BroadcastJSON(ev); err != nil {
		s.logger.Warn("verdict broadcast failed", "error", err)
	}
}

// ShowNotice records a notice and pushes it to viewers.
func (s *Server) ShowNotice(msg string) {
	s.mu.Lock()
	s.notice = msg
	s.mu.Unlock()

	if err := s.verdictHub.BroadcastJSON(NoticeEvent{Notice: msg, Time: time.Now()}); err != nil {
		s.logger.Warn("notice broadcast failed", "error", err)
	}
}

// RecordVerdict stores the details of the latest verdict for /api/status.
// It is a classify.Pipeline observer and runs on the UI context just
// before SetVerdictText for the same verdict.
func (s *Server) RecordVerdict(v classify.Verdict) {
	s.mu.Lock()
	s.verdict = v
	s.mu.Unlock()
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

var (
	_ display.Sink     = (*Server)(nil)
	_ display.Notifier = (*Server)(nil)
)
