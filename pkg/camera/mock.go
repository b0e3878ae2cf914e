package camera

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MockSource is a capture source for tests and demos.
// It generates synthetic BGRA frames at the configured framerate, or, in
// manual mode, delivers exactly the frames passed to Emit.
type MockSource struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	running   bool
	closed    bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	deliverer *Deliverer
	sessionID string

	preview    *Preview
	manual     bool
	startErr   error
	generate   func(seq uint64, width, height int) Frame
	intrinsics *Intrinsics

	seq         atomic.Uint64
	starts      atomic.Int64
	reconfigure []Config
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithManualFrames disables the generator; frames only arrive via Emit.
func WithManualFrames() MockSourceOption {
	return func(m *MockSource) { m.manual = true }
}

// WithStartError makes Start fail with err, e.g. ErrDeviceUnavailable.
func WithStartError(err error) MockSourceOption {
	return func(m *MockSource) { m.startErr = err }
}

// WithFrameGenerator replaces the default gradient generator.
func WithFrameGenerator(fn func(seq uint64, width, height int) Frame) MockSourceOption {
	return func(m *MockSource) { m.generate = fn }
}

// WithMockPreview publishes frames to p.
func WithMockPreview(p *Preview) MockSourceOption {
	return func(m *MockSource) { m.preview = p }
}

// WithMockIntrinsics attaches in to every frame.
func WithMockIntrinsics(in *Intrinsics) MockSourceOption {
	return func(m *MockSource) { m.intrinsics = in }
}

// NewMockSource creates a new mock capture source.
func NewMockSource(cfg Config, logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockSource{
		cfg:      cfg,
		logger:   logger,
		generate: GradientFrame,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start begins delivering frames to handler.
func (m *MockSource) Start(ctx context.Context, handler FrameHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.starts.Add(1)

	if m.closed {
		return ErrClosed
	}
	if m.running {
		return nil
	}
	if m.startErr != nil {
		return m.startErr
	}

	m.running = true
	m.stopCh = make(chan struct{})
	m.deliverer = NewDeliverer(handler, m.preview)
	m.sessionID = uuid.NewString()
	m.seq.Store(0)

	stop := m.stopCh
	d := m.deliverer

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		d.Run(stop)
	}()

	if !m.manual {
		m.wg.Add(1)
		go m.generateLoop(stop)
	}

	// Cancellation calls Stop from outside the WaitGroup.
	go func() {
		select {
		case <-ctx.Done():
			m.Stop()
		case <-stop:
		}
	}()

	m.logger.Info("mock capture source started",
		"session", m.sessionID,
		"manual", m.manual,
		"framerate", m.cfg.Framerate,
	)

	return nil
}

func (m *MockSource) generateLoop(stop <-chan struct{}) {
	defer m.wg.Done()

	fps := m.cfg.Framerate
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.Emit(m.generate(m.seq.Load()+1, m.cfg.Width, m.cfg.Height))
		}
	}
}

// Emit offers a frame as if it had just been captured.
// Returns false if the source is not running or the frame was dropped
// because the handler was still busy with the previous one.
func (m *MockSource) Emit(f Frame) bool {
	_, ok := m.EmitSeq(f)
	return ok
}

// EmitSeq is Emit that also reports the sequence number assigned to the
// frame. The number is zero when the source is not running.
func (m *MockSource) EmitSeq(f Frame) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return 0, false
	}

	f.Seq = m.seq.Add(1)
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	if f.Intrinsics == nil {
		f.Intrinsics = m.intrinsics
	}
	f = m.cfg.Orientation.Orient(f)

	delivered := m.deliverer.Offer(f)
	if !delivered {
		m.logger.Debug("mock source: handler busy, dropping frame", "seq", f.Seq)
	}
	return f.Seq, delivered
}

// Stop halts frame delivery and waits for the in-flight OnFrame.
func (m *MockSource) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	m.wg.Wait()

	m.logger.Info("mock capture source stopped", "session", m.sessionID)
	return nil
}

// Reconfigure records and applies runtime settings.
func (m *MockSource) Reconfigure(cfg Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cfg.Width = cfg.Width
	m.cfg.Height = cfg.Height
	m.cfg.Framerate = cfg.Framerate
	m.cfg.Quality = cfg.Quality
	m.reconfigure = append(m.reconfigure, cfg)
	return nil
}

// Config returns the current configuration.
func (m *MockSource) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Name returns "mock".
func (m *MockSource) Name() string {
	return string(BackendMock)
}

// Stats returns capture counters.
func (m *MockSource) Stats() SourceStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := SourceStats{
		SessionID: m.sessionID,
		Running:   m.running,
		Backend:   m.Name(),
	}
	if m.deliverer != nil {
		stats.FramesCaptured, stats.FramesDelivered, stats.FramesDropped = m.deliverer.Counts()
	}
	return stats
}

// Close stops the source permanently.
func (m *MockSource) Close() error {
	err := m.Stop()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return err
}

// StartCount returns how many times Start was called.
func (m *MockSource) StartCount() int {
	return int(m.starts.Load())
}

// Reconfigurations returns the configs passed to Reconfigure.
func (m *MockSource) Reconfigurations() []Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Config, len(m.reconfigure))
	copy(out, m.reconfigure)
	return out
}

// GradientFrame draws a moving diagonal gradient, enough to tell frames
// apart in a preview.
func GradientFrame(seq uint64, width, height int) Frame {
	f := NewFrame(width, height)
	shift := int(seq * 4)
	for y := 0; y < height; y++ {
		row := f.Data[y*f.Stride:]
		for x := 0; x < width; x++ {
			i := x * BytesPerPixel
			row[i] = uint8((x + shift) * 255 / (width + 1))
			row[i+1] = uint8(y * 255 / (height + 1))
			row[i+2] = uint8((x + y + shift) % 256)
			row[i+3] = 0xFF
		}
	}
	return f
}

var _ Source = (*MockSource)(nil)
