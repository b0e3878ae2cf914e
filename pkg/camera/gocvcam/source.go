// Package gocvcam captures frames from an OpenCV VideoCapture device.
//
// Importing the package registers the "gocv" backend with pkg/camera:
//
//	import _ "github.com/teslashibe/clockcam/pkg/camera/gocvcam"
package gocvcam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/teslashibe/clockcam/pkg/camera"
)

func init() {
	camera.Register(camera.BackendGoCV, func(cfg camera.Config, logger *slog.Logger, opts camera.Options) (camera.Source, error) {
		return New(cfg, logger, opts.Preview), nil
	})
}

// Source is a camera.Source backed by gocv.VideoCapture.
type Source struct {
	logger  *slog.Logger
	preview *camera.Preview

	mu        sync.Mutex
	cfg       camera.Config
	running   bool
	closed    bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
	capture   *gocv.VideoCapture
	deliverer *camera.Deliverer
	sessionID string

	// pending is applied by the grab loop before its next read.
	pending atomic.Pointer[camera.Config]
}

// New creates a gocv capture source. The device is opened by Start.
func New(cfg camera.Config, logger *slog.Logger, preview *camera.Preview) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		cfg:     cfg,
		logger:  logger.With("backend", "gocv"),
		preview: preview,
	}
}

// Start opens the device and starts the grab loop.
func (s *Source) Start(ctx context.Context, handler camera.FrameHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return camera.ErrClosed
	}
	if s.running {
		return nil
	}

	capture, err := openDevice(s.cfg.Device)
	if err != nil {
		return err
	}

	applySettings(capture, s.cfg)

	// A device that opens but cannot produce a frame is a wiring problem,
	// not a missing device.
	first := gocv.NewMat()
	ok := capture.Read(&first)
	empty := first.Empty()
	first.Close()
	if !ok || empty {
		capture.Close()
		return &camera.ConfigurationError{Op: "attach output", Err: errors.New("device produced no frames")}
	}

	var intrinsics *camera.Intrinsics
	if s.cfg.CalibrationPath != "" {
		intrinsics, err = camera.LoadIntrinsics(s.cfg.CalibrationPath)
		if err != nil {
			capture.Close()
			return &camera.ConfigurationError{Op: "load calibration", Err: err}
		}
	}

	s.capture = capture
	s.running = true
	s.stopCh = make(chan struct{})
	s.deliverer = camera.NewDeliverer(handler, s.preview)
	s.sessionID = uuid.NewString()

	stop := s.stopCh
	d := s.deliverer
	cfg := s.cfg

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		d.Run(stop)
	}()
	go s.grabLoop(stop, capture, d, cfg, intrinsics)

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-stop:
		}
	}()

	s.logger.Info("capture session started",
		"session", s.sessionID,
		"device", cfg.Device,
		"width", capture.Get(gocv.VideoCaptureFrameWidth),
		"height", capture.Get(gocv.VideoCaptureFrameHeight),
		"fps", capture.Get(gocv.VideoCaptureFPS),
		"calibrated", intrinsics != nil,
	)

	return nil
}

func openDevice(device string) (*gocv.VideoCapture, error) {
	var id interface{} = 0
	if device != "" {
		if n, err := strconv.Atoi(device); err == nil {
			id = n
		} else {
			id = device
		}
	}

	capture, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrDeviceUnavailable, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: device %v did not open", camera.ErrDeviceUnavailable, id)
	}
	return capture, nil
}

func applySettings(capture *gocv.VideoCapture, cfg camera.Config) {
	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	// Keep the driver queue short so we always see the newest frame.
	capture.Set(gocv.VideoCaptureBufferSize, 1)
}

func (s *Source) grabLoop(stop <-chan struct{}, capture *gocv.VideoCapture, d *camera.Deliverer, cfg camera.Config, intrinsics *camera.Intrinsics) {
	defer s.wg.Done()

	mat := gocv.NewMat()
	defer mat.Close()
	bgra := gocv.NewMat()
	defer bgra.Close()
	rotated := gocv.NewMat()
	defer rotated.Close()

	var seq uint64
	misses := 0

	for {
		select {
		case <-stop:
			return
		default:
		}

		if next := s.pending.Swap(nil); next != nil {
			applySettings(capture, *next)
			cfg = *next
			s.logger.Info("capture settings applied",
				"width", next.Width, "height", next.Height, "framerate", next.Framerate)
		}

		if ok := capture.Read(&mat); !ok || mat.Empty() {
			misses++
			if misses%30 == 1 {
				s.logger.Warn("frame read failed", "misses", misses)
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		misses = 0
		seq++

		if err := gocv.CvtColor(mat, &bgra, gocv.ColorBGRToBGRA); err != nil {
			s.logger.Warn("frame conversion failed, dropping frame", "seq", seq, "error", err)
			continue
		}

		out := bgra
		frameIntrinsics := intrinsics
		if cfg.Orientation == camera.OrientationPortrait && bgra.Cols() > bgra.Rows() {
			if err := gocv.Rotate(bgra, &rotated, gocv.Rotate90Clockwise); err != nil {
				s.logger.Warn("frame rotation failed, dropping frame", "seq", seq, "error", err)
				continue
			}
			out = rotated
			if intrinsics != nil {
				frameIntrinsics = intrinsics.RotatedClockwise(bgra.Rows())
			}
		}

		f := camera.Frame{
			Seq:        seq,
			Timestamp:  time.Now(),
			Width:      out.Cols(),
			Height:     out.Rows(),
			Stride:     out.Cols() * camera.BytesPerPixel,
			Data:       out.ToBytes(),
			Intrinsics: frameIntrinsics,
		}

		if !d.Offer(f) {
			s.logger.Debug("handler busy, dropping frame", "seq", seq)
		}
	}
}

// Stop halts the grab loop, waits for the in-flight OnFrame and releases
// the device.
func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
	}
	s.mu.Unlock()

	s.logger.Info("capture session stopped", "session", s.sessionID)
	return nil
}

// Reconfigure queues new resolution and framerate settings.
func (s *Source) Reconfigure(cfg camera.Config) error {
	s.mu.Lock()
	s.cfg.Width = cfg.Width
	s.cfg.Height = cfg.Height
	s.cfg.Framerate = cfg.Framerate
	s.cfg.Quality = cfg.Quality
	next := s.cfg
	running := s.running
	s.mu.Unlock()

	if running {
		s.pending.Store(&next)
	}
	return nil
}

// Config returns the current configuration.
func (s *Source) Config() camera.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Name returns "gocv".
func (s *Source) Name() string {
	return string(camera.BackendGoCV)
}

// Stats returns capture counters.
func (s *Source) Stats() camera.SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := camera.SourceStats{
		SessionID: s.sessionID,
		Running:   s.running,
		Backend:   s.Name(),
	}
	if s.deliverer != nil {
		stats.FramesCaptured, stats.FramesDelivered, stats.FramesDropped = s.deliverer.Counts()
	}
	return stats
}

// Close stops capture permanently.
func (s *Source) Close() error {
	err := s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

var _ camera.Source = (*Source)(nil)
