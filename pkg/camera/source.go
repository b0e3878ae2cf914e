package camera

import (
	"context"
	"io"
)

// FrameHandler receives frames on the capture execution context.
//
// OnFrame is called synchronously, one frame at a time. While it runs, newly
// captured frames are dropped rather than queued.
type FrameHandler interface {
	OnFrame(frame Frame)
}

// FrameHandlerFunc adapts a function to FrameHandler.
type FrameHandlerFunc func(frame Frame)

// OnFrame calls f(frame).
func (f FrameHandlerFunc) OnFrame(frame Frame) {
	f(frame)
}

// Source owns a capture device and delivers frames to a FrameHandler.
type Source interface {
	// Start opens the device and begins streaming to handler.
	// Returns ErrDeviceUnavailable when there is no device, or a
	// *ConfigurationError when the session cannot be wired up.
	// Streaming stops when ctx is cancelled or Stop is called.
	Start(ctx context.Context, handler FrameHandler) error

	// Stop halts capture and waits for an in-flight OnFrame to return.
	// It is safe to call Stop multiple times.
	Stop() error

	// Reconfigure applies runtime-changeable settings (resolution,
	// framerate, preview quality) to the running session.
	Reconfigure(cfg Config) error

	// Config returns the current configuration.
	Config() Config

	// Name returns the backend name (e.g., "gocv", "mock").
	Name() string

	// Stats returns capture counters for the current session.
	Stats() SourceStats

	// Close releases all resources.
	// After Close, the source cannot be restarted.
	io.Closer
}

// SourceStats contains statistics about a capture session.
type SourceStats struct {
	// SessionID identifies the current (or last) capture session.
	SessionID string `json:"session_id"`

	// FramesCaptured is the number of frames read from the device.
	FramesCaptured int64 `json:"frames_captured"`

	// FramesDelivered is the number of frames handed to OnFrame.
	FramesDelivered int64 `json:"frames_delivered"`

	// FramesDropped is the number of frames discarded because the
	// handler was still busy (overrun).
	FramesDropped int64 `json:"frames_dropped"`

	// Running indicates if the source is currently capturing.
	Running bool `json:"running"`

	// Backend is the name of the capture backend.
	Backend string `json:"backend"`
}
