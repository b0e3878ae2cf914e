package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for capture sessions.
var (
	// ErrDeviceUnavailable is returned when no capture device can be opened.
	// A denied camera permission surfaces the same way.
	ErrDeviceUnavailable = errors.New("camera: no capture device available")

	// ErrClosed is returned when starting a source after Close.
	ErrClosed = errors.New("camera: source closed")

	// ErrUnknownBackend is returned by NewSource for unregistered backends.
	ErrUnknownBackend = errors.New("camera: unknown backend")
)

// ConfigurationError reports that a session could not be wired up:
// invalid settings, or a device that opened but would not deliver frames.
// It is meant to be shown to the user and is not fatal.
type ConfigurationError struct {
	// Op names the setup step that failed.
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("camera: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
