// Package camera provides capture sessions for clockcam: frame types, runtime
// configurable camera settings, and pluggable capture backends.
//
// Backends register themselves with Register. The mock backend is always
// available; the gocv backend lives in pkg/camera/gocvcam and is linked in by
// importing that package.
package camera

// Backend names a capture backend.
type Backend string

const (
	// BackendAuto picks gocv when it is linked in, mock otherwise.
	BackendAuto Backend = "auto"
	// BackendGoCV captures from an OpenCV VideoCapture device.
	BackendGoCV Backend = "gocv"
	// BackendMock generates synthetic frames for tests and demos.
	BackendMock Backend = "mock"
)

// Orientation is the fixed output orientation of a capture session.
type Orientation string

const (
	// OrientationPortrait rotates landscape sensor frames 90° clockwise.
	OrientationPortrait Orientation = "portrait"
	// OrientationLandscape delivers frames as the sensor produces them.
	OrientationLandscape Orientation = "landscape"
)

// Config holds all camera configuration parameters.
// Resolution, framerate and quality can be changed at runtime through
// Manager; everything else is fixed when the session starts.
type Config struct {
	// === Device ===
	Backend Backend `yaml:"backend" json:"backend"`

	// Device selects the capture device.
	// Empty means the default device (index 0). Numeric values are device
	// indexes; anything else is passed to the backend as a path or URL.
	Device string `yaml:"device" json:"device"`

	// === Resolution ===
	Width     int `yaml:"width" json:"width"`         // Requested frame width in pixels
	Height    int `yaml:"height" json:"height"`       // Requested frame height in pixels
	Framerate int `yaml:"framerate" json:"framerate"` // Target FPS
	Quality   int `yaml:"quality" json:"quality"`     // Preview JPEG quality 1-100

	// === Fixed at setup ===
	Orientation Orientation `yaml:"orientation" json:"orientation"`
	PixelFormat PixelFormat `yaml:"pixel_format" json:"pixel_format"`

	// CalibrationPath points to a YAML file with camera intrinsics.
	// Empty means frames carry no intrinsics.
	CalibrationPath string `yaml:"calibration" json:"calibration,omitempty"`
}

// Resolution limits accepted by Validate.
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 4096
	MaxHeight    = 4096
	MaxFramerate = 120
)

// DefaultConfig returns the "high" preset: 1280x720 at 30 FPS in portrait.
func DefaultConfig() Config {
	return Config{
		Backend:     BackendAuto,
		Device:      "",
		Width:       1280,
		Height:      720,
		Framerate:   30,
		Quality:     80,
		Orientation: OrientationPortrait,
		PixelFormat: PixelFormatBGRA,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	switch c.Backend {
	case BackendAuto, BackendGoCV, BackendMock, "":
	default:
		if !IsRegistered(c.Backend) {
			errors = append(errors, "backend "+string(c.Backend)+" is not available")
		}
	}

	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 4096")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 4096")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	if c.Orientation != OrientationPortrait && c.Orientation != OrientationLandscape {
		errors = append(errors, "orientation must be portrait or landscape")
	}

	// Classification input is always 32-bit BGRA.
	if c.PixelFormat != PixelFormatBGRA {
		errors = append(errors, "pixel_format must be bgra32")
	}

	return errors
}
