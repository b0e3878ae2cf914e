// Package app wires a capture session, the classification pipeline and the
// display surfaces into the clockcam application.
package app

import (
	"fmt"
	"strings"

	"github.com/teslashibe/clockcam/internal/config"
	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/classify"
	"github.com/teslashibe/clockcam/pkg/web"
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/clockcam/main.go; this struct is data only.
type Config struct {
	Camera camera.Config        `yaml:"camera"`
	Model  classify.ModelConfig `yaml:"model"`

	// Target is the label substring that makes a verdict positive.
	Target string `yaml:"target"`

	// Locale selects the verdict text language, e.g. "en" or "ru".
	Locale string `yaml:"locale"`

	// MinConfidence ignores weaker labels. Zero disables the cutoff.
	MinConfidence float32 `yaml:"min_confidence"`

	// Web dashboard. Disabled when WebEnabled is false.
	WebEnabled bool       `yaml:"web_enabled"`
	Web        web.Config `yaml:"web"`

	// Window opens the preview window. Requires a display.
	Window bool `yaml:"window"`

	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the defaults: default camera in portrait,
// MobileNetV2 via OpenCV DNN, English text, dashboard on :8080.
func DefaultConfig() Config {
	return Config{
		Camera:     camera.DefaultConfig(),
		Model:      classify.DefaultModelConfig(),
		Target:     classify.DefaultTarget,
		Locale:     "en",
		WebEnabled: true,
		Web:        web.DefaultConfig(),
		Window:     true,
		LogLevel:   "info",
	}
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	return config.LoadYAML(path, c)
}

// LoadEnvConfig applies CLOCKCAM_* environment overrides.
// Call this after loading the config file and before flag parsing.
func (c *Config) LoadEnvConfig() {
	c.Camera.Backend = camera.Backend(config.Env("CAMERA_BACKEND", string(c.Camera.Backend)))
	c.Camera.Device = config.Env("CAMERA_DEVICE", c.Camera.Device)
	c.Camera.CalibrationPath = config.Env("CALIBRATION", c.Camera.CalibrationPath)
	c.Camera.Width = config.EnvInt("CAMERA_WIDTH", c.Camera.Width)
	c.Camera.Height = config.EnvInt("CAMERA_HEIGHT", c.Camera.Height)
	c.Camera.Framerate = config.EnvInt("CAMERA_FPS", c.Camera.Framerate)

	c.Model.Engine = config.Env("ENGINE", c.Model.Engine)
	c.Model.ModelPath = config.Env("MODEL", c.Model.ModelPath)
	c.Model.LabelsPath = config.Env("LABELS", c.Model.LabelsPath)
	c.Model.MetadataPath = config.Env("METADATA", c.Model.MetadataPath)
	c.Model.SharedLibraryPath = config.Env("ONNXRUNTIME_LIB", c.Model.SharedLibraryPath)
	c.Model.InputSize = config.EnvInt("INPUT_SIZE", c.Model.InputSize)

	c.Target = config.Env("TARGET", c.Target)
	c.Locale = config.Env("LOCALE", c.Locale)
	c.MinConfidence = float32(config.EnvFloat("MIN_CONFIDENCE", float64(c.MinConfidence)))

	c.WebEnabled = config.EnvBool("WEB", c.WebEnabled)
	c.Web.Addr = config.Env("WEB_ADDR", c.Web.Addr)
	c.Web.PreviewFPS = config.EnvInt("PREVIEW_FPS", c.Web.PreviewFPS)
	c.Window = config.EnvBool("WINDOW", c.Window)
	c.LogLevel = config.Env("LOG_LEVEL", c.LogLevel)
}

// Validate checks the configuration. Camera settings are checked when the
// session starts, where a problem is shown to the user instead of aborting.
func (c *Config) Validate() error {
	var errs []string

	for _, e := range c.Model.Validate() {
		errs = append(errs, "model: "+e)
	}
	if strings.TrimSpace(c.Target) == "" {
		errs = append(errs, "target is required")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		errs = append(errs, "min_confidence must be between 0 and 1")
	}
	if c.WebEnabled && c.Web.Addr == "" {
		errs = append(errs, "web.addr is required when the dashboard is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
