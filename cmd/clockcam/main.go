// clockcam points a camera at the world and says whether it sees a clock.
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/teslashibe/clockcam/internal/log"
	"github.com/teslashibe/clockcam/pkg/app"
	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/classify"
	"github.com/teslashibe/clockcam/pkg/display/window"

	_ "github.com/teslashibe/clockcam/pkg/camera/gocvcam"
	_ "github.com/teslashibe/clockcam/pkg/classify/dnn"
	_ "github.com/teslashibe/clockcam/pkg/classify/onnx"
)

// highgui must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		stdlog.Fatalf("❌ Configuration error: %v", err)
	}

	log.Init(cfg.LogLevel)
	logger := log.L()

	a, err := app.New(cfg, logger)
	if err != nil {
		stdlog.Fatalf("❌ Configuration error: %v", err)
	}
	if cfg.Window {
		a.AttachSurface(window.New("Is this a "+cfg.Target+"?", a.Preview(), a.Loop(), log.Component("window")))
	}

	if err := a.Init(); err != nil {
		if classify.IsModelLoadError(err) {
			logger.Error("cannot load the classification model", "error", err)
			os.Exit(1)
		}
		stdlog.Fatalf("❌ Initialization failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = a.Run(ctx)
	cancel()
	a.Shutdown()

	if err != nil {
		stdlog.Fatalf("❌ Runtime error: %v", err)
	}
}

// loadConfig builds the configuration from defaults, the config file,
// CLOCKCAM_* environment variables and flags, in that order.
func loadConfig() (app.Config, error) {
	cfg := app.DefaultConfig()

	configPath := flag.String("config", "", "YAML config file")
	backend := flag.String("camera-backend", string(cfg.Camera.Backend), "Camera backend: auto, gocv, mock")
	device := flag.String("device", cfg.Camera.Device, "Camera device index, path or URL")
	preset := flag.String("preset", "", "Camera preset: low, medium, high, 1080p, slow")
	landscape := flag.Bool("landscape", false, "Keep sensor orientation instead of rotating to portrait")
	calibration := flag.String("calibration", "", "Camera calibration YAML")
	engine := flag.String("engine", cfg.Model.Engine, "Classifier engine: dnn, onnx, mock")
	model := flag.String("model", cfg.Model.ModelPath, "Model file")
	labels := flag.String("labels", cfg.Model.LabelsPath, "Class labels file")
	metadata := flag.String("metadata", "", "ONNX model metadata JSON")
	target := flag.String("target", cfg.Target, "Label substring that counts as a match")
	locale := flag.String("locale", cfg.Locale, "Verdict language, e.g. en or ru")
	minConfidence := flag.Float64("min-confidence", float64(cfg.MinConfidence), "Ignore labels below this confidence (0 disables)")
	webAddr := flag.String("web-addr", cfg.Web.Addr, "Dashboard listen address")
	noWeb := flag.Bool("no-web", false, "Disable the web dashboard")
	noWindow := flag.Bool("no-window", false, "Run headless without the preview window")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			return cfg, err
		}
	}
	cfg.LoadEnvConfig()

	// Only flags given on the command line override file and environment.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["camera-backend"] {
		cfg.Camera.Backend = camera.Backend(*backend)
	}
	if set["device"] {
		cfg.Camera.Device = *device
	}
	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			return cfg, fmt.Errorf("unknown preset %q, choose one of %s", *preset, strings.Join(camera.PresetNames(), ", "))
		}
		cfg.Camera.Width, cfg.Camera.Height = p.Width, p.Height
		cfg.Camera.Framerate, cfg.Camera.Quality = p.Framerate, p.Quality
	}
	if *landscape {
		cfg.Camera.Orientation = camera.OrientationLandscape
	}
	if set["calibration"] {
		cfg.Camera.CalibrationPath = *calibration
	}
	if set["engine"] {
		cfg.Model.Engine = *engine
	}
	if set["model"] {
		cfg.Model.ModelPath = *model
	}
	if set["labels"] {
		cfg.Model.LabelsPath = *labels
	}
	if set["metadata"] {
		cfg.Model.MetadataPath = *metadata
	}
	if set["target"] {
		cfg.Target = *target
	}
	if set["locale"] {
		cfg.Locale = *locale
	}
	if set["min-confidence"] {
		cfg.MinConfidence = float32(*minConfidence)
	}
	if set["web-addr"] {
		cfg.Web.Addr = *webAddr
	}
	if *noWeb {
		cfg.WebEnabled = false
	}
	if *noWindow {
		cfg.Window = false
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	return cfg, nil
}
