package classify

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Classifier runs an image classification model.
type Classifier interface {
	// Classify runs the model synchronously and returns observations
	// ranked by confidence, highest first.
	Classify(req ImageRequest) ([]Observation, error)

	// Close releases the model.
	Close() error
}

// ModelConfig selects and configures a classification engine.
type ModelConfig struct {
	// Engine is a registered engine name: "dnn", "onnx" or "mock".
	Engine string `yaml:"engine" json:"engine"`

	// ModelPath is the model file (ONNX, Caffe, TensorFlow...).
	ModelPath string `yaml:"model" json:"model"`

	// ConfigPath is an optional network description (Caffe prototxt,
	// TensorFlow pbtxt). ONNX models do not need one.
	ConfigPath string `yaml:"model_config" json:"model_config,omitempty"`

	// LabelsPath is a synset file, one class per line.
	LabelsPath string `yaml:"labels" json:"labels"`

	// MetadataPath is a JSON file describing tensors and classes
	// (onnx engine).
	MetadataPath string `yaml:"metadata" json:"metadata,omitempty"`

	// InputSize is the square model input edge in pixels.
	InputSize int `yaml:"input_size" json:"input_size"`

	// Mean and Std normalize RGB channels scaled to [0, 1].
	Mean [3]float32 `yaml:"mean" json:"mean"`
	Std  [3]float32 `yaml:"std" json:"std"`

	// Softmax converts raw logits into probabilities.
	Softmax bool `yaml:"softmax" json:"softmax"`

	// SharedLibraryPath points at the onnxruntime shared library.
	SharedLibraryPath string `yaml:"onnxruntime_lib" json:"onnxruntime_lib,omitempty"`
}

// DefaultModelConfig returns settings for MobileNetV2 trained on ImageNet.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Engine:     "dnn",
		ModelPath:  "models/mobilenetv2-7.onnx",
		LabelsPath: "models/synset.txt",
		InputSize:  224,
		Mean:       [3]float32{0.485, 0.456, 0.406},
		Std:        [3]float32{0.229, 0.224, 0.225},
		Softmax:    true,
	}
}

// Validate checks the config. Returns a list of problems, or nil.
func (c *ModelConfig) Validate() []string {
	var errors []string
	if c.Engine == "" {
		errors = append(errors, "engine is required")
	}
	if c.InputSize < 16 || c.InputSize > 2048 {
		errors = append(errors, "input_size must be between 16 and 2048")
	}
	for i, s := range c.Std {
		if s <= 0 {
			errors = append(errors, fmt.Sprintf("std[%d] must be positive", i))
		}
	}
	return errors
}

// Engine loads a Classifier.
type Engine func(cfg ModelConfig, logger *slog.Logger) (Classifier, error)

var (
	enginesMu sync.RWMutex
	engines   = map[string]Engine{
		"mock": loadMock,
	}
)

// Register makes an engine available to LoadModel.
// Engine packages call this from init().
func Register(name string, e Engine) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[name] = e
}

// Engines returns the registered engine names, sorted.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()

	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadModel loads the configured classifier. Every failure is returned as a
// *ModelLoadError.
func LoadModel(cfg ModelConfig, logger *slog.Logger) (Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ModelLoadError{Engine: cfg.Engine, Path: cfg.ModelPath, Err: fmt.Errorf("invalid config: %v", errs)}
	}

	enginesMu.RLock()
	load, ok := engines[cfg.Engine]
	enginesMu.RUnlock()
	if !ok {
		return nil, &ModelLoadError{Engine: cfg.Engine, Err: fmt.Errorf("%w (registered: %v)", ErrUnknownEngine, Engines())}
	}

	logger.Info("loading classifier",
		"engine", cfg.Engine,
		"model", cfg.ModelPath,
		"labels", cfg.LabelsPath,
		"input_size", cfg.InputSize,
	)

	c, err := load(cfg, logger)
	if err != nil {
		if IsModelLoadError(err) {
			return nil, err
		}
		return nil, &ModelLoadError{Engine: cfg.Engine, Path: cfg.ModelPath, Err: err}
	}
	return c, nil
}
