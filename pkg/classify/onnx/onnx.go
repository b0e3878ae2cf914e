// Package onnx classifies frames with ONNX Runtime.
//
// Importing the package registers the "onnx" engine with pkg/classify. The
// model is described by a metadata JSON file:
//
//	{
//	  "input_name": "input",
//	  "output_name": "output",
//	  "input_shape": [1, 3, 224, 224],
//	  "output_shape": [1, 1000],
//	  "image_size": 224,
//	  "classes": ["tench", "goldfish", "..."]
//	}
package onnx

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/teslashibe/clockcam/pkg/classify"
)

const maxResults = 10

func init() {
	classify.Register("onnx", func(cfg classify.ModelConfig, logger *slog.Logger) (classify.Classifier, error) {
		return New(cfg, logger)
	})
}

// Metadata describes the model tensors.
type Metadata struct {
	InputName   string    `json:"input_name"`
	OutputName  string    `json:"output_name"`
	InputShape  []int64   `json:"input_shape"`
	OutputShape []int64   `json:"output_shape"`
	Classes     []string  `json:"classes"`
	ImageSize   int       `json:"image_size"`
	Mean        []float32 `json:"mean,omitempty"`
	Std         []float32 `json:"std,omitempty"`
}

// LoadMetadata reads and checks a metadata file.
func LoadMetadata(path string) (Metadata, error) {
	var md Metadata

	data, err := os.ReadFile(path)
	if err != nil {
		return md, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(data, &md); err != nil {
		return md, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if md.InputName == "" {
		md.InputName = "input"
	}
	if md.OutputName == "" {
		md.OutputName = "output"
	}
	if len(md.InputShape) != 4 || md.InputShape[1] != 3 {
		return md, fmt.Errorf("input_shape must be [N, 3, H, W], got %v", md.InputShape)
	}
	if md.InputShape[2] != md.InputShape[3] {
		return md, fmt.Errorf("input must be square, got %v", md.InputShape)
	}
	if md.ImageSize == 0 {
		md.ImageSize = int(md.InputShape[2])
	}
	if int64(md.ImageSize) != md.InputShape[2] {
		return md, fmt.Errorf("image_size %d does not match input_shape %v", md.ImageSize, md.InputShape)
	}
	if len(md.OutputShape) == 0 {
		return md, fmt.Errorf("output_shape is required")
	}
	return md, nil
}

// Environment reference counting: ORT has one process-wide environment.
var (
	envMu    sync.Mutex
	envUsers int
)

func acquireEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envUsers == 0 {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	envUsers++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()

	envUsers--
	if envUsers == 0 {
		ort.DestroyEnvironment()
	}
}

// Classifier runs an ONNX Runtime session with preallocated tensors.
type Classifier struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]

	metadata Metadata
	labels   []string
	mean     [3]float32
	std      [3]float32
	softmax  bool
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New loads the model described by cfg.MetadataPath.
func New(cfg classify.ModelConfig, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	md, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}

	labels := md.Classes
	if cfg.LabelsPath != "" {
		labels, err = classify.LoadLabels(cfg.LabelsPath)
		if err != nil {
			return nil, err
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no class labels in metadata or labels file")
	}

	mean, std := cfg.Mean, cfg.Std
	if len(md.Mean) == 3 {
		copy(mean[:], md.Mean)
	}
	if len(md.Std) == 3 {
		copy(std[:], md.Std)
	}

	if err := acquireEnvironment(cfg.SharedLibraryPath); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(md.InputShape...))
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(md.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{md.InputName}, []string{md.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	c := &Classifier{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		metadata:     md,
		labels:       labels,
		mean:         mean,
		std:          std,
		softmax:      cfg.Softmax,
		logger:       logger.With("engine", "onnx"),
	}

	c.logger.Info("model loaded",
		"model", cfg.ModelPath,
		"input", md.InputShape,
		"classes", len(labels),
	)
	return c, nil
}

// Classify preprocesses the frame into the input tensor and runs the
// session.
func (c *Classifier) Classify(req classify.ImageRequest) ([]classify.Observation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, classify.ErrClosed
	}

	input := classify.Tensor(req, c.metadata.ImageSize, c.mean, c.std)
	dst := c.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input tensor holds %d values, image has %d", len(dst), len(input))
	}
	copy(dst, input)

	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	scores := c.outputTensor.GetData()
	if len(scores) == 0 {
		return nil, fmt.Errorf("empty output tensor")
	}
	if c.softmax {
		scores = classify.Softmax(scores)
	}
	return classify.FromScores(scores, c.labels, maxResults), nil
}

// Close releases the session and tensors.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.inputTensor != nil {
		c.inputTensor.Destroy()
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
	}
	if c.session != nil {
		c.session.Destroy()
	}
	releaseEnvironment()
	return nil
}

var _ classify.Classifier = (*Classifier)(nil)
