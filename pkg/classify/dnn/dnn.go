// Package dnn classifies frames with OpenCV's DNN module.
//
// Importing the package registers the "dnn" engine with pkg/classify.
// ReadNet picks the framework from the file extension, so ONNX, Caffe and
// TensorFlow models all work.
package dnn

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/clockcam/pkg/classify"
)

// maxResults is how many ranked observations Classify returns.
const maxResults = 10

func init() {
	classify.Register("dnn", func(cfg classify.ModelConfig, logger *slog.Logger) (classify.Classifier, error) {
		return New(cfg, logger)
	})
}

// Classifier runs a gocv.Net.
type Classifier struct {
	net    gocv.Net
	labels []string
	cfg    classify.ModelConfig
	logger *slog.Logger

	scale float64
	mean  gocv.Scalar

	mu     sync.Mutex
	closed bool
}

// New loads the model and labels.
func New(cfg classify.ModelConfig, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	labels, err := classify.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	// BlobFromImage computes (pixel - mean) * scale with one scale for all
	// channels, so per-channel std is approximated by its average.
	std := (cfg.Std[0] + cfg.Std[1] + cfg.Std[2]) / 3

	c := &Classifier{
		net:    net,
		labels: labels,
		cfg:    cfg,
		logger: logger.With("engine", "dnn"),
		scale:  1.0 / (255.0 * float64(std)),
		mean:   gocv.NewScalar(float64(cfg.Mean[0])*255, float64(cfg.Mean[1])*255, float64(cfg.Mean[2])*255, 0),
	}

	c.logger.Info("model loaded", "model", cfg.ModelPath, "classes", len(labels))
	return c, nil
}

// Classify runs one forward pass over the request frame.
func (c *Classifier) Classify(req classify.ImageRequest) ([]classify.Observation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, classify.ErrClosed
	}

	f := req.Frame
	bgra, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC4, f.Data[:f.Stride*f.Height])
	if err != nil {
		return nil, fmt.Errorf("wrap frame: %w", err)
	}
	defer bgra.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	if err := gocv.CvtColor(bgra, &bgr, gocv.ColorBGRAToBGR); err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}

	if in := req.Intrinsics; in != nil && in.HasDistortion() {
		if err := undistort(&bgr, in.Matrix, in.Distortion); err != nil {
			return nil, err
		}
	}

	size := image.Pt(c.cfg.InputSize, c.cfg.InputSize)
	crop := req.Crop == classify.CropCenter

	// The model expects RGB.
	blob := gocv.BlobFromImage(bgr, c.scale, size, c.mean, true, crop)
	defer blob.Close()

	c.net.SetInput(blob, "")
	prob := c.net.Forward("")
	defer prob.Close()

	if prob.Empty() {
		return nil, fmt.Errorf("empty network output")
	}

	scores, err := prob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	if len(scores) < len(c.labels) {
		return nil, fmt.Errorf("output has %d scores for %d labels", len(scores), len(c.labels))
	}

	if c.cfg.Softmax {
		scores = classify.Softmax(scores)
	}
	return classify.FromScores(scores, c.labels, maxResults), nil
}

func undistort(img *gocv.Mat, matrix [9]float64, dist []float64) error {
	camMat := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer camMat.Close()
	for i, v := range matrix {
		camMat.SetDoubleAt(i/3, i%3, v)
	}

	distMat := gocv.NewMatWithSize(1, len(dist), gocv.MatTypeCV64F)
	defer distMat.Close()
	for i, v := range dist {
		distMat.SetDoubleAt(0, i, v)
	}

	out := gocv.NewMat()
	defer out.Close()
	if err := gocv.Undistort(*img, &out, camMat, distMat, camMat); err != nil {
		return fmt.Errorf("undistort: %w", err)
	}
	if out.Empty() {
		return fmt.Errorf("undistort produced no image")
	}
	if err := out.CopyTo(img); err != nil {
		return fmt.Errorf("undistort: %w", err)
	}
	return nil
}

// Close releases the network.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.net.Close()
}

var _ classify.Classifier = (*Classifier)(nil)
