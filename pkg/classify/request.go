package classify

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/teslashibe/clockcam/pkg/camera"
)

// CropPolicy decides how a frame is fitted to the model input.
type CropPolicy int

const (
	// CropCenter crops the largest centered square, then scales it.
	CropCenter CropPolicy = iota
	// CropScaleFit scales the whole frame, ignoring aspect ratio.
	CropScaleFit
)

// String returns the policy name.
func (c CropPolicy) String() string {
	switch c {
	case CropCenter:
		return "center"
	case CropScaleFit:
		return "scale_fit"
	default:
		return fmt.Sprintf("CropPolicy(%d)", int(c))
	}
}

// Request binds a loaded classifier to the rules that turn its output into
// a verdict. It is built once per session and never changes.
type Request struct {
	Classifier Classifier
	Crop       CropPolicy
	TopK       int
	Target     string

	// MinConfidence drops consulted labels below this confidence.
	// Zero disables the cutoff.
	MinConfidence float32

	Locale language.Tag
}

// RequestOption configures a Request.
type RequestOption func(*Request)

// WithTarget sets the substring that makes a verdict positive.
func WithTarget(target string) RequestOption {
	return func(r *Request) { r.Target = target }
}

// WithTopK sets how many ranked labels are consulted.
func WithTopK(k int) RequestOption {
	return func(r *Request) { r.TopK = k }
}

// WithMinConfidence sets the confidence cutoff.
func WithMinConfidence(c float32) RequestOption {
	return func(r *Request) { r.MinConfidence = c }
}

// WithLocale sets the verdict text language.
func WithLocale(tag language.Tag) RequestOption {
	return func(r *Request) { r.Locale = tag }
}

// WithCrop sets the crop policy.
func WithCrop(c CropPolicy) RequestOption {
	return func(r *Request) { r.Crop = c }
}

// NewRequest creates a request for c with clock-detector defaults.
func NewRequest(c Classifier, opts ...RequestOption) Request {
	r := Request{
		Classifier: c,
		Crop:       CropCenter,
		TopK:       DefaultTopK,
		Target:     DefaultTarget,
		Locale:     language.English,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Image wraps one frame for the classifier.
func (r Request) Image(f camera.Frame) ImageRequest {
	return ImageRequest{
		Frame:      f,
		Crop:       r.Crop,
		Intrinsics: f.Intrinsics,
	}
}

// Evaluate turns ranked observations into a verdict.
func (r Request) Evaluate(obs []Observation) (Verdict, error) {
	if len(obs) == 0 {
		return Verdict{}, ErrNoResults
	}

	top := TopK(obs, r.TopK)
	labels := make([]string, 0, len(top))
	for _, o := range top {
		if r.MinConfidence > 0 && o.Confidence < r.MinConfidence {
			continue
		}
		labels = append(labels, Normalize(o.Label))
	}

	positive := Decide(labels, r.Target)
	return Verdict{
		Positive: positive,
		Labels:   labels,
		Text:     VerdictText(positive, r.Target, r.Locale),
	}, nil
}

// ImageRequest is the per-frame input to a Classifier. It is only valid
// for the duration of the Classify call.
type ImageRequest struct {
	Frame camera.Frame
	Crop  CropPolicy

	// Intrinsics is set when the capture session is calibrated.
	Intrinsics *camera.Intrinsics
}
