package classify

import (
	"errors"
	"log/slog"
	"time"

	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/display"
)

// Pipeline turns frames into verdicts and hands them to the UI context.
//
// OnFrame runs on the capture execution context. Classification is
// synchronous there; the finished verdict is posted to the UI as a whole.
type Pipeline struct {
	req     Request
	sink    display.Sink
	ui      display.Dispatcher
	logger  *slog.Logger
	metrics *MetricsCollector

	observers []func(Verdict)
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithMetrics records outcomes in m.
func WithMetrics(m *MetricsCollector) PipelineOption {
	return func(p *Pipeline) { p.metrics = m }
}

// WithObserver calls fn with every verdict on the UI context, right before
// the sink receives the verdict text, so observers and sinks always agree
// on the current verdict. fn must not block.
func WithObserver(fn func(Verdict)) PipelineOption {
	return func(p *Pipeline) { p.observers = append(p.observers, fn) }
}

// NewPipeline creates a pipeline for req.
func NewPipeline(req Request, sink display.Sink, ui display.Dispatcher, logger *slog.Logger, opts ...PipelineOption) (*Pipeline, error) {
	if req.Classifier == nil {
		return nil, errors.New("classify: request has no classifier")
	}
	if sink == nil || ui == nil {
		return nil, errors.New("classify: sink and dispatcher are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		req:     req,
		sink:    sink,
		ui:      ui,
		logger:  logger,
		metrics: NewMetricsCollector(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Classify runs the classifier on f and returns the verdict.
// Failures are returned as *ClassificationError.
func (p *Pipeline) Classify(f camera.Frame) (Verdict, error) {
	if f.Empty() {
		p.metrics.RecordError()
		return Verdict{}, &ClassificationError{Seq: f.Seq, Err: ErrEmptyFrame}
	}

	start := time.Now()
	obs, err := p.req.Classifier.Classify(p.req.Image(f))
	if err != nil {
		p.metrics.RecordError()
		return Verdict{}, &ClassificationError{Seq: f.Seq, Err: err}
	}

	v, err := p.req.Evaluate(obs)
	if err != nil {
		p.metrics.RecordError()
		return Verdict{}, &ClassificationError{Seq: f.Seq, Err: err}
	}

	p.metrics.RecordSuccess(time.Since(start), v.Positive)
	return v, nil
}

// OnFrame classifies f and posts the verdict to the UI context.
// On error the frame is dropped and the displayed verdict is left alone.
func (p *Pipeline) OnFrame(f camera.Frame) {
	v, err := p.Classify(f)
	if err != nil {
		p.logger.Warn("classification failed", "seq", f.Seq, "error", err)
		return
	}

	p.logger.Debug("frame classified",
		"seq", f.Seq,
		"positive", v.Positive,
		"labels", v.Labels,
	)

	p.ui.Post(func() {
		for _, fn := range p.observers {
			fn(v)
		}
		p.sink.SetVerdictText(v.Text)
	})
}

// Metrics returns the pipeline's collector.
func (p *Pipeline) Metrics() *MetricsCollector {
	return p.metrics
}

// Request returns the session's classification request.
func (p *Pipeline) Request() Request {
	return p.req
}

var _ camera.FrameHandler = (*Pipeline)(nil)
