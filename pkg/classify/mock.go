package classify

import (
	"log/slog"
	"sync"
	"time"
)

// Mock implements Classifier for testing.
type Mock struct {
	// ClassifyFunc is called when Classify is invoked.
	ClassifyFunc func(req ImageRequest) ([]Observation, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu     sync.Mutex
	calls  []MockCall
	closed bool
}

// MockCall records a Classify invocation.
type MockCall struct {
	Seq  uint64
	Time time.Time
}

// NewMock creates a mock that always returns labels, ranked in the order
// given with decreasing confidence.
func NewMock(labels ...string) *Mock {
	obs := ObservationsFor(labels...)
	return &Mock{
		ClassifyFunc: func(ImageRequest) ([]Observation, error) {
			out := make([]Observation, len(obs))
			copy(out, obs)
			return out, nil
		},
	}
}

// ObservationsFor builds ranked observations with confidences 0.9, 0.8...
func ObservationsFor(labels ...string) []Observation {
	obs := make([]Observation, len(labels))
	for i, l := range labels {
		c := 0.9 - 0.1*float32(i)
		if c < 0.01 {
			c = 0.01
		}
		obs[i] = Observation{Label: l, Confidence: c}
	}
	return obs
}

// Classify calls ClassifyFunc and records the call.
func (m *Mock) Classify(req ImageRequest) ([]Observation, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.calls = append(m.calls, MockCall{Seq: req.Frame.Seq, Time: time.Now()})
	fn := m.ClassifyFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(req)
	}
	return nil, ErrNoResults
}

// Close calls CloseFunc.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	fn := m.CloseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Classify calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// loadMock backs the "mock" engine. With a labels file it cycles through
// the labels, one per frame, so demos show both verdicts.
func loadMock(cfg ModelConfig, logger *slog.Logger) (Classifier, error) {
	if cfg.LabelsPath == "" {
		return NewMock("analog clock", "wall clock", "barometer", "stopwatch"), nil
	}

	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("mock classifier loaded labels", "count", len(labels))

	m := &Mock{}
	var mu sync.Mutex
	next := 0
	m.ClassifyFunc = func(ImageRequest) ([]Observation, error) {
		mu.Lock()
		defer mu.Unlock()

		top := make([]string, 0, DefaultTopK)
		for i := 0; i < DefaultTopK && i < len(labels); i++ {
			top = append(top, labels[(next+i)%len(labels)])
		}
		next = (next + 1) % len(labels)
		return ObservationsFor(top...), nil
	}
	return m, nil
}
