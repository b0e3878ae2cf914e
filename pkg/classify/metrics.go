package classify

import (
	"sync"
	"time"
)

// Metrics is a snapshot of pipeline counters.
type Metrics struct {
	FramesClassified int64         `json:"frames_classified"`
	Errors           int64         `json:"errors"`
	Positives        int64         `json:"positives"`
	LastLatency      time.Duration `json:"last_latency_ns"`
	MeanLatency      time.Duration `json:"mean_latency_ns"`
	LastClassified   time.Time     `json:"last_classified"`
}

// MetricsCollector tracks classification outcomes and latency.
// It is goroutine-safe.
type MetricsCollector struct {
	mu      sync.Mutex
	current Metrics
	history []time.Duration // recent latencies for averaging
}

const latencyHistory = 100

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]time.Duration, 0, latencyHistory),
	}
}

// RecordSuccess records one classified frame.
func (m *MetricsCollector) RecordSuccess(latency time.Duration, positive bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.FramesClassified++
	if positive {
		m.current.Positives++
	}
	m.current.LastLatency = latency
	m.current.LastClassified = time.Now()

	m.history = append(m.history, latency)
	if len(m.history) > latencyHistory {
		m.history = m.history[1:]
	}

	var total time.Duration
	for _, d := range m.history {
		total += d
	}
	m.current.MeanLatency = total / time.Duration(len(m.history))
}

// RecordError records one failed frame.
func (m *MetricsCollector) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Errors++
}

// Snapshot returns the current metrics.
func (m *MetricsCollector) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// FormatLatency returns "last | mean" latency, rounded to milliseconds.
func (m Metrics) FormatLatency() string {
	return formatDuration(m.LastLatency) + " last | " + formatDuration(m.MeanLatency) + " mean"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
