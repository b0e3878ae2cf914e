package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/display"
)

// textSink records verdict text. It is only touched on the loop.
type textSink struct {
	texts []string
}

func (s *textSink) SetVerdictText(text string) { s.texts = append(s.texts, text) }

func (s *textSink) last() string {
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

func newTestPipeline(t *testing.T, c Classifier) (*Pipeline, *textSink, *display.Loop) {
	t.Helper()
	sink := &textSink{}
	loop := display.NewLoop()
	p, err := NewPipeline(NewRequest(c), sink, loop, nil)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p, sink, loop
}

func testFrame(seq uint64) camera.Frame {
	f := camera.NewFrame(32, 32)
	f.Seq = seq
	return f
}

func TestNewPipeline_RequiresCollaborators(t *testing.T) {
	if _, err := NewPipeline(Request{}, &textSink{}, display.NewLoop(), nil); err == nil {
		t.Error("expected error without classifier")
	}
	if _, err := NewPipeline(NewRequest(NewMock()), nil, display.NewLoop(), nil); err == nil {
		t.Error("expected error without sink")
	}
}

func TestPipeline_ClassifyScenarios(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		positive bool
	}{
		{"clock", []string{"wall clock", "digital watch", "analog clock", "wristwatch"}, true},
		{"no clock", []string{"golden retriever", "laptop", "coffee mug", "sofa"}, false},
		{"upper case", []string{"ALARM CLOCK"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, _, _ := newTestPipeline(t, NewMock(tc.labels...))
			v, err := p.Classify(testFrame(1))
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if v.Positive != tc.positive {
				t.Errorf("Positive: got %v, want %v", v.Positive, tc.positive)
			}
		})
	}
}

func TestPipeline_ClassifyPassesFrameAndIntrinsics(t *testing.T) {
	var got ImageRequest
	mock := &Mock{ClassifyFunc: func(req ImageRequest) ([]Observation, error) {
		got = req
		return ObservationsFor("wall clock"), nil
	}}
	p, _, _ := newTestPipeline(t, mock)

	f := testFrame(9)
	f.Intrinsics = &camera.Intrinsics{Matrix: [9]float64{500, 0, 16, 0, 500, 16, 0, 0, 1}}
	if _, err := p.Classify(f); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if got.Frame.Seq != 9 || got.Crop != CropCenter {
		t.Errorf("request: seq=%d crop=%v", got.Frame.Seq, got.Crop)
	}
	if got.Intrinsics != f.Intrinsics {
		t.Error("intrinsics not attached")
	}
}

func TestPipeline_OnFramePostsToUI(t *testing.T) {
	p, sink, loop := newTestPipeline(t, NewMock("analog clock"))

	p.OnFrame(testFrame(1))

	if len(sink.texts) != 0 {
		t.Fatal("sink must only be touched on the UI loop")
	}
	loop.Drain()
	if sink.last() != "This is a clock" {
		t.Errorf("text: got %q", sink.last())
	}
}

func TestPipeline_ErrorKeepsVerdict(t *testing.T) {
	fail := errors.New("engine exploded")
	calls := 0
	mock := &Mock{ClassifyFunc: func(ImageRequest) ([]Observation, error) {
		calls++
		switch calls {
		case 1:
			return ObservationsFor("wall clock"), nil
		case 2:
			return nil, fail
		default:
			return nil, nil
		}
	}}
	p, sink, loop := newTestPipeline(t, mock)

	p.OnFrame(testFrame(1))
	loop.Drain()
	before := sink.last()

	// Engine error, then an empty result.
	p.OnFrame(testFrame(2))
	p.OnFrame(testFrame(3))
	loop.Drain()

	if sink.last() != before || len(sink.texts) != 1 {
		t.Errorf("verdict changed after errors: %v", sink.texts)
	}

	m := p.Metrics().Snapshot()
	if m.Errors != 2 || m.FramesClassified != 1 || m.Positives != 1 {
		t.Errorf("metrics: %+v", m)
	}
}

func TestPipeline_ClassifyErrorTypes(t *testing.T) {
	fail := errors.New("bad output shape")
	p, _, _ := newTestPipeline(t, &Mock{ClassifyFunc: func(ImageRequest) ([]Observation, error) {
		return nil, fail
	}})

	_, err := p.Classify(testFrame(4))
	var ce *ClassificationError
	if !errors.As(err, &ce) || ce.Seq != 4 {
		t.Fatalf("expected ClassificationError for frame 4, got %v", err)
	}
	if !errors.Is(err, fail) {
		t.Error("cause should be wrapped")
	}

	_, err = p.Classify(camera.Frame{Seq: 5})
	if !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("expected ErrEmptyFrame, got %v", err)
	}
}

func TestPipeline_Observer(t *testing.T) {
	var seen []Verdict
	sink := &textSink{}
	loop := display.NewLoop()
	// Observers see the verdict before the sink shows its text.
	var textsAtObserve []int
	p, err := NewPipeline(NewRequest(NewMock("sofa")), sink, loop, nil,
		WithObserver(func(v Verdict) {
			seen = append(seen, v)
			textsAtObserve = append(textsAtObserve, len(sink.texts))
		}))
	if err != nil {
		t.Fatal(err)
	}

	p.OnFrame(testFrame(1))
	if len(seen) != 0 {
		t.Fatal("observers must run on the UI loop, not the capture context")
	}

	loop.Drain()
	if len(seen) != 1 || seen[0].Positive || seen[0].Text != sink.last() {
		t.Errorf("observer: %+v, sink: %v", seen, sink.texts)
	}
	if textsAtObserve[0] != 0 {
		t.Error("observer should run before the sink")
	}
}

// gatedClassifier blocks each call until released, so tests control how
// long a classification takes.
type gatedClassifier struct {
	entered chan uint64
	release chan []Observation
}

func (g *gatedClassifier) Classify(req ImageRequest) ([]Observation, error) {
	g.entered <- req.Frame.Seq
	return <-g.release, nil
}

func (g *gatedClassifier) Close() error { return nil }

func TestPipeline_DroppedFramesNeverReachTheSink(t *testing.T) {
	gate := &gatedClassifier{
		entered: make(chan uint64, 8),
		release: make(chan []Observation),
	}
	sink := &textSink{}
	loop := display.NewLoop()
	p, err := NewPipeline(NewRequest(gate), sink, loop, nil)
	if err != nil {
		t.Fatal(err)
	}

	cfg := camera.LowConfig()
	cfg.Backend = camera.BackendMock
	cfg.Orientation = camera.OrientationLandscape
	src := camera.NewMockSource(cfg, nil, camera.WithManualFrames())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := src.Start(ctx, p); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Close()

	// Frame 1: retry until the delivery goroutine is ready for it.
	first := emitWhenReady(t, src)
	if got := waitSeq(t, gate.entered); got != first {
		t.Fatalf("classifying %d, want %d", got, first)
	}

	// Frame 2 arrives while frame 1 is still classifying: dropped.
	if src.Emit(testFrame(0)) {
		t.Fatal("frame emitted during classification should be dropped")
	}

	gate.release <- ObservationsFor("wall clock")

	// Frame 3 arrives after frame 1 completes.
	third := emitWhenReady(t, src)
	if got := waitSeq(t, gate.entered); got != third {
		t.Fatalf("classifying %d, want %d", got, third)
	}
	gate.release <- ObservationsFor("sofa")

	waitFor(t, func() bool { return p.Metrics().Snapshot().FramesClassified == 2 })
	loop.Drain()

	want := []string{"This is a clock", "This is not a clock"}
	if len(sink.texts) != 2 || sink.texts[0] != want[0] || sink.texts[1] != want[1] {
		t.Errorf("texts: got %v, want %v", sink.texts, want)
	}
	if st := src.Stats(); st.FramesDropped < 1 {
		t.Errorf("FramesDropped: got %d", st.FramesDropped)
	}
}

func emitWhenReady(t *testing.T, src *camera.MockSource) uint64 {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if seq, ok := src.EmitSeq(testFrame(0)); ok {
			return seq
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("frame never accepted")
	return 0
}

func waitSeq(t *testing.T, ch <-chan uint64) uint64 {
	t.Helper()
	select {
	case seq := <-ch:
		return seq
	case <-time.After(2 * time.Second):
		t.Fatal("classifier never called")
		return 0
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	labels := filepath.Join(dir, "synset.txt")
	os.WriteFile(labels, []byte("n02708093 analog clock\nn04548280 wall clock\n"), 0o644)

	t.Run("mock with labels", func(t *testing.T) {
		cfg := DefaultModelConfig()
		cfg.Engine = "mock"
		cfg.LabelsPath = labels

		c, err := LoadModel(cfg, nil)
		if err != nil {
			t.Fatalf("LoadModel failed: %v", err)
		}
		defer c.Close()

		obs, err := c.Classify(ImageRequest{Frame: testFrame(1)})
		if err != nil || len(obs) != 2 || obs[0].Label != "analog clock" {
			t.Errorf("got %+v, %v", obs, err)
		}
	})

	t.Run("unknown engine", func(t *testing.T) {
		cfg := DefaultModelConfig()
		cfg.Engine = "tflite"

		_, err := LoadModel(cfg, nil)
		if !IsModelLoadError(err) || !errors.Is(err, ErrUnknownEngine) {
			t.Errorf("expected ModelLoadError wrapping ErrUnknownEngine, got %v", err)
		}
	})

	t.Run("missing labels", func(t *testing.T) {
		cfg := DefaultModelConfig()
		cfg.Engine = "mock"
		cfg.LabelsPath = filepath.Join(dir, "missing.txt")

		_, err := LoadModel(cfg, nil)
		if !IsModelLoadError(err) {
			t.Errorf("expected ModelLoadError, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultModelConfig()
		cfg.Engine = "mock"
		cfg.InputSize = 0

		_, err := LoadModel(cfg, nil)
		if !IsModelLoadError(err) {
			t.Errorf("expected ModelLoadError, got %v", err)
		}
	})
}

func TestMock_RecordsCalls(t *testing.T) {
	m := NewMock("wall clock")
	m.Classify(ImageRequest{Frame: testFrame(3)})
	m.Classify(ImageRequest{Frame: testFrame(4)})

	calls := m.Calls()
	if len(calls) != 2 || calls[1].Seq != 4 {
		t.Errorf("calls: %+v", calls)
	}

	m.Close()
	if _, err := m.Classify(ImageRequest{}); err != ErrClosed {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}
