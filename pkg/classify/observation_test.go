package classify

import (
	"math"
	"strings"
	"testing"
)

func TestSoftmax(t *testing.T) {
	p := Softmax([]float32{1, 2, 3})

	var sum float32
	for _, v := range p {
		sum += v
	}
	if math.Abs(float64(sum-1)) > 1e-5 {
		t.Errorf("sum: got %v, want 1", sum)
	}
	if !(p[2] > p[1] && p[1] > p[0]) {
		t.Errorf("order not preserved: %v", p)
	}

	if Softmax(nil) != nil {
		t.Error("Softmax(nil) should be nil")
	}
}

func TestFromScores(t *testing.T) {
	labels := []string{"sofa", "wall clock", "laptop", "barometer", "mug"}
	scores := []float32{0.1, 0.5, 0.05, 0.3, 0.05}

	obs := FromScores(scores, labels, 3)
	if len(obs) != 3 {
		t.Fatalf("len: got %d, want 3", len(obs))
	}
	want := []string{"wall clock", "barometer", "sofa"}
	for i, o := range obs {
		if o.Label != want[i] {
			t.Errorf("obs[%d]: got %q, want %q", i, o.Label, want[i])
		}
	}
}

func TestFromScores_MoreScoresThanLabels(t *testing.T) {
	obs := FromScores([]float32{0.1, 0.9, 0.8}, []string{"a", "b"}, 0)
	if len(obs) != 2 || obs[0].Label != "b" {
		t.Errorf("got %+v", obs)
	}
}

func TestParseLabels(t *testing.T) {
	input := `# ImageNet subset
n02708093 analog clock
n04548280 wall clock

n03196217 digital clock, LED clock
golden retriever
`
	labels, err := ParseLabels(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseLabels failed: %v", err)
	}

	want := []string{"analog clock", "wall clock", "digital clock", "golden retriever"}
	if len(labels) != len(want) {
		t.Fatalf("got %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d]: got %q, want %q", i, labels[i], want[i])
		}
	}

	if _, err := ParseLabels(strings.NewReader("# only comments\n")); err == nil {
		t.Error("expected error for empty label file")
	}
}
