package classify

import (
	"testing"

	"golang.org/x/text/language"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   bool
	}{
		{
			name:   "clock in top four",
			labels: []string{"wall clock", "digital watch", "analog clock", "wristwatch"},
			want:   true,
		},
		{
			name:   "no clock",
			labels: []string{"golden retriever", "laptop", "coffee mug", "sofa"},
			want:   false,
		},
		{
			name:   "case insensitive single label",
			labels: []string{"ALARM CLOCK"},
			want:   true,
		},
		{
			name:   "substring inside word",
			labels: []string{"clockwork"},
			want:   true,
		},
		{
			name:   "empty",
			labels: nil,
			want:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.labels, DefaultTarget); got != tc.want {
				t.Errorf("Decide(%v): got %v, want %v", tc.labels, got, tc.want)
			}
		})
	}
}

func TestDecide_EmptyTargetNeverMatches(t *testing.T) {
	if Decide([]string{"wall clock"}, "  ") {
		t.Error("blank target should not match")
	}
}

func TestRequest_Evaluate(t *testing.T) {
	req := NewRequest(NewMock())

	v, err := req.Evaluate(ObservationsFor("wall clock", "digital watch", "analog clock", "wristwatch"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !v.Positive || v.Text != "This is a clock" {
		t.Errorf("got %+v", v)
	}

	v, err = req.Evaluate(ObservationsFor("golden retriever", "laptop", "coffee mug", "sofa"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if v.Positive || v.Text != "This is not a clock" {
		t.Errorf("got %+v", v)
	}

	v, _ = req.Evaluate(ObservationsFor("ALARM CLOCK"))
	if !v.Positive {
		t.Error("single upper-case label should be positive")
	}
	if len(v.Labels) != 1 || v.Labels[0] != "alarm clock" {
		t.Errorf("labels should be normalized, got %v", v.Labels)
	}
}

func TestRequest_EvaluateOnlyConsultsTopFour(t *testing.T) {
	req := NewRequest(NewMock())

	v, err := req.Evaluate(ObservationsFor("laptop", "sofa", "coffee mug", "notebook", "wall clock"))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if v.Positive {
		t.Error("fifth label must not influence the verdict")
	}
	if len(v.Labels) != 4 {
		t.Errorf("consulted labels: got %d, want 4", len(v.Labels))
	}
}

func TestRequest_EvaluateIsIdempotent(t *testing.T) {
	req := NewRequest(NewMock())
	obs := ObservationsFor("analog clock", "barometer")

	first, _ := req.Evaluate(obs)
	for i := 0; i < 5; i++ {
		v, _ := req.Evaluate(obs)
		if v.Text != first.Text || v.Positive != first.Positive {
			t.Fatalf("run %d: got %+v, want %+v", i, v, first)
		}
	}
}

func TestRequest_EvaluateNoResults(t *testing.T) {
	req := NewRequest(NewMock())
	if _, err := req.Evaluate(nil); err != ErrNoResults {
		t.Errorf("expected ErrNoResults, got %v", err)
	}
}

func TestRequest_MinConfidence(t *testing.T) {
	obs := []Observation{
		{Label: "laptop", Confidence: 0.7},
		{Label: "wall clock", Confidence: 0.05},
	}

	v, _ := NewRequest(NewMock()).Evaluate(obs)
	if !v.Positive {
		t.Error("without a cutoff any top-4 match is positive")
	}

	v, _ = NewRequest(NewMock(), WithMinConfidence(0.1)).Evaluate(obs)
	if v.Positive {
		t.Error("weak match below the cutoff should be ignored")
	}
	if len(v.Labels) != 1 {
		t.Errorf("labels: got %v", v.Labels)
	}
}

func TestRequest_CustomTarget(t *testing.T) {
	req := NewRequest(NewMock(), WithTarget("Watch"))
	v, _ := req.Evaluate(ObservationsFor("digital watch"))
	if !v.Positive {
		t.Error("target match should be case-insensitive")
	}
}

func TestVerdictText(t *testing.T) {
	tests := []struct {
		locale   language.Tag
		positive bool
		want     string
	}{
		{language.English, true, "This is a clock"},
		{language.English, false, "This is not a clock"},
		{language.Russian, true, "Это часы"},
		{language.Russian, false, "Это не часы"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := VerdictText(tc.positive, DefaultTarget, tc.locale); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestVerdictText_TargetIsNotAFormat(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"100%", "This is a 100%"},
		{"%d clock", "This is a %d clock"},
		{"wall clock", "This is a wall clock"},
	}

	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			if got := VerdictText(true, tc.target, language.English); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
	}{
		{"en", language.English},
		{"ru-RU", language.Russian},
		{"de, ru;q=0.8", language.Russian},
		{"", language.English},
		{"not a locale!!", language.English},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := MatchLocale(tc.in); got != tc.want {
				t.Errorf("MatchLocale(%q): got %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
