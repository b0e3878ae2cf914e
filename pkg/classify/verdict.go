package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Defaults for the clock detector.
const (
	DefaultTopK   = 4
	DefaultTarget = "clock"
)

// Verdict is the outcome for one frame.
type Verdict struct {
	Positive bool     `json:"positive"`
	Labels   []string `json:"labels"` // consulted labels, normalized
	Text     string   `json:"text"`
}

// Normalize lower-cases a label for matching.
func Normalize(label string) string {
	// A Caser keeps state, so each call gets its own.
	return cases.Lower(language.Und).String(strings.TrimSpace(label))
}

// Decide reports whether any label contains target, ignoring case.
// It is pure: the same labels always give the same answer.
func Decide(labels []string, target string) bool {
	t := Normalize(target)
	if t == "" {
		return false
	}
	for _, l := range labels {
		if strings.Contains(Normalize(l), t) {
			return true
		}
	}
	return false
}
