package classify

import (
	"math"
	"sort"
)

// Observation is one ranked classification result.
type Observation struct {
	Label      string  `json:"label"`
	Confidence float32 `json:"confidence"`
}

// Rank sorts observations by confidence, highest first. Ties keep their
// original order.
func Rank(obs []Observation) {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Confidence > obs[j].Confidence
	})
}

// TopK returns at most the first k observations. It does not copy.
func TopK(obs []Observation, k int) []Observation {
	if k <= 0 || len(obs) <= k {
		return obs
	}
	return obs[:k]
}

// Softmax converts raw scores into probabilities.
func Softmax(scores []float32) []float32 {
	if len(scores) == 0 {
		return nil
	}

	hi := scores[0]
	for _, s := range scores[1:] {
		if s > hi {
			hi = s
		}
	}

	out := make([]float32, len(scores))
	var sum float64
	for i, s := range scores {
		e := math.Exp(float64(s - hi))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

// FromScores pairs per-class scores with labels and returns the k best,
// ranked. Scores beyond len(labels) are ignored; labels without a score
// are skipped.
func FromScores(scores []float32, labels []string, k int) []Observation {
	n := len(scores)
	if len(labels) < n {
		n = len(labels)
	}

	obs := make([]Observation, n)
	for i := 0; i < n; i++ {
		obs[i] = Observation{Label: labels[i], Confidence: scores[i]}
	}
	Rank(obs)
	return TopK(obs, k)
}
