// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Component is one named entry of a ScoringResult. Strategy sub-scores only
// set Score; the ensemble also records the normalized Weight and the
// contributing strategy's Explanation.
type Component struct {
	Score       float64 `json:"score" yaml:"score"`
	Weight      float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Explanation string  `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// ScoringResult is the output of a single strategy or of the ensemble.
// Score is always within [0, 1] and Explanation is never empty.
type ScoringResult struct {
	Score       float64              `json:"score" yaml:"score"`
	Explanation string               `json:"explanation" yaml:"explanation"`
	Components  map[string]Component `json:"components" yaml:"components"`
	Metadata    map[string]any       `json:"metadata" yaml:"metadata"`
}

// ComponentScore returns the score of the named component and whether it
// is present.
func (r ScoringResult) ComponentScore(name string) (float64, bool) {
	c, ok := r.Components[name]
	return c.Score, ok
}

// Degraded reports whether the result came from a fallback path or from an
// ensemble in which no strategy succeeded.
func (r ScoringResult) Degraded() bool {
	if fb, ok := r.Metadata["fallback"].(bool); ok && fb {
		return true
	}
	_, failed := r.Metadata["error"]
	return failed
}
