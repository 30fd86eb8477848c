// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring estimates how relevant a paper is to a research focus.
// Independent strategies (keywords, temporal trends, citation patterns,
// author reputation, LLM judgment) each produce a ScoringResult; Composite
// runs them concurrently and combines the survivors with renormalized
// weights.
package scoring

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// Strategy scores a single paper. Implementations hold only configuration
// fixed at construction, so one instance may score many papers
// concurrently. A low-relevance paper yields a low score, never an error;
// errors are reserved for operational faults.
type Strategy interface {
	Name() string
	Score(ctx context.Context, paper types.Paper, focus *Focus) (types.ScoringResult, error)
}

// Focus is the optional per-request context used to bias generic
// strategies toward a caller's interests. A nil *Focus is valid.
type Focus struct {
	// Keywords are unioned with a keyword strategy's configured list.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// ResearchInterests are quoted in the LLM prompt.
	ResearchInterests []string `json:"research_interests,omitempty" yaml:"research_interests,omitempty"`
}

func (f *Focus) keywords() []string {
	if f == nil {
		return nil
	}
	return f.Keywords
}

func (f *Focus) interests() []string {
	if f == nil {
		return nil
	}
	return f.ResearchInterests
}

// Strategy names double as aggregation keys in ensemble results.
const (
	NameKeyword   = "keyword_scorer"
	NameTemporal  = "temporal_scorer"
	NameCitation  = "citation_scorer"
	NameAuthor    = "author_scorer"
	NameLLM       = "llm_scorer"
	NameComposite = "composite_scorer"
)

// clamp01 bounds v to [0, 1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// paperText returns the lower-cased title and abstract joined by a space.
func paperText(p types.Paper) string {
	return strings.ToLower(p.Title + " " + p.Abstract)
}

// floatComponents converts plain sub-scores into result components.
func floatComponents(scores map[string]float64) map[string]types.Component {
	out := make(map[string]types.Component, len(scores))
	for k, v := range scores {
		out[k] = types.Component{Score: v}
	}
	return out
}

// explain joins explanation fragments, falling back when none apply.
func explain(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, "; ")
}

// weightedTerm is a case-folded term with its multiplier.
type weightedTerm struct {
	term   string
	weight float64
}

// sortedTerms lower-cases map keys and returns them in a stable order so
// that floating-point accumulation is reproducible across runs.
func sortedTerms(m map[string]float64) []weightedTerm {
	merged := make(map[string]float64, len(m))
	for k, v := range m {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		merged[k] = v
	}
	terms := make([]weightedTerm, 0, len(merged))
	for k, v := range merged {
		terms = append(terms, weightedTerm{term: k, weight: v})
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i].term < terms[j].term })
	return terms
}
