// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// Keyword sub-score weights.
const (
	keywordMatchWeight    = 0.5
	keywordBoostWeight    = 0.3
	keywordCategoryWeight = 0.2
)

// KeywordBreakdown holds the typed sub-scores of a keyword evaluation.
type KeywordBreakdown struct {
	KeywordMatch      float64
	BoostTerms        float64
	CategoryRelevance float64

	// Matched lists keywords found anywhere in the text, in keyword order.
	Matched []string

	// NoKeywords is set when neither configuration nor focus supplied any
	// keyword; the sub-scores are then meaningless.
	NoKeywords bool
}

// Total combines the sub-scores, capped at 1.
func (b KeywordBreakdown) Total() float64 {
	return math.Min(1, keywordMatchWeight*b.KeywordMatch+
		keywordBoostWeight*b.BoostTerms+
		keywordCategoryWeight*b.CategoryRelevance)
}

type keywordPattern struct {
	term string
	word *regexp.Regexp
}

func newKeywordPattern(term string) keywordPattern {
	return keywordPattern{
		term: term,
		word: regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`),
	}
}

// KeywordScorer rates papers by keyword presence, boost terms and category
// overlap.
type KeywordScorer struct {
	keywords []keywordPattern
	boosts   []weightedTerm
	maxBoost float64
}

// NewKeywordScorer case-folds keywords and boost terms. Duplicate and blank
// keywords are dropped.
func NewKeywordScorer(keywords []string, boostTerms map[string]float64) *KeywordScorer {
	s := &KeywordScorer{boosts: sortedTerms(boostTerms)}
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		s.keywords = append(s.keywords, newKeywordPattern(kw))
	}
	for _, b := range s.boosts {
		s.maxBoost += math.Abs(b.weight)
	}
	return s
}

func (s *KeywordScorer) Name() string { return NameKeyword }

// Score implements Strategy.
func (s *KeywordScorer) Score(_ context.Context, paper types.Paper, focus *Focus) (types.ScoringResult, error) {
	b := s.Analyze(paper, focus)
	if b.NoKeywords {
		return types.ScoringResult{
			Score:       0.5,
			Explanation: "No keywords configured for matching",
			Components:  map[string]types.Component{},
			Metadata:    map[string]any{"warning": "no_keywords"},
		}, nil
	}

	var parts []string
	switch {
	case b.KeywordMatch > 0.7:
		parts = append(parts, "Strong keyword relevance")
	case b.KeywordMatch > 0.3:
		parts = append(parts, "Moderate keyword relevance")
	default:
		parts = append(parts, "Low keyword relevance")
	}
	if b.BoostTerms > 0.7 {
		parts = append(parts, "contains important boost terms")
	}
	if b.CategoryRelevance > 0.5 {
		parts = append(parts, "relevant categories")
	}

	matched := b.Matched
	if matched == nil {
		matched = []string{}
	}
	return types.ScoringResult{
		Score:       clamp01(b.Total()),
		Explanation: explain(parts, "Low keyword relevance"),
		Components: floatComponents(map[string]float64{
			"keyword_match":      b.KeywordMatch,
			"boost_terms":        b.BoostTerms,
			"category_relevance": b.CategoryRelevance,
		}),
		Metadata: map[string]any{"matched_keywords": matched},
	}, nil
}

// Analyze computes the keyword sub-scores without building a result.
func (s *KeywordScorer) Analyze(paper types.Paper, focus *Focus) KeywordBreakdown {
	keywords := s.withFocus(focus.keywords())
	if len(keywords) == 0 {
		return KeywordBreakdown{NoKeywords: true}
	}

	text := paperText(paper)
	b := KeywordBreakdown{
		BoostTerms:        s.boostScore(text),
		CategoryRelevance: categoryRelevance(keywords, paper.Categories),
	}

	var credit float64
	for _, kw := range keywords {
		switch {
		case kw.word.MatchString(text):
			credit += 1.0
		case strings.Contains(text, kw.term):
			credit += 0.5
		}
		if strings.Contains(text, kw.term) {
			b.Matched = append(b.Matched, kw.term)
		}
	}
	b.KeywordMatch = math.Min(1, credit/float64(len(keywords)))
	return b
}

// withFocus unions configured keywords with request keywords, preserving
// first-seen order.
func (s *KeywordScorer) withFocus(extra []string) []keywordPattern {
	if len(extra) == 0 {
		return s.keywords
	}
	out := make([]keywordPattern, len(s.keywords), len(s.keywords)+len(extra))
	copy(out, s.keywords)
	seen := make(map[string]bool, cap(out))
	for _, kw := range s.keywords {
		seen[kw.term] = true
	}
	for _, kw := range extra {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, newKeywordPattern(kw))
	}
	return out
}

// boostScore sums multiplier × ln(1+occurrences) and maps the result from
// [-max, max] onto [0, 1]. With no boost terms the score is neutral.
func (s *KeywordScorer) boostScore(text string) float64 {
	if len(s.boosts) == 0 || s.maxBoost == 0 {
		return 0.5
	}
	var sum float64
	for _, b := range s.boosts {
		if n := strings.Count(text, b.term); n > 0 {
			sum += b.weight * math.Log1p(float64(n))
		}
	}
	return clamp01((sum + s.maxBoost) / (2 * s.maxBoost))
}

func categoryRelevance(keywords []keywordPattern, categories []string) float64 {
	if len(categories) == 0 {
		return 0.5
	}
	var tokens []string
	for _, c := range categories {
		for _, t := range strings.Split(strings.ToLower(c), ".") {
			if t != "" {
				tokens = append(tokens, t)
			}
		}
	}
	var matches int
	for _, kw := range keywords {
		for _, t := range tokens {
			if strings.Contains(t, kw.term) || strings.Contains(kw.term, t) {
				matches++
				break
			}
		}
	}
	return math.Min(1, float64(matches)/float64(len(keywords)))
}
