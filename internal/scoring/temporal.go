// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// Temporal scoring defaults.
const (
	DefaultPeakFreshnessDays = 30
	DefaultRecencyWeight     = 0.5
	DefaultDecayRate         = 0.1

	dowBonusWeight = 0.1
)

// dowBonus rewards papers dated early in the work week.
var dowBonus = map[time.Weekday]float64{
	time.Monday:    1.0,
	time.Tuesday:   0.9,
	time.Wednesday: 0.8,
	time.Thursday:  0.6,
	time.Friday:    0.4,
	time.Saturday:  0.2,
	time.Sunday:    0.3,
}

// TemporalOptions configures a TemporalScorer. RecencyWeight is used as
// given, so callers wanting the usual balance pass DefaultRecencyWeight.
type TemporalOptions struct {
	RecencyWeight     float64
	TrendKeywords     map[string]float64
	PeakFreshnessDays int

	// DecayRate controls the post-peak exponential decay per 30 days.
	// Zero selects DefaultDecayRate.
	DecayRate float64

	// Now returns the reference time for age calculations. Nil uses
	// time.Now.
	Now func() time.Time
}

// TemporalBreakdown holds the typed sub-scores of a temporal evaluation.
type TemporalBreakdown struct {
	Recency  float64
	Trending float64
	DowBonus float64

	// DaysOld is the whole-day age of the paper; negative for future dates.
	DaysOld int

	TrendingMatches []string
}

// FutureDated reports the data anomaly of a publication date after the
// reference time.
func (b TemporalBreakdown) FutureDated() bool { return b.DaysOld < 0 }

// TemporalScorer rates papers by freshness, trending topics and publication
// weekday.
type TemporalScorer struct {
	recencyWeight float64
	trends        []weightedTerm
	trendTotal    float64
	peakDays      int
	decay         float64
	now           func() time.Time
}

// NewTemporalScorer applies defaults for unset peak, decay and clock.
func NewTemporalScorer(opts TemporalOptions) *TemporalScorer {
	s := &TemporalScorer{
		recencyWeight: clamp01(opts.RecencyWeight),
		trends:        sortedTerms(opts.TrendKeywords),
		peakDays:      opts.PeakFreshnessDays,
		decay:         opts.DecayRate,
		now:           opts.Now,
	}
	if s.peakDays <= 0 {
		s.peakDays = DefaultPeakFreshnessDays
	}
	if s.decay <= 0 {
		s.decay = DefaultDecayRate
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, t := range s.trends {
		s.trendTotal += t.weight
	}
	return s
}

func (s *TemporalScorer) Name() string { return NameTemporal }

// Score implements Strategy.
func (s *TemporalScorer) Score(_ context.Context, paper types.Paper, _ *Focus) (types.ScoringResult, error) {
	b := s.Analyze(paper)
	total := clamp01(math.Min(1,
		s.recencyWeight*b.Recency+(1-s.recencyWeight)*b.Trending+dowBonusWeight*b.DowBonus))

	var parts []string
	switch {
	case b.Recency > 0.8:
		parts = append(parts, "Very recent publication")
	case b.Recency > 0.5:
		parts = append(parts, "Recent publication")
	case b.Recency < 0.2:
		parts = append(parts, "Older publication")
	}
	switch {
	case b.Trending > 0.7:
		parts = append(parts, "highly trending topics")
	case b.Trending > 0.4:
		parts = append(parts, "some trending elements")
	}
	if b.DowBonus > 0.8 {
		parts = append(parts, "optimal publication timing")
	}

	matches := b.TrendingMatches
	if matches == nil {
		matches = []string{}
	}
	meta := map[string]any{
		"days_old":         b.DaysOld,
		"trending_matches": matches,
	}
	if b.FutureDated() {
		meta["future_dated"] = true
	}
	return types.ScoringResult{
		Score:       total,
		Explanation: explain(parts, "Standard temporal scoring"),
		Components: floatComponents(map[string]float64{
			"recency":            b.Recency,
			"trending":           b.Trending,
			"publication_timing": b.DowBonus,
		}),
		Metadata: meta,
	}, nil
}

// Analyze computes the temporal sub-scores relative to the scorer's clock.
func (s *TemporalScorer) Analyze(paper types.Paper) TemporalBreakdown {
	days := int(math.Floor(s.now().Sub(paper.PublishedDate).Hours() / 24))
	b := TemporalBreakdown{
		DaysOld:  days,
		Recency:  s.recency(days),
		DowBonus: dowBonus[paper.PublishedDate.Weekday()],
	}
	b.Trending, b.TrendingMatches = s.trending(paperText(paper))
	return b
}

// RecencyAt returns the recency sub-score for a paper of the given age.
// It ramps linearly to 1 at the peak and decays exponentially afterwards.
func (s *TemporalScorer) RecencyAt(days int) float64 {
	return s.recency(days)
}

func (s *TemporalScorer) recency(days int) float64 {
	if days < 0 {
		return 0
	}
	if days <= s.peakDays {
		return float64(days) / float64(s.peakDays)
	}
	return math.Exp(-s.decay * float64(days-s.peakDays) / 30)
}

func (s *TemporalScorer) trending(text string) (float64, []string) {
	if len(s.trends) == 0 {
		return 0.5, nil
	}
	var score float64
	var matches []string
	for _, t := range s.trends {
		n := strings.Count(text, t.term)
		if n == 0 {
			continue
		}
		matches = append(matches, t.term)
		score += t.weight * (1 - math.Exp(-float64(n)))
	}
	if s.trendTotal > 0 {
		score /= s.trendTotal
	}
	return clamp01(score), matches
}
