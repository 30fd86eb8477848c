// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-curator/pkg/types"
)

func newTestTemporal(trends map[string]float64) *TemporalScorer {
	return NewTemporalScorer(TemporalOptions{
		RecencyWeight:     DefaultRecencyWeight,
		TrendKeywords:     trends,
		PeakFreshnessDays: 30,
		Now:               clockAt(fixedNow),
	})
}

func paperAged(days int) types.Paper {
	return types.Paper{
		ArxivID:       "2603.00001",
		Title:         "A study",
		Abstract:      "Plain abstract.",
		PublishedDate: fixedNow.AddDate(0, 0, -days),
	}
}

// --- Recency ---

func TestTemporal_RampEndpoints(t *testing.T) {
	s := newTestTemporal(nil)

	assert.Equal(t, 0.0, s.Analyze(paperAged(0)).Recency, "published today starts the ramp")
	assert.Equal(t, 1.0, s.Analyze(paperAged(30)).Recency, "peak day reaches the maximum")
	assert.InDelta(t, 7.0/30.0, s.Analyze(paperAged(7)).Recency, 1e-9)
	assert.InDelta(t, math.Exp(-0.1), s.Analyze(paperAged(60)).Recency, 1e-9)
	assert.InDelta(t, math.Exp(-0.2), s.Analyze(paperAged(90)).Recency, 1e-9)
}

func TestTemporal_RampRisesThenDecays(t *testing.T) {
	s := newTestTemporal(nil)

	rising := []int{0, 1, 7, 30}
	for i := 1; i < len(rising); i++ {
		assert.GreaterOrEqual(t, s.RecencyAt(rising[i]), s.RecencyAt(rising[i-1]),
			"recency must not fall between day %d and day %d", rising[i-1], rising[i])
	}
	decaying := []int{30, 60, 90, 365}
	for i := 1; i < len(decaying); i++ {
		assert.LessOrEqual(t, s.RecencyAt(decaying[i]), s.RecencyAt(decaying[i-1]),
			"recency must not rise between day %d and day %d", decaying[i-1], decaying[i])
	}
}

func TestTemporal_FutureDatedIsAnomalyNotError(t *testing.T) {
	s := newTestTemporal(nil)
	p := paperAged(0)
	p.PublishedDate = fixedNow.Add(72 * time.Hour)

	res, err := s.Score(context.Background(), p, nil)
	require.NoError(t, err)

	rec, _ := res.ComponentScore("recency")
	assert.Equal(t, 0.0, rec)
	assert.Equal(t, true, res.Metadata["future_dated"])
	assert.Less(t, res.Metadata["days_old"].(int), 0)
}

func TestTemporal_PartialDayFloors(t *testing.T) {
	s := newTestTemporal(nil)
	p := paperAged(0)
	p.PublishedDate = fixedNow.Add(-47 * time.Hour)

	assert.Equal(t, 1, s.Analyze(p).DaysOld)
}

// --- Trend and weekday ---

func TestTemporal_Trending(t *testing.T) {
	p := types.Paper{Title: "LLM agents", Abstract: "An llm benchmark for llm tools.", PublishedDate: fixedNow}

	tests := []struct {
		name   string
		trends map[string]float64
		want   float64
	}{
		{"no trends is neutral", nil, 0.5},
		{"absent keyword", map[string]float64{"mamba": 1}, 0},
		{"three mentions", map[string]float64{"llm": 1}, 1 - math.Exp(-3)},
		{"normalized by total", map[string]float64{"llm": 1, "mamba": 1}, (1 - math.Exp(-3)) / 2},
		{"case folded", map[string]float64{"LLM": 2}, 1 - math.Exp(-3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestTemporal(tt.trends)
			assert.InDelta(t, tt.want, s.Analyze(p).Trending, 1e-9)
		})
	}
}

func TestTemporal_WeekdayBonus(t *testing.T) {
	s := newTestTemporal(nil)
	want := map[time.Weekday]float64{
		time.Monday: 1.0, time.Tuesday: 0.9, time.Wednesday: 0.8,
		time.Thursday: 0.6, time.Friday: 0.4, time.Saturday: 0.2, time.Sunday: 0.3,
	}
	for d := 0; d < 7; d++ {
		p := paperAged(d)
		assert.Equal(t, want[p.PublishedDate.Weekday()], s.Analyze(p).DowBonus, p.PublishedDate.Weekday().String())
	}
}

// --- Score ---

func TestTemporal_ScoreCombination(t *testing.T) {
	s := newTestTemporal(nil)
	res, err := s.Score(context.Background(), paperAged(0), nil)
	require.NoError(t, err)

	// 0.5*0 + 0.5*0.5 + 0.1*1.0 (Monday)
	assert.InDelta(t, 0.35, res.Score, 1e-9)
	assert.Equal(t, "Older publication; some trending elements; optimal publication timing", res.Explanation)
	assert.Equal(t, 0, res.Metadata["days_old"])
	assert.Equal(t, []string{}, res.Metadata["trending_matches"])
	for _, k := range []string{"recency", "trending", "publication_timing"} {
		assert.Contains(t, res.Components, k)
	}
}

func TestTemporal_ScoreCappedAtOne(t *testing.T) {
	s := NewTemporalScorer(TemporalOptions{
		RecencyWeight:     1,
		PeakFreshnessDays: 30,
		Now:               clockAt(fixedNow),
	})
	// Four weeks back is also a Monday: 28/30 recency plus the full bonus.
	p := paperAged(28)

	res, err := s.Score(context.Background(), p, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Score, 1.0)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
}

func TestTemporal_Defaults(t *testing.T) {
	s := NewTemporalScorer(TemporalOptions{})
	assert.Equal(t, DefaultPeakFreshnessDays, s.peakDays)
	assert.Equal(t, DefaultDecayRate, s.decay)
	assert.NotNil(t, s.now)
}
