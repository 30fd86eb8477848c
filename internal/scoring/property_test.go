// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// vocabulary mixes plain words with tokens that trigger each heuristic.
var vocabulary = []string{
	"transformer", "attention", "graph", "neural", "novel", "efficient",
	"llm", "diffusion", "[1]", "[2, 3]", "et al.", "(Smith et al., 2021)",
	"NeurIPS", "ICML", "arXiv", "journal", "proceedings", "Stanford",
	"university", "mamba", "the", "of", "we", "propose",
}

var authorPool = []string{
	"Geoffrey Hinton", "Yann LeCun", "Smith, John", "Plato", "Xin Li",
	"Agent 007", "Ada Lovelace", "Jane Smith", "Bo Chen",
}

func paperGen() *rapid.Generator[types.Paper] {
	return rapid.Custom(func(t *rapid.T) types.Paper {
		words := rapid.SliceOfN(rapid.SampledFrom(vocabulary), 0, 40).Draw(t, "words")
		title := rapid.SliceOfN(rapid.SampledFrom(vocabulary), 1, 8).Draw(t, "title")
		age := rapid.IntRange(-30, 2000).Draw(t, "age")
		return types.Paper{
			ArxivID:       "2601.00001",
			Title:         strings.Join(title, " "),
			Abstract:      strings.Join(words, " "),
			Authors:       rapid.SliceOfN(rapid.SampledFrom(authorPool), 0, 14).Draw(t, "authors"),
			Categories:    rapid.SliceOfN(rapid.SampledFrom([]string{"cs.AI", "cs.LG", "cs.CL", "stat.ML"}), 0, 4).Draw(t, "cats"),
			PublishedDate: fixedNow.AddDate(0, 0, -age),
		}
	})
}

func TestProperty_StrategyScoresInUnitInterval(t *testing.T) {
	cfg := types.DefaultScoringConfig()
	strategies := []Strategy{
		NewKeywordScorer(cfg.Keywords, cfg.BoostTerms),
		NewKeywordScorer([]string{"graph"}, map[string]float64{"novel": -2, "efficient": 1}),
		NewTemporalScorer(TemporalOptions{RecencyWeight: 0.5, TrendKeywords: cfg.TrendKeywords, PeakFreshnessDays: 30, Now: clockAt(fixedNow)}),
		NewCitationScorer(cfg.MinCitations),
		NewAuthorScorer(cfg.KnownAuthors, cfg.InstitutionScores, cfg.CollaborationBonus),
		NewLLMScorer(&fakeGenerator{err: errors.New("down")}, LLMOptions{}),
	}

	rapid.Check(t, func(rt *rapid.T) {
		p := paperGen().Draw(rt, "paper")
		for _, s := range strategies {
			res, err := s.Score(context.Background(), p, nil)
			if err != nil {
				rt.Fatalf("%s: %v", s.Name(), err)
			}
			if math.IsNaN(res.Score) || res.Score < 0 || res.Score > 1 {
				rt.Fatalf("%s: score %v outside [0,1]", s.Name(), res.Score)
			}
			if res.Explanation == "" {
				rt.Fatalf("%s: empty explanation", s.Name())
			}
		}
	})
}

func TestProperty_AddingPresentKeywordNeverLowersMatch(t *testing.T) {
	words := []string{"transformer", "attention", "graph", "neural", "kernel", "sparse", "vision", "agent"}

	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.SliceOfN(rapid.SampledFrom(words), 1, 20).Draw(rt, "text")
		keywords := rapid.SliceOfN(rapid.SampledFrom(append(words, "learn", "grap")), 0, 6).Draw(rt, "keywords")
		added := rapid.SampledFrom(text).Draw(rt, "added")

		p := types.Paper{Title: "t", Abstract: strings.Join(text, " ")}
		before := NewKeywordScorer(keywords, nil).Analyze(p, nil)
		after := NewKeywordScorer(append(append([]string(nil), keywords...), added), nil).Analyze(p, nil)

		if !before.NoKeywords && after.KeywordMatch < before.KeywordMatch-1e-12 {
			rt.Fatalf("adding %q lowered keyword_match from %v to %v", added, before.KeywordMatch, after.KeywordMatch)
		}
	})
}

func TestProperty_RecencyRampShape(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		peak := rapid.IntRange(1, 120).Draw(rt, "peak")
		s := NewTemporalScorer(TemporalOptions{PeakFreshnessDays: peak, Now: clockAt(fixedNow)})
		a := rapid.IntRange(0, 3*peak).Draw(rt, "a")
		b := rapid.IntRange(a, 3*peak).Draw(rt, "b")

		ra, rb := s.RecencyAt(a), s.RecencyAt(b)
		switch {
		case b <= peak && rb < ra:
			rt.Fatalf("ramp fell from day %d (%v) to day %d (%v)", a, ra, b, rb)
		case a >= peak && rb > ra:
			rt.Fatalf("decay rose from day %d (%v) to day %d (%v)", a, ra, b, rb)
		}
	})
}

func TestProperty_EnsembleRenormalizes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "n")
		raw := make([]float64, n)
		var sum float64
		for i := range raw {
			raw[i] = rapid.Float64Range(0.01, 1).Draw(rt, fmt.Sprintf("w%d", i))
			sum += raw[i]
		}
		members := make([]Weighted, n)
		for i := range members {
			stub := &stubStrategy{
				name:  fmt.Sprintf("s%d", i),
				score: rapid.Float64Range(0, 1).Draw(rt, fmt.Sprintf("score%d", i)),
			}
			if rapid.Bool().Draw(rt, fmt.Sprintf("fail%d", i)) {
				stub.err = errors.New("fail")
			}
			members[i] = Weighted{Strategy: stub, Weight: raw[i] / sum}
		}
		c, err := NewComposite(members, WithTimeout(time.Second))
		if err != nil {
			rt.Fatalf("construction: %v", err)
		}
		res, err := c.Score(context.Background(), types.Paper{ArxivID: "x"}, nil)
		if err != nil {
			rt.Fatalf("optional failures must not fail the call: %v", err)
		}
		if res.Score < 0 || res.Score > 1 {
			rt.Fatalf("score %v outside [0,1]", res.Score)
		}
		if len(res.Components) == 0 {
			if res.Score != 0 || res.Explanation != "No scorers produced valid results" {
				rt.Fatalf("total failure returned %v %q", res.Score, res.Explanation)
			}
			return
		}
		var total float64
		for _, comp := range res.Components {
			total += comp.Weight
		}
		if math.Abs(total-1) > 1e-9 {
			rt.Fatalf("renormalized weights sum to %v", total)
		}
	})
}
