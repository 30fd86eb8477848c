// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"math"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"

	"github.com/pdiddy/paper-curator/internal/ollama"
	"github.com/pdiddy/paper-curator/pkg/types"
)

// Deps carries the collaborators New wires into the strategies. Every
// field is optional.
type Deps struct {
	// Generator overrides the Ollama client built from the configuration.
	Generator Generator

	// HTTPClient is used for the Ollama client when Generator is nil.
	HTTPClient *http.Client

	Logger *log.Logger

	// Now is the temporal strategy's clock.
	Now func() time.Time
}

// New builds the ensemble described by cfg. The LLM strategy is registered
// first and as optional when UseLLM is set and its weight is positive;
// keyword, citation, temporal and author strategies follow as required
// members whenever their weight is positive. The enabled weights are
// renormalized to sum to 1.
func New(cfg types.ScoringConfig, deps Deps) (*Composite, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var members []Weighted
	if cfg.UseLLM && cfg.LLMWeight > 0 {
		gen := deps.Generator
		if gen == nil {
			gen = ollama.New(cfg.OllamaHost, cfg.OllamaModel, deps.HTTPClient)
		}
		members = append(members, Weighted{
			Strategy: NewLLMScorer(gen, LLMOptions{
				Model:   cfg.OllamaModel,
				Timeout: cfg.LLMTimeout,
				Strict:  cfg.LLMStrict,
			}),
			Weight: cfg.LLMWeight,
		})
	}
	if cfg.KeywordWeight > 0 {
		members = append(members, Weighted{
			Strategy: NewKeywordScorer(cfg.Keywords, cfg.BoostTerms),
			Weight:   cfg.KeywordWeight,
			Required: true,
		})
	}
	if cfg.CitationWeight > 0 {
		members = append(members, Weighted{
			Strategy: NewCitationScorer(cfg.MinCitations),
			Weight:   cfg.CitationWeight,
			Required: true,
		})
	}
	if cfg.TemporalWeight > 0 {
		members = append(members, Weighted{
			Strategy: NewTemporalScorer(TemporalOptions{
				RecencyWeight:     cfg.RecencyWeight,
				TrendKeywords:     cfg.TrendKeywords,
				PeakFreshnessDays: cfg.PeakFreshnessDays,
				Now:               deps.Now,
			}),
			Weight:   cfg.TemporalWeight,
			Required: true,
		})
	}
	if cfg.AuthorWeight > 0 {
		members = append(members, Weighted{
			Strategy: NewAuthorScorer(cfg.KnownAuthors, cfg.InstitutionScores, cfg.CollaborationBonus),
			Weight:   cfg.AuthorWeight,
			Required: true,
		})
	}
	if len(members) == 0 {
		return nil, configErr("weights", "no strategy is enabled")
	}
	Renormalize(members)

	opts := []Option{WithLogger(deps.Logger)}
	if cfg.EnsembleTimeout > 0 {
		opts = append(opts, WithTimeout(cfg.EnsembleTimeout))
	}
	return NewComposite(members, opts...)
}

// Renormalize rescales member weights in place so they sum to 1. It is a
// no-op when they already do or when the sum is not positive.
func Renormalize(members []Weighted) {
	weights := make([]float64, len(members))
	for i, m := range members {
		weights[i] = m.Weight
	}
	sum := floats.Sum(weights)
	if sum <= 0 || math.Abs(sum-1) <= types.WeightTolerance/10 {
		return
	}
	for i := range members {
		members[i].Weight /= sum
	}
}
