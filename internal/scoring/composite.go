// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// Weighted registers a strategy in an ensemble. A Required strategy's
// failure fails the whole call; an optional one is dropped and the
// remaining weights are renormalized.
type Weighted struct {
	Strategy Strategy
	Weight   float64
	Required bool
}

// Option configures a Composite.
type Option func(*Composite)

// WithTimeout bounds each Score call. When it expires, strategies still
// running see their context cancelled: optional ones are dropped and a
// required one fails the call.
func WithTimeout(d time.Duration) Option {
	return func(c *Composite) { c.timeout = d }
}

// WithLogger sets the logger that receives optional-strategy failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Composite) {
		if l != nil {
			c.logger = l
		}
	}
}

// Composite runs its strategies concurrently and combines their scores
// by weight. It is safe for concurrent use.
type Composite struct {
	members []Weighted
	timeout time.Duration
	logger  *log.Logger
}

// NewComposite validates the registrations: at least one strategy, unique
// names, positive weights summing to 1 within types.WeightTolerance.
func NewComposite(members []Weighted, opts ...Option) (*Composite, error) {
	if len(members) == 0 {
		return nil, configErr("strategies", "at least one strategy is required")
	}
	seen := make(map[string]bool, len(members))
	weights := make([]float64, 0, len(members))
	for i, m := range members {
		if m.Strategy == nil {
			return nil, configErr("strategies", "strategy %d is nil", i)
		}
		name := m.Strategy.Name()
		if seen[name] {
			return nil, configErr("strategies", "duplicate strategy name %q", name)
		}
		seen[name] = true
		if !(m.Weight > 0) || math.IsInf(m.Weight, 0) {
			return nil, configErr("weights", "weight for %s must be positive, got %v", name, m.Weight)
		}
		weights = append(weights, m.Weight)
	}
	if sum := floats.Sum(weights); math.Abs(sum-1) > types.WeightTolerance {
		return nil, configErr("weights", "must sum to 1.0, got %.4f", sum)
	}

	c := &Composite{
		members: append([]Weighted(nil), members...),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Composite) Name() string { return NameComposite }

// Weights returns the registered weight per strategy name.
func (c *Composite) Weights() map[string]float64 {
	out := make(map[string]float64, len(c.members))
	for _, m := range c.members {
		out[m.Strategy.Name()] = m.Weight
	}
	return out
}

// Members returns the registrations in order.
func (c *Composite) Members() []Weighted {
	return append([]Weighted(nil), c.members...)
}

// outcome is one strategy's share of an ensemble call.
type outcome struct {
	result types.ScoringResult
	err    error
	ok     bool
}

// Score implements Strategy. All strategies run to completion (or to
// cancellation) before aggregation; there is no early return on the first
// results.
func (c *Composite) Score(ctx context.Context, paper types.Paper, focus *Focus) (types.ScoringResult, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	outcomes := make([]outcome, len(c.members))
	g, gctx := errgroup.WithContext(runCtx)
	for i, m := range c.members {
		g.Go(func() error {
			name := m.Strategy.Name()
			res, err := m.Strategy.Score(gctx, paper, focus)
			if err == nil {
				err = checkResult(res)
			}
			if err != nil {
				serr := asStrategyError(name, err)
				if m.Required {
					return serr
				}
				outcomes[i] = outcome{err: serr}
				return nil
			}
			outcomes[i] = outcome{result: res, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.ScoringResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.ScoringResult{}, fmt.Errorf("scoring %s: %w", paper.ArxivID, err)
	}
	return c.aggregate(paper, outcomes), nil
}

// checkResult rejects results outside the scoring contract.
func checkResult(r types.ScoringResult) error {
	if math.IsNaN(r.Score) || r.Score < 0 || r.Score > 1 {
		return fmt.Errorf("score %v outside [0,1]", r.Score)
	}
	if r.Explanation == "" {
		return errors.New("empty explanation")
	}
	return nil
}

func (c *Composite) aggregate(paper types.Paper, outcomes []outcome) types.ScoringResult {
	failed := make(map[string]string)
	var survivors []int
	var weights []float64
	for i, o := range outcomes {
		name := c.members[i].Strategy.Name()
		if !o.ok {
			c.logger.Warn("scorer failed, excluding from ensemble", "scorer", name, "paper", paper.ArxivID, "err", o.err)
			failed[name] = o.err.Error()
			continue
		}
		survivors = append(survivors, i)
		weights = append(weights, c.members[i].Weight)
	}

	if len(survivors) == 0 {
		return types.ScoringResult{
			Score:       0,
			Explanation: "No scorers produced valid results",
			Components:  map[string]types.Component{},
			Metadata: map[string]any{
				"error":  "all_scorers_failed",
				"failed": failed,
			},
		}
	}

	total := floats.Sum(weights)
	floats.Scale(1/total, weights)

	components := make(map[string]types.Component, len(survivors))
	parts := make([]string, 0, len(survivors))
	var score float64
	for k, i := range survivors {
		name := c.members[i].Strategy.Name()
		res := outcomes[i].result
		score += res.Score * weights[k]
		components[name] = types.Component{
			Score:       res.Score,
			Weight:      weights[k],
			Explanation: res.Explanation,
		}
		parts = append(parts, name+": "+res.Explanation)
	}

	meta := map[string]any{
		"scorer_count": len(survivors),
		"total_weight": total,
	}
	if len(failed) > 0 {
		meta["failed"] = failed
	}
	return types.ScoringResult{
		Score:       clamp01(score),
		Explanation: fmt.Sprintf("Composite score from %d scorers. %s", len(survivors), strings.Join(parts, "; ")),
		Components:  components,
		Metadata:    meta,
	}
}
