// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package curate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-curator/internal/scoring"
	"github.com/pdiddy/paper-curator/pkg/types"
)

// defaultRescoreWorkers bounds concurrent ensemble calls during rescoring.
const defaultRescoreWorkers = 4

// RescoreSummary holds the counts from one rescoring run.
type RescoreSummary struct {
	RunID    string
	Rescored int
	Degraded int
	Failed   int
}

// Total returns the number of papers processed.
func (r RescoreSummary) Total() int {
	return r.Rescored + r.Failed
}

// Rescorer scores stored papers again under a fresh run ID, e.g. after the
// scoring configuration changed.
type Rescorer struct {
	Scorer scoring.Strategy
	Store  Store
	Focus  *scoring.Focus
	Logger *log.Logger
	Out    io.Writer

	// Workers bounds concurrent scoring calls; zero selects a default.
	Workers int

	newRunID func() string
}

// Run rescores every paper published at or after since (zero means all).
// Individual failures are counted; cancelling ctx stops the run.
func (r *Rescorer) Run(ctx context.Context, since time.Time) (RescoreSummary, error) {
	if r.Scorer == nil || r.Store == nil {
		return RescoreSummary{}, fmt.Errorf("rescorer requires a scorer and a store")
	}
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	out := r.Out
	if out == nil {
		out = io.Discard
	}
	newRunID := r.newRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}
	workers := r.Workers
	if workers <= 0 {
		workers = defaultRescoreWorkers
	}

	sum := RescoreSummary{RunID: newRunID()}
	papers, err := r.Store.Papers(ctx, since)
	if err != nil {
		return sum, fmt.Errorf("loading papers: %w", err)
	}
	logger.Info("rescoring stored papers", "run", sum.RunID, "papers", len(papers))

	type outcome struct {
		result types.ScoringResult
		err    error
	}
	outcomes := make([]outcome, len(papers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, paper := range papers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.Scorer.Score(gctx, paper, r.Focus)
			if err == nil {
				err = r.Store.SaveScore(gctx, sum.RunID, paper.ArxivID, res)
			}
			outcomes[i] = outcome{result: res, err: err}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	for i, o := range outcomes {
		id := papers[i].ArxivID
		if o.err != nil {
			fmt.Fprintf(out, "failed:  %s (%v)\n", id, o.err)
			logger.Warn("rescoring failed", "paper", id, "err", o.err)
			sum.Failed++
			continue
		}
		sum.Rescored++
		if o.result.Degraded() {
			sum.Degraded++
		}
		fmt.Fprintf(out, "scored:  %s %.3f\n", id, o.result.Score)
	}

	fmt.Fprintf(out, "\nRescore summary: %d rescored, %d degraded, %d failed (total: %d)\n",
		sum.Rescored, sum.Degraded, sum.Failed, sum.Total())
	return sum, nil
}
