// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package curate runs the fetch, store, score and summarize pipeline and
// rescoring of stored papers.
package curate

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pdiddy/paper-curator/internal/scoring"
	"github.com/pdiddy/paper-curator/internal/summarize"
	"github.com/pdiddy/paper-curator/pkg/types"
)

// Source delivers validated papers published within the last daysBack days.
type Source interface {
	Fetch(ctx context.Context, daysBack int) ([]types.Paper, error)
}

// Store is the persistence the pipeline needs.
type Store interface {
	PaperScored(ctx context.Context, id string) (bool, error)
	SavePaper(ctx context.Context, p types.Paper) error
	Papers(ctx context.Context, since time.Time) ([]types.Paper, error)
	SaveScore(ctx context.Context, runID, paperID string, result types.ScoringResult) error
	SaveSummary(ctx context.Context, sum types.Summary) error
}

// RunSummary holds the counts from one pipeline run.
type RunSummary struct {
	RunID          string
	Fetched        int
	Skipped        int
	Scored         int
	Relevant       int
	Summarized     int
	SummaryFailed  int
	Failed         int
	DegradedScores int
}

// Total returns the number of fetched papers accounted for.
func (r RunSummary) Total() int {
	return r.Scored + r.Skipped + r.Failed
}

// HasFailures reports whether any paper failed to save or score.
func (r RunSummary) HasFailures() bool {
	return r.Failed > 0
}

// FocusFromKeywords builds the focus passed to every strategy: the
// configured keywords double as the research interests.
func FocusFromKeywords(keywords []string) *scoring.Focus {
	if len(keywords) == 0 {
		return nil
	}
	return &scoring.Focus{
		Keywords:          append([]string(nil), keywords...),
		ResearchInterests: append([]string(nil), keywords...),
	}
}

// Pipeline fetches new papers, stores them, scores them and summarizes the
// relevant ones.
type Pipeline struct {
	Source Source
	Scorer scoring.Strategy
	Store  Store

	// Summarizer is optional; nil skips summarization.
	Summarizer summarize.Summarizer

	Focus  *scoring.Focus
	Logger *log.Logger

	// Out receives one progress line per paper and the run summary.
	Out io.Writer

	newRunID func() string
	sleep    func(ctx context.Context, d time.Duration) error
}

func (p *Pipeline) defaults() {
	if p.Logger == nil {
		p.Logger = log.New(io.Discard)
	}
	if p.Out == nil {
		p.Out = io.Discard
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
}

// Run executes one curation pass. A fetch failure aborts the run; failures
// on individual papers are counted and the batch continues. Cancelling ctx
// stops the run and returns the counts so far with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, cfg types.CurationConfig) (RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if p.Source == nil || p.Scorer == nil || p.Store == nil {
		return RunSummary{}, fmt.Errorf("pipeline requires a source, a scorer and a store")
	}
	p.defaults()

	sum := RunSummary{RunID: p.newRunID()}
	papers, err := p.Source.Fetch(ctx, cfg.DaysBack)
	if err != nil {
		return sum, fmt.Errorf("fetching papers: %w", err)
	}
	sum.Fetched = len(papers)
	p.Logger.Info("starting curation run", "run", sum.RunID, "papers", len(papers))

	summarized := 0
	for _, paper := range papers {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		// A paper stored by a run whose scoring failed is picked up again.
		scored, err := p.Store.PaperScored(ctx, paper.ArxivID)
		if err != nil {
			p.fail(&sum, paper.ArxivID, err)
			continue
		}
		if scored {
			fmt.Fprintf(p.Out, "skipped: %s (already scored)\n", paper.ArxivID)
			sum.Skipped++
			continue
		}
		if err := p.Store.SavePaper(ctx, paper); err != nil {
			p.fail(&sum, paper.ArxivID, err)
			continue
		}

		result, err := p.scoreAndSave(ctx, sum.RunID, paper)
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			p.fail(&sum, paper.ArxivID, err)
			continue
		}
		sum.Scored++
		if result.Degraded() {
			sum.DegradedScores++
		}
		fmt.Fprintf(p.Out, "scored:  %s %.3f\n", paper.ArxivID, result.Score)

		if result.Score < cfg.MinRelevance {
			continue
		}
		sum.Relevant++
		if p.Summarizer == nil {
			continue
		}

		if summarized > 0 && cfg.RequestDelay > 0 {
			if err := p.sleep(ctx, cfg.RequestDelay); err != nil {
				return sum, err
			}
		}
		summarized++
		if err := p.summarize(ctx, paper); err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			p.Logger.Warn("summarization failed", "paper", paper.ArxivID, "err", err)
			fmt.Fprintf(p.Out, "  warning: summary failed: %v\n", err)
			sum.SummaryFailed++
			continue
		}
		sum.Summarized++
	}

	fmt.Fprintf(p.Out, "\nRun summary: %d scored, %d relevant, %d summarized, %d skipped, %d failed (total: %d)\n",
		sum.Scored, sum.Relevant, sum.Summarized, sum.Skipped, sum.Failed, sum.Total())
	p.Logger.Info("curation run finished", "run", sum.RunID,
		"scored", sum.Scored, "relevant", sum.Relevant, "failed", sum.Failed)
	return sum, nil
}

func (p *Pipeline) scoreAndSave(ctx context.Context, runID string, paper types.Paper) (types.ScoringResult, error) {
	result, err := p.Scorer.Score(ctx, paper, p.Focus)
	if err != nil {
		return result, fmt.Errorf("scoring: %w", err)
	}
	if err := p.Store.SaveScore(ctx, runID, paper.ArxivID, result); err != nil {
		return result, err
	}
	return result, nil
}

func (p *Pipeline) summarize(ctx context.Context, paper types.Paper) error {
	s, err := p.Summarizer.Summarize(ctx, paper)
	if err != nil {
		return err
	}
	return p.Store.SaveSummary(ctx, s)
}

func (p *Pipeline) fail(sum *RunSummary, id string, err error) {
	fmt.Fprintf(p.Out, "failed:  %s (%v)\n", id, err)
	p.Logger.Warn("paper failed", "paper", id, "err", err)
	sum.Failed++
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
