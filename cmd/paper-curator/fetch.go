// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-curator/internal/arxiv"
	"github.com/pdiddy/paper-curator/internal/curate"
	"github.com/pdiddy/paper-curator/internal/ollama"
	"github.com/pdiddy/paper-curator/internal/scoring"
	"github.com/pdiddy/paper-curator/internal/store"
	"github.com/pdiddy/paper-curator/internal/summarize"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch new arXiv papers, score them and summarize the relevant ones",
	Long: `Fetch queries arXiv for recent papers in the configured categories,
stores the ones not seen before, scores each with the ensemble and
summarizes those scoring at least curation.min_relevance. Summaries need a
HuggingFace token (secret file huggingface-token or
PAPER_CURATOR_HUGGINGFACE_TOKEN); without one they are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("days", 0, "only keep papers from the last N days (default: curation.days_back)")
	fetchCmd.Flags().Int("max-results", 0, "maximum entries requested from arXiv (default: arxiv.max_results)")
	fetchCmd.Flags().Float64("min-relevance", -1, "score needed for summarization (default: curation.min_relevance)")
	fetchCmd.Flags().Bool("no-summary", false, "skip summarization")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := mustValidConfig()
	if err != nil {
		return err
	}
	if days, _ := cmd.Flags().GetInt("days"); days > 0 {
		cfg.Curation.DaysBack = days
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Arxiv.MaxResults = n
	}
	if m, _ := cmd.Flags().GetFloat64("min-relevance"); m >= 0 {
		cfg.Curation.MinRelevance = m
	}

	ctx := commandContext(cmd)

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ensemble, err := buildEnsemble(ctx, cfg)
	if err != nil {
		return err
	}

	p := &curate.Pipeline{
		Source: arxiv.New(cfg.Arxiv, logger.WithPrefix("arxiv")),
		Scorer: ensemble,
		Store:  st,
		Focus:  curate.FocusFromKeywords(cfg.Scoring.Keywords),
		Logger: logger.WithPrefix("curate"),
		Out:    os.Stdout,
	}
	noSummary, _ := cmd.Flags().GetBool("no-summary")
	if hf := summarize.New(cfg.Summary); hf.Enabled() && !noSummary {
		p.Summarizer = hf
	} else if !noSummary {
		logger.Info("no summarization token configured; skipping summaries")
	}

	summary, err := p.Run(ctx, cfg.Curation)
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d paper(s) failed curation", summary.Failed)
	}
	return nil
}

// buildEnsemble constructs the scoring ensemble and warns when the LLM
// strategy is enabled but its service is unreachable.
func buildEnsemble(ctx context.Context, cfg appConfig) (*scoring.Composite, error) {
	if cfg.Scoring.UseLLM && cfg.Scoring.LLMWeight > 0 {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		client := ollama.New(cfg.Scoring.OllamaHost, cfg.Scoring.OllamaModel, nil)
		if err := client.Ping(pingCtx); err != nil {
			logger.Warn("LLM service unreachable; llm_scorer will use its fallback", "err", err)
		}
	}
	return scoring.New(cfg.Scoring, scoring.Deps{Logger: logger.WithPrefix("scoring")})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
