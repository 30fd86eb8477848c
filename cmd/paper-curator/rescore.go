// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-curator/internal/curate"
	"github.com/pdiddy/paper-curator/internal/store"
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Score stored papers again with the current configuration",
	Long: `Rescore runs the ensemble over papers already in the database and
records the results under a new run ID. Earlier scores are kept; top and
stats use the latest score of each paper.`,
	RunE: runRescore,
}

func init() {
	rescoreCmd.Flags().Int("days", 0, "only rescore papers published in the last N days (0 = all)")
	rescoreCmd.Flags().Int("workers", 4, "concurrent scoring calls")

	rootCmd.AddCommand(rescoreCmd)
}

func runRescore(cmd *cobra.Command, args []string) error {
	cfg, err := mustValidConfig()
	if err != nil {
		return err
	}
	days, _ := cmd.Flags().GetInt("days")
	workers, _ := cmd.Flags().GetInt("workers")

	var since time.Time
	if days > 0 {
		since = time.Now().AddDate(0, 0, -days)
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

	r := &curate.Rescorer{
		Scorer:  ensemble,
		Store:   st,
		Focus:   curate.FocusFromKeywords(cfg.Scoring.Keywords),
		Logger:  logger.WithPrefix("rescore"),
		Out:     os.Stdout,
		Workers: workers,
	}
	summary, err := r.Run(ctx, since)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed rescoring", summary.Failed)
	}
	return nil
}
