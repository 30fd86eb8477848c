// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-curator/internal/store"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "List the highest-scoring stored papers",
	Long: `Top lists stored papers ranked by their latest score, with summaries
where available. Use --format yaml or --json to export the list.`,
	RunE: runTop,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show counts and the distribution of latest scores",
	RunE:  runStats,
}

func init() {
	topCmd.Flags().Int("limit", 10, "maximum number of papers (0 = all)")
	topCmd.Flags().Float64("min-score", 0, "minimum latest score")
	topCmd.Flags().Bool("json", false, "output as JSON")
	topCmd.Flags().String("format", "", "export format: yaml or json")

	statsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(topCmd, statsCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	format, _ := cmd.Flags().GetString("format")
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		format = "json"
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := commandContext(cmd)
	if format != "" {
		return st.Export(ctx, cmd.OutOrStdout(), format, limit, minScore)
	}

	ranked, err := st.TopPapers(ctx, limit, minScore)
	if err != nil {
		return err
	}
	printRanked(cmd.OutOrStdout(), ranked)
	return nil
}

func printRanked(w io.Writer, ranked []store.Ranked) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No scored papers.")
		return
	}
	for i, r := range ranked {
		fmt.Fprintf(w, "%2d. %.3f  %s  %s (%s)\n", i+1, r.Score.Score, r.Paper.ArxivID,
			r.Paper.Title, r.Paper.PublishedDate.Format("2006-01-02"))
		if r.Summary != nil {
			fmt.Fprintf(w, "    %s\n", r.Summary.Text)
		}
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(commandContext(cmd))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "papers: %d, scored: %d, summaries: %d, degraded: %d\n",
		stats.Papers, stats.Scored, stats.Summaries, stats.Degraded)
	if stats.Scored > 0 {
		fmt.Fprintf(w, "latest scores: mean %.3f, std dev %.3f, min %.3f, max %.3f\n",
			stats.Mean, stats.StdDev, stats.Min, stats.Max)
	}
	return nil
}
