// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-curator/internal/arxiv"
	"github.com/pdiddy/paper-curator/internal/curate"
	"github.com/pdiddy/paper-curator/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single paper with the configured ensemble",
	Long: `Score reads one paper from a YAML or JSON file (or "-" for stdin), or
fetches it from arXiv by ID, and prints the ensemble score with every
strategy's contribution. Nothing is stored.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("file", "", "paper file in YAML or JSON (\"-\" reads stdin)")
	scoreCmd.Flags().String("arxiv-id", "", "fetch the paper from arXiv instead of reading a file")
	scoreCmd.Flags().String("keywords", "", "focus keywords (comma-separated, default: scoring.keywords)")
	scoreCmd.Flags().Bool("no-llm", false, "disable the LLM strategy for this run")
	scoreCmd.Flags().Bool("json", false, "output the result as JSON")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	arxivID, _ := cmd.Flags().GetString("arxiv-id")
	if (file == "") == (arxivID == "") {
		return fmt.Errorf("provide exactly one of --file or --arxiv-id")
	}

	cfg, err := mustValidConfig()
	if err != nil {
		return err
	}
	if noLLM, _ := cmd.Flags().GetBool("no-llm"); noLLM {
		cfg.Scoring.UseLLM = false
	}

	ctx := commandContext(cmd)

	var paper types.Paper
	if file != "" {
		paper, err = readPaper(file, cmd.InOrStdin())
	} else {
		paper, err = arxiv.New(cfg.Arxiv, logger.WithPrefix("arxiv")).FetchByID(ctx, arxivID)
	}
	if err != nil {
		return err
	}

	ensemble, err := buildEnsemble(ctx, cfg)
	if err != nil {
		return err
	}

	keywords := cfg.Scoring.Keywords
	if kw, _ := cmd.Flags().GetString("keywords"); kw != "" {
		keywords = splitList(kw)
	}

	result, err := ensemble.Score(ctx, paper, curate.FocusFromKeywords(keywords))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Paper  string              `json:"arxiv_id"`
			Title  string              `json:"title"`
			Result types.ScoringResult `json:"result"`
		}{paper.ArxivID, paper.Title, result})
	}
	printResult(cmd.OutOrStdout(), paper, result)
	return nil
}

// readPaper decodes a paper from path, or from stdin when path is "-".
func readPaper(path string, stdin io.Reader) (types.Paper, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return types.Paper{}, fmt.Errorf("reading paper: %w", err)
	}

	var p types.Paper
	if err := yaml.Unmarshal(data, &p); err != nil {
		return types.Paper{}, fmt.Errorf("parsing paper %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return types.Paper{}, err
	}
	return p, nil
}

func printResult(w io.Writer, p types.Paper, r types.ScoringResult) {
	fmt.Fprintf(w, "%s  %s\n", p.ArxivID, p.Title)
	fmt.Fprintf(w, "score: %.3f", r.Score)
	if r.Degraded() {
		fmt.Fprint(w, " (degraded)")
	}
	fmt.Fprintln(w)

	names := make([]string, 0, len(r.Components))
	for name := range r.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := r.Components[name]
		fmt.Fprintf(w, "  %-16s %.3f  (weight %.2f)  %s\n", name, c.Score, c.Weight, c.Explanation)
	}
	if failed, ok := r.Metadata["failed"].(map[string]string); ok {
		names = names[:0]
		for name := range failed {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-16s failed: %s\n", name, failed[name])
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
