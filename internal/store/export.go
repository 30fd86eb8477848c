// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is the flattened form of a ranked paper written by Export.
type ExportEntry struct {
	ID          string             `json:"id" yaml:"id"`
	Title       string             `json:"title" yaml:"title"`
	Authors     []string           `json:"authors" yaml:"authors"`
	Published   string             `json:"published" yaml:"published"`
	PDFURL      string             `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	Score       float64            `json:"score" yaml:"score"`
	Explanation string             `json:"explanation" yaml:"explanation"`
	Components  map[string]float64 `json:"components,omitempty" yaml:"components,omitempty"`
	RunID       string             `json:"run_id" yaml:"run_id"`
	Summary     string             `json:"summary,omitempty" yaml:"summary,omitempty"`
	KeyPoints   []string           `json:"key_points,omitempty" yaml:"key_points,omitempty"`
}

// Export writes the top papers to w as "yaml" or "json".
func (s *Store) Export(ctx context.Context, w io.Writer, format string, limit int, minScore float64) error {
	ranked, err := s.TopPapers(ctx, limit, minScore)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	entries := ExportEntries(ranked)

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	case "yaml", "yml", "":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing YAML: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	return nil
}

// ExportEntries flattens ranked papers for export.
func ExportEntries(ranked []Ranked) []ExportEntry {
	entries := make([]ExportEntry, len(ranked))
	for i, r := range ranked {
		e := ExportEntry{
			ID:          r.Paper.ArxivID,
			Title:       r.Paper.Title,
			Authors:     r.Paper.Authors,
			Published:   r.Paper.PublishedDate.Format("2006-01-02"),
			PDFURL:      r.Paper.PDFURL,
			Score:       r.Score.Score,
			Explanation: r.Score.Explanation,
			RunID:       r.Score.RunID,
		}
		if len(r.Score.Components) > 0 {
			e.Components = make(map[string]float64, len(r.Score.Components))
			for name, c := range r.Score.Components {
				e.Components[name] = c.Score
			}
		}
		if r.Summary != nil {
			e.Summary = r.Summary.Text
			e.KeyPoints = r.Summary.KeyPoints
		}
		entries[i] = e
	}
	return entries
}
