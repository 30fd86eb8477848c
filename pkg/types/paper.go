// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-curator pipeline.
// Implements: paper source boundary (Paper), scoring engine outputs
// (ScoringResult, Component) and the flat configuration records consumed by
// the scoring factory and the curation pipeline.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Paper describes one document as delivered by the paper source. The
// scoring engine treats it as read-only.
type Paper struct {
	// ArxivID is the arXiv identifier without version suffix (e.g. "2301.07041").
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Categories lists taxonomy codes in source order (e.g. "cs.AI").
	Categories []string `json:"categories" yaml:"categories"`

	// PublishedDate is the submission timestamp of the first version.
	PublishedDate time.Time `json:"published_date" yaml:"published_date"`

	// PDFURL links to the PDF rendition.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// Metadata carries source-specific values the engine does not interpret.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Validate reports the first missing required field. The paper source calls
// it before handing papers to the pipeline; scorers never do.
func (p Paper) Validate() error {
	var missing []string
	if strings.TrimSpace(p.ArxivID) == "" {
		missing = append(missing, "arxiv_id")
	}
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Abstract) == "" {
		missing = append(missing, "abstract")
	}
	if p.PublishedDate.IsZero() {
		missing = append(missing, "published_date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("paper %q: missing %s", p.ArxivID, strings.Join(missing, ", "))
	}
	return nil
}

// Summary is a generated abstract summary stored alongside a paper.
type Summary struct {
	PaperID   string    `json:"paper_id" yaml:"paper_id"`
	Text      string    `json:"text" yaml:"text"`
	KeyPoints []string  `json:"key_points,omitempty" yaml:"key_points,omitempty"`
	Model     string    `json:"model" yaml:"model"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
