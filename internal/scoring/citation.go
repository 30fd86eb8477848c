// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// DefaultMinCitations is the citation count that saturates citation density.
const DefaultMinCitations = 5

var (
	bracketCitation = regexp.MustCompile(`\[\d+(?:,\s*\d+)*\]`)
	authorYear      = regexp.MustCompile(`\([A-Z][a-z]+ et al\.,? \d{4}\)`)
)

// highImpactVenues are matched as plain substrings, so short tokens such as
// "acl" or "cell" also hit inside longer words.
var highImpactVenues = []string{
	"aaai", "acl", "cell", "cvpr", "eccv", "emnlp", "iccv", "iclr",
	"icml", "ijcai", "naacl", "nature", "neurips", "pnas", "science",
}

var publishedIndicators = []string{"journal", "conference", "proceedings", "transactions"}

// CitationBreakdown holds the typed sub-scores of a citation evaluation.
type CitationBreakdown struct {
	EstimatedCitations int
	CitationDensity    float64
	VenueImpact        float64
	ReferenceQuality   float64
	SelfCitationRatio  float64
}

// SelfCitationPenalty is the complement of the self-citation ratio.
func (b CitationBreakdown) SelfCitationPenalty() float64 {
	return math.Max(0, 1-b.SelfCitationRatio)
}

// Total combines the sub-scores.
func (b CitationBreakdown) Total() float64 {
	return 0.4*b.CitationDensity + 0.3*b.VenueImpact + 0.2*b.ReferenceQuality + 0.1*b.SelfCitationPenalty()
}

// CitationScorer estimates reference density and quality from the abstract
// alone. Its self-citation check matches bare surnames and is a rough
// signal: common surnames produce false positives.
type CitationScorer struct {
	minCitations int
}

// NewCitationScorer uses DefaultMinCitations when minCitations < 1.
func NewCitationScorer(minCitations int) *CitationScorer {
	if minCitations < 1 {
		minCitations = DefaultMinCitations
	}
	return &CitationScorer{minCitations: minCitations}
}

func (s *CitationScorer) Name() string { return NameCitation }

// Score implements Strategy.
func (s *CitationScorer) Score(_ context.Context, paper types.Paper, _ *Focus) (types.ScoringResult, error) {
	b := s.Analyze(paper)

	var parts []string
	if b.EstimatedCitations >= s.minCitations {
		parts = append(parts, fmt.Sprintf("Good citation density (%d references)", b.EstimatedCitations))
	} else {
		parts = append(parts, fmt.Sprintf("Low citation density (%d references)", b.EstimatedCitations))
	}
	if b.VenueImpact > 0.7 {
		parts = append(parts, "references high-impact venues")
	}
	if b.SelfCitationRatio > 0.3 {
		parts = append(parts, fmt.Sprintf("high self-citation ratio (%.1f%%)", b.SelfCitationRatio*100))
	}
	switch {
	case b.ReferenceQuality > 0.7:
		parts = append(parts, "high-quality references")
	case b.ReferenceQuality < 0.3:
		parts = append(parts, "many unpublished references")
	}

	return types.ScoringResult{
		Score:       clamp01(b.Total()),
		Explanation: explain(parts, "Standard citation pattern"),
		Components: floatComponents(map[string]float64{
			"citation_density":      b.CitationDensity,
			"venue_impact":          b.VenueImpact,
			"reference_quality":     b.ReferenceQuality,
			"self_citation_penalty": b.SelfCitationPenalty(),
		}),
		Metadata: map[string]any{
			"estimated_citations": b.EstimatedCitations,
			"self_citation_ratio": b.SelfCitationRatio,
		},
	}, nil
}

// Analyze computes the citation sub-scores.
func (s *CitationScorer) Analyze(paper types.Paper) CitationBreakdown {
	cites := EstimateCitations(paper.Abstract)
	return CitationBreakdown{
		EstimatedCitations: cites,
		CitationDensity:    math.Min(1, float64(cites)/float64(s.minCitations)),
		VenueImpact:        venueImpact(strings.ToLower(paper.Abstract + " " + paper.Title)),
		ReferenceQuality:   referenceQuality(strings.ToLower(paper.Abstract)),
		SelfCitationRatio:  selfCitationRatio(strings.ToLower(paper.Abstract), paper.Authors, cites),
	}
}

// EstimateCitations counts bracketed numeric groups and "(Name et al., YYYY)"
// references, or the literal "et al." occurrences when those are more.
func EstimateCitations(abstract string) int {
	patterns := len(bracketCitation.FindAllStringIndex(abstract, -1)) +
		len(authorYear.FindAllStringIndex(abstract, -1))
	return max(patterns, strings.Count(abstract, "et al."))
}

func venueImpact(text string) float64 {
	var n int
	for _, v := range highImpactVenues {
		if strings.Contains(text, v) {
			n++
		}
	}
	switch n {
	case 0:
		return 0.3
	case 1:
		return 0.7
	default:
		return 1.0
	}
}

func selfCitationRatio(text string, authors []string, cites int) float64 {
	if len(authors) == 0 || cites == 0 {
		return 0
	}
	var mentions int
	for _, a := range authors {
		fields := strings.Fields(a)
		if len(fields) == 0 {
			continue
		}
		mentions += strings.Count(text, strings.ToLower(fields[len(fields)-1]))
	}
	return math.Min(1, float64(mentions)/float64(max(1, cites)))
}

func referenceQuality(text string) float64 {
	arxiv := strings.Count(text, "arxiv")
	var published int
	for _, ind := range publishedIndicators {
		published += strings.Count(text, ind)
	}
	if published+arxiv == 0 {
		return 0.5
	}
	return float64(published) / float64(published+arxiv)
}
