// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// DefaultCollaborationBonus is added to the naming-pattern diversity score.
const DefaultCollaborationBonus = 0.1

// defaultInstitutions is merged under any configured institution scores.
var defaultInstitutions = map[string]float64{
	"mit": 0.9, "stanford": 0.9, "berkeley": 0.9, "cmu": 0.9,
	"oxford": 0.9, "cambridge": 0.9, "eth": 0.9, "epfl": 0.85,
	"google": 0.85, "deepmind": 0.9, "openai": 0.9, "microsoft": 0.8,
	"facebook": 0.8, "meta": 0.8, "amazon": 0.8, "apple": 0.8,
}

var academicTerms = []string{"university", "institute", "laboratory", "lab"}

const (
	unknownAuthorScore  = 0.5
	surnameMatchFactor  = 0.8
	reputationTopAuthor = 3
)

// Naming-pattern buckets used by collaboration diversity.
const (
	patternComma       = "comma-separated"
	patternSingle      = "single-token"
	patternNumeric     = "numeric"
	patternAbbreviated = "abbreviated"
	patternStandard    = "standard"
)

// AuthorBreakdown holds the typed sub-scores of an author evaluation.
type AuthorBreakdown struct {
	Reputation   float64
	Team         float64
	Diversity    float64
	Institution  float64
	TeamSize     int
	KnownAuthors []string
}

// Total combines the sub-scores.
func (b AuthorBreakdown) Total() float64 {
	return 0.4*b.Reputation + 0.2*b.Team + 0.2*b.Diversity + 0.2*b.Institution
}

// AuthorScorer rates papers by author reputation, team size, naming
// diversity and institutions named in the abstract.
type AuthorScorer struct {
	known        map[string]float64
	knownLower   []weightedTerm
	institutions []weightedTerm
	bonus        float64
}

// NewAuthorScorer merges institution scores over the built-in defaults.
// Author names are matched in full first, then by surname; both ignore case.
func NewAuthorScorer(knownAuthors, institutionScores map[string]float64, collaborationBonus float64) *AuthorScorer {
	insts := make(map[string]float64, len(defaultInstitutions)+len(institutionScores))
	for k, v := range defaultInstitutions {
		insts[k] = v
	}
	for k, v := range institutionScores {
		insts[strings.ToLower(k)] = v
	}
	known := make(map[string]float64, len(knownAuthors))
	for k, v := range knownAuthors {
		known[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &AuthorScorer{
		known:        known,
		knownLower:   sortedTerms(knownAuthors),
		institutions: sortedTerms(insts),
		bonus:        collaborationBonus,
	}
}

func (s *AuthorScorer) Name() string { return NameAuthor }

// Score implements Strategy.
func (s *AuthorScorer) Score(_ context.Context, paper types.Paper, _ *Focus) (types.ScoringResult, error) {
	b := s.Analyze(paper)

	var parts []string
	switch {
	case b.Reputation > 0.8:
		parts = append(parts, "High-reputation authors")
	case b.Reputation > 0.6:
		parts = append(parts, "Recognized authors")
	}
	switch {
	case b.Team >= 1.0:
		parts = append(parts, fmt.Sprintf("optimal team size (%d)", b.TeamSize))
	case b.TeamSize == 1:
		parts = append(parts, "single author")
	case b.TeamSize > 10:
		parts = append(parts, fmt.Sprintf("very large team (%d)", b.TeamSize))
	}
	if b.Diversity > 0.8 {
		parts = append(parts, "diverse collaboration")
	}
	if b.Institution > 0.8 {
		parts = append(parts, "prestigious institution(s)")
	}

	known := b.KnownAuthors
	if known == nil {
		known = []string{}
	}
	return types.ScoringResult{
		Score:       clamp01(b.Total()),
		Explanation: explain(parts, "Standard author profile"),
		Components: floatComponents(map[string]float64{
			"author_reputation":       b.Reputation,
			"team_composition":        b.Team,
			"collaboration_diversity": b.Diversity,
			"institutional_quality":   b.Institution,
		}),
		Metadata: map[string]any{
			"team_size":     b.TeamSize,
			"known_authors": known,
		},
	}, nil
}

// Analyze computes the author sub-scores.
func (s *AuthorScorer) Analyze(paper types.Paper) AuthorBreakdown {
	b := AuthorBreakdown{
		Reputation:  s.reputation(paper.Authors),
		Team:        teamScore(len(paper.Authors)),
		Diversity:   s.diversity(paper.Authors),
		Institution: s.institution(strings.ToLower(paper.Abstract)),
		TeamSize:    len(paper.Authors),
	}
	for _, a := range paper.Authors {
		if _, ok := s.known[strings.ToLower(strings.TrimSpace(a))]; ok {
			b.KnownAuthors = append(b.KnownAuthors, a)
		}
	}
	return b
}

// reputation averages the best three per-author scores.
func (s *AuthorScorer) reputation(authors []string) float64 {
	if len(authors) == 0 {
		return 0
	}
	scores := make([]float64, 0, len(authors))
	for _, a := range authors {
		scores = append(scores, s.authorScore(a))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	if len(scores) > reputationTopAuthor {
		scores = scores[:reputationTopAuthor]
	}
	return stat.Mean(scores, nil)
}

// authorScore resolves one author: full name, then the best surname hit
// at a discount, then the unknown default.
func (s *AuthorScorer) authorScore(author string) float64 {
	if rep, ok := s.known[strings.ToLower(strings.TrimSpace(author))]; ok {
		return rep
	}
	fields := strings.Fields(author)
	if len(fields) == 0 {
		return unknownAuthorScore
	}
	surname := strings.ToLower(fields[len(fields)-1])
	best, found := 0.0, false
	for _, k := range s.knownLower {
		if strings.Contains(k.term, surname) {
			best = math.Max(best, k.weight)
			found = true
		}
	}
	if !found {
		return unknownAuthorScore
	}
	return surnameMatchFactor * best
}

// TeamScore reports the fixed team-size curve: 0 authors score 0, a single
// author 0.6, two to five 1.0, six to ten 0.8 and larger teams 0.6.
func TeamScore(n int) float64 { return teamScore(n) }

func teamScore(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 0.6
	case n <= 5:
		return 1.0
	case n <= 10:
		return 0.8
	default:
		return 0.6
	}
}

func (s *AuthorScorer) diversity(authors []string) float64 {
	if len(authors) < 2 {
		return 0.5
	}
	patterns := make(map[string]struct{})
	for _, a := range authors {
		patterns[namingPattern(a)] = struct{}{}
	}
	return math.Min(1, float64(len(patterns))/3+s.bonus)
}

func namingPattern(author string) string {
	fields := strings.Fields(author)
	switch {
	case strings.Contains(author, ","):
		return patternComma
	case len(fields) <= 1:
		return patternSingle
	case strings.IndexFunc(author, unicode.IsDigit) >= 0:
		return patternNumeric
	case utf8.RuneCountInString(fields[len(fields)-1]) <= 3:
		return patternAbbreviated
	default:
		return patternStandard
	}
}

func (s *AuthorScorer) institution(abstract string) float64 {
	best, found := 0.0, false
	for _, inst := range s.institutions {
		if strings.Contains(abstract, inst.term) {
			best = math.Max(best, inst.weight)
			found = true
		}
	}
	if found {
		return best
	}
	for _, t := range academicTerms {
		if strings.Contains(abstract, t) {
			return 0.7
		}
	}
	return 0.5
}
