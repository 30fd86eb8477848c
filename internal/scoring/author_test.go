// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// --- Reputation ---

func TestAuthor_SurnameMatch(t *testing.T) {
	s := NewAuthorScorer(map[string]float64{"Hinton": 0.9}, nil, DefaultCollaborationBonus)
	b := s.Analyze(types.Paper{Authors: []string{"Geoffrey Hinton"}})

	assert.GreaterOrEqual(t, b.Reputation, 0.72-1e-9)
	assert.InDelta(t, 0.72, b.Reputation, 1e-9)
	assert.Empty(t, b.KnownAuthors, "surname hits are not exact matches")
}

func TestAuthor_ReputationPaths(t *testing.T) {
	known := map[string]float64{
		"Geoffrey Hinton": 0.9,
		"Yann LeCun":      0.95,
		"Ann Lee":         1.0,
		"Bo Chen":         0.9,
		"Cy Park":         0.8,
	}
	s := NewAuthorScorer(known, nil, DefaultCollaborationBonus)

	tests := []struct {
		name    string
		authors []string
		want    float64
	}{
		{"no authors", nil, 0},
		{"exact", []string{"Geoffrey Hinton"}, 0.9},
		{"surname ignores case", []string{"Y. Lecun"}, 0.8 * 0.95},
		{"unknown", []string{"Zed Quux"}, 0.5},
		{"top three of four", []string{"Zed Quux", "Ann Lee", "Bo Chen", "Cy Park"}, 0.9},
		{"fewer than three", []string{"Ann Lee", "Zed Quux"}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Analyze(types.Paper{Authors: tt.authors}).Reputation, 1e-9)
		})
	}
}

func TestAuthor_SurnameTakesBestMatch(t *testing.T) {
	s := NewAuthorScorer(map[string]float64{"Alice Smith": 0.6, "Bob Smith": 0.9}, nil, 0)
	b := s.Analyze(types.Paper{Authors: []string{"Carol Smith"}})
	assert.InDelta(t, 0.8*0.9, b.Reputation, 1e-9)
}

// --- Team and diversity ---

func TestTeamScore(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 0}, {1, 0.6}, {2, 1}, {5, 1}, {6, 0.8}, {10, 0.8}, {11, 0.6}, {40, 0.6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TeamScore(tt.n), "team of %d", tt.n)
	}
}

func TestNamingPattern(t *testing.T) {
	tests := map[string]string{
		"Smith, John":   patternComma,
		"Plato":         patternSingle,
		"Agent 007 Lab": patternNumeric,
		"Xin Li":        patternAbbreviated,
		"Ayşe Çağ":      patternAbbreviated,
		"José Muñoz":    patternStandard,
		"Ada Lovelace":  patternStandard,
	}
	for name, want := range tests {
		assert.Equal(t, want, namingPattern(name), name)
	}
}

func TestAuthor_Diversity(t *testing.T) {
	s := NewAuthorScorer(nil, nil, 0.1)

	tests := []struct {
		name    string
		authors []string
		want    float64
	}{
		{"solo", []string{"Ada Lovelace"}, 0.5},
		{"uniform", []string{"Ada Lovelace", "Alan Turing"}, 1.0/3 + 0.1},
		{"two patterns", []string{"Smith, John", "Plato"}, 2.0/3 + 0.1},
		{"capped", []string{"Smith, John", "Plato", "Xin Li", "Ada Lovelace"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Analyze(types.Paper{Authors: tt.authors}).Diversity, 1e-9)
		})
	}
}

// --- Institutions ---

func TestAuthor_Institution(t *testing.T) {
	tests := []struct {
		name   string
		custom map[string]float64
		abs    string
		want   float64
	}{
		{"default token", nil, "Work done at Stanford.", 0.9},
		{"best of several", nil, "A Microsoft and DeepMind collaboration.", 0.9},
		{"custom overrides default", map[string]float64{"Stanford": 0.5}, "Work done at Stanford.", 0.5},
		{"custom addition", map[string]float64{"Mila": 0.95}, "Joint work with Mila.", 0.95},
		{"generic academic", nil, "A university of nowhere.", 0.7},
		{"nothing", nil, "We study graphs.", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAuthorScorer(nil, tt.custom, 0.1)
			assert.InDelta(t, tt.want, s.Analyze(types.Paper{Abstract: tt.abs}).Institution, 1e-9)
		})
	}
}

// --- Score ---

func TestAuthor_Score(t *testing.T) {
	s := NewAuthorScorer(map[string]float64{"Ann Lee": 1.0}, nil, 0.1)
	p := types.Paper{
		Abstract: "Work done at Stanford.",
		Authors:  []string{"Ann Lee", "Bo Chen", "Cy Park"},
	}
	res, err := s.Score(context.Background(), p, nil)
	require.NoError(t, err)

	b := s.Analyze(p)
	assert.InDelta(t, b.Total(), res.Score, 1e-9)
	assert.Equal(t, 3, res.Metadata["team_size"])
	assert.Equal(t, []string{"Ann Lee"}, res.Metadata["known_authors"])
	assert.Contains(t, res.Explanation, "optimal team size (3)")
	assert.Contains(t, res.Explanation, "prestigious institution(s)")
	for _, k := range []string{"author_reputation", "team_composition", "collaboration_diversity", "institutional_quality"} {
		assert.Contains(t, res.Components, k)
	}
}

func TestAuthor_ScoreNoAuthors(t *testing.T) {
	s := NewAuthorScorer(nil, nil, 0.1)
	res, err := s.Score(context.Background(), types.Paper{Abstract: "We study graphs."}, nil)
	require.NoError(t, err)

	// 0.4*0 + 0.2*0 + 0.2*0.5 + 0.2*0.5
	assert.InDelta(t, 0.2, res.Score, 1e-9)
	assert.Equal(t, "Standard author profile", res.Explanation)
	assert.Equal(t, []string{}, res.Metadata["known_authors"])
}
