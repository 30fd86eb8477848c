// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-curator/pkg/types"
)

func names(c *Composite) []string {
	var out []string
	for _, m := range c.Members() {
		out = append(out, m.Strategy.Name())
	}
	return out
}

func TestNew_DefaultEnsemble(t *testing.T) {
	c, err := New(types.DefaultScoringConfig(), Deps{Generator: &fakeGenerator{out: goodReply}, Now: clockAt(fixedNow)})
	require.NoError(t, err)

	assert.Equal(t, []string{NameLLM, NameKeyword, NameCitation, NameTemporal, NameAuthor}, names(c))
	for _, m := range c.Members() {
		assert.Equal(t, m.Strategy.Name() != NameLLM, m.Required, m.Strategy.Name())
	}
	w := c.Weights()
	assert.InDelta(t, 0.3, w[NameLLM], 1e-9)
	assert.InDelta(t, 0.2, w[NameKeyword], 1e-9)
	assert.InDelta(t, 0.15, w[NameAuthor], 1e-9)
}

func TestNew_LLMDisabledRenormalizes(t *testing.T) {
	cfg := types.DefaultScoringConfig()
	cfg.UseLLM = false

	c, err := New(cfg, Deps{})
	require.NoError(t, err)

	assert.Equal(t, []string{NameKeyword, NameCitation, NameTemporal, NameAuthor}, names(c))
	w := c.Weights()
	assert.InDelta(t, 0.2/0.7, w[NameKeyword], 1e-9)
	assert.InDelta(t, 0.15/0.7, w[NameTemporal], 1e-9)
	var sum float64
	for _, v := range w {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestNew_ZeroWeightDisablesStrategy(t *testing.T) {
	cfg := types.DefaultScoringConfig()
	cfg.UseLLM = false
	cfg.LLMWeight = 0
	cfg.CitationWeight = 0
	cfg.KeywordWeight = 0.5
	cfg.TemporalWeight = 0.25
	cfg.AuthorWeight = 0.25

	c, err := New(cfg, Deps{})
	require.NoError(t, err)
	assert.Equal(t, []string{NameKeyword, NameTemporal, NameAuthor}, names(c))
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.ScoringConfig)
	}{
		{"weights off", func(c *types.ScoringConfig) { c.KeywordWeight = 0.5 }},
		{"negative weight", func(c *types.ScoringConfig) { c.KeywordWeight = -0.1; c.AuthorWeight = 0.45 }},
		{"nothing enabled", func(c *types.ScoringConfig) {
			c.UseLLM = false
			c.LLMWeight, c.KeywordWeight, c.CitationWeight, c.TemporalWeight, c.AuthorWeight = 1, 0, 0, 0, 0
		}},
		{"bad recency weight", func(c *types.ScoringConfig) { c.RecencyWeight = 1.5 }},
		{"bad peak", func(c *types.ScoringConfig) { c.PeakFreshnessDays = 0 }},
		{"bad reputation", func(c *types.ScoringConfig) { c.KnownAuthors = map[string]float64{"X": 2} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := types.DefaultScoringConfig()
			tt.mutate(&cfg)
			_, err := New(cfg, Deps{})
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "got %v", err)
		})
	}
}

func TestNew_EndToEndWithFallback(t *testing.T) {
	cfg := types.DefaultScoringConfig()
	c, err := New(cfg, Deps{Generator: &fakeGenerator{err: errors.New("ollama offline")}, Now: clockAt(fixedNow)})
	require.NoError(t, err)

	res, err := c.Score(context.Background(), attentionPaper(), &Focus{Keywords: []string{"recurrence"}})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 1.0)
	assert.Equal(t, 5, res.Metadata["scorer_count"])
	assert.Contains(t, res.Components[NameLLM].Explanation, "Fallback scoring due to LLM error")
	assert.Contains(t, res.Explanation, "Composite score from 5 scorers. llm_scorer:")
}

func TestNew_BuildsOllamaClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"response": goodReply, "done": true})
	}))
	defer ts.Close()

	cfg := types.DefaultScoringConfig()
	cfg.OllamaHost = ts.URL
	c, err := New(cfg, Deps{HTTPClient: ts.Client(), Now: clockAt(fixedNow)})
	require.NoError(t, err)

	res, err := c.Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.9, res.Components[NameLLM].Score)
	assert.InDelta(t, 0.3, res.Components[NameLLM].Weight, 1e-9)
}

func TestRenormalize(t *testing.T) {
	members := []Weighted{
		{Strategy: &stubStrategy{name: "a"}, Weight: 0.5},
		{Strategy: &stubStrategy{name: "b"}, Weight: 0.3},
	}
	Renormalize(members)
	assert.InDelta(t, 0.625, members[0].Weight, 1e-9)
	assert.InDelta(t, 0.375, members[1].Weight, 1e-9)

	already := []Weighted{{Strategy: &stubStrategy{name: "a"}, Weight: 1}}
	Renormalize(already)
	assert.Equal(t, 1.0, already[0].Weight)
}
