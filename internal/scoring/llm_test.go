// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-curator/pkg/types"
)

const goodReply = `{"relevance_score": 0.9, "novelty_score": 0.8, "technical_quality": 0.7, "potential_impact": 0.6, "explanation": "Solid contribution"}`

// --- Success path ---

func TestLLM_ParsesModelReply(t *testing.T) {
	gen := &fakeGenerator{out: goodReply}
	s := NewLLMScorer(gen, LLMOptions{Model: "gemma3:4b"})

	res, err := s.Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0.9, res.Score)
	assert.Equal(t, "Solid contribution", res.Explanation)
	nov, _ := res.ComponentScore("novelty")
	tq, _ := res.ComponentScore("technical_quality")
	pi, _ := res.ComponentScore("potential_impact")
	assert.Equal(t, []float64{0.8, 0.7, 0.6}, []float64{nov, tq, pi})
	assert.Equal(t, "gemma3:4b", res.Metadata["model"])
	assert.False(t, res.Degraded())
}

func TestLLM_MissingFieldsDefault(t *testing.T) {
	s := NewLLMScorer(&fakeGenerator{out: `{"novelty_score": 0.2}`}, LLMOptions{})

	res, err := s.Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0.5, res.Score)
	assert.Equal(t, "No explanation provided", res.Explanation)
	nov, _ := res.ComponentScore("novelty")
	assert.Equal(t, 0.2, nov)
	tq, _ := res.ComponentScore("technical_quality")
	assert.Equal(t, 0.5, tq)
}

func TestLLM_ClampsOutOfRange(t *testing.T) {
	s := NewLLMScorer(&fakeGenerator{out: `{"relevance_score": 1.7, "novelty_score": -2}`}, LLMOptions{})

	res, err := s.Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Score)
	nov, _ := res.ComponentScore("novelty")
	assert.Equal(t, 0.0, nov)
}

func TestParseAssessment_IgnoresFence(t *testing.T) {
	a, err := ParseAssessment("```json\n" + goodReply + "\n```")
	require.NoError(t, err)
	assert.Equal(t, 0.9, a.Relevance)
	assert.Equal(t, "Solid contribution", a.Explanation)

	_, err = ParseAssessment("the paper is great")
	assert.Error(t, err)
}

// --- Fallback ---

func TestLLM_FallbackOnServiceError(t *testing.T) {
	p := attentionPaper()
	p.Abstract = strings.Repeat("a", 500)
	p.Categories = []string{"cs.CL", "cs.LG", "cs.AI"}

	s := NewLLMScorer(&fakeGenerator{err: errors.New("connection refused")}, LLMOptions{Model: "m"})
	res, err := s.Score(context.Background(), p, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, res.Score, 1e-9)
	assert.Equal(t, "Fallback scoring due to LLM error: connection refused", res.Explanation)
	assert.Equal(t, true, res.Metadata["fallback"])
	assert.Equal(t, "connection refused", res.Metadata["error"])
	al, _ := res.ComponentScore("abstract_length")
	cat, _ := res.ComponentScore("categories")
	assert.Equal(t, 0.5, al)
	assert.Equal(t, 1.0, cat)
	assert.True(t, res.Degraded())
}

func TestLLM_FallbackOnMalformedReply(t *testing.T) {
	s := NewLLMScorer(&fakeGenerator{out: "not json at all"}, LLMOptions{})

	res, err := s.Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, res.Metadata["fallback"])
	assert.Contains(t, res.Explanation, "parsing model response")
}

func TestLLM_FallbackIsDeterministic(t *testing.T) {
	s := NewLLMScorer(&fakeGenerator{err: errors.New("boom")}, LLMOptions{})
	a, err := s.Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)
	b, err := s.Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLLM_PerCallTimeoutFallsBack(t *testing.T) {
	s := NewLLMScorer(&fakeGenerator{block: true}, LLMOptions{Timeout: 20 * time.Millisecond})

	res, err := s.Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, res.Metadata["fallback"])
	assert.Contains(t, res.Explanation, context.DeadlineExceeded.Error())
}

func TestLLM_NilGeneratorFallsBack(t *testing.T) {
	res, err := NewLLMScorer(nil, LLMOptions{}).Score(context.Background(), attentionPaper(), nil)
	require.NoError(t, err)
	assert.True(t, res.Degraded())
}

// --- Errors ---

func TestLLM_StrictPropagates(t *testing.T) {
	cause := errors.New("connection refused")
	s := NewLLMScorer(&fakeGenerator{err: cause}, LLMOptions{Strict: true})

	_, err := s.Score(context.Background(), attentionPaper(), nil)
	require.Error(t, err)
	var se *StrategyError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, NameLLM, se.Scorer)
	assert.ErrorIs(t, err, cause)
}

func TestLLM_CallerCancellationPropagates(t *testing.T) {
	s := NewLLMScorer(&fakeGenerator{block: true}, LLMOptions{Timeout: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := s.Score(ctx, attentionPaper(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- Prompt ---

func TestRenderPrompt(t *testing.T) {
	p := attentionPaper()
	p.Authors = []string{"A One", "B Two", "C Three", "D Four", "E Five", "F Six", "G Seven"}
	p.Categories = []string{"cs.CL", "cs.LG"}

	prompt, err := RenderPrompt(p, &Focus{ResearchInterests: []string{"efficient attention", "long context"}})
	require.NoError(t, err)

	assert.Contains(t, prompt, "Title: "+p.Title)
	assert.Contains(t, prompt, "Abstract: "+p.Abstract)
	assert.Contains(t, prompt, "Categories: cs.CL, cs.LG")
	assert.Contains(t, prompt, "Authors: A One, B Two, C Three, D Four, E Five\n")
	assert.NotContains(t, prompt, "F Six")
	assert.Contains(t, prompt, "Research Interests: efficient attention, long context")
	for _, key := range []string{"relevance_score", "novelty_score", "technical_quality", "potential_impact", "explanation"} {
		assert.Contains(t, prompt, key)
	}

	plain, err := RenderPrompt(p, nil)
	require.NoError(t, err)
	assert.NotContains(t, plain, "Research Interests")
}

func TestLLM_PromptReachesGenerator(t *testing.T) {
	gen := &fakeGenerator{out: goodReply}
	s := NewLLMScorer(gen, LLMOptions{})
	_, err := s.Score(context.Background(), types.Paper{Title: "Mamba", Abstract: "State spaces."}, nil)
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Title: Mamba")
}
