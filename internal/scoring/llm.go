// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// DefaultLLMTimeout bounds a single LLM call.
const DefaultLLMTimeout = 30 * time.Second

// maxPromptAuthors limits how many authors are quoted in the prompt.
const maxPromptAuthors = 5

// Generator sends a prompt to a language model and returns its raw text
// completion. The ollama package provides the HTTP implementation; tests
// supply fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var relevancePromptTmpl = template.Must(template.New("relevance").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`Analyze this research paper and provide a relevance score.

Title: {{.Title}}
Abstract: {{.Abstract}}
Categories: {{join .Categories ", "}}
Authors: {{join .Authors ", "}}
{{- if .Interests}}
Research Interests: {{join .Interests ", "}}
{{- end}}

Provide a JSON response with:
1. relevance_score: 0.0 to 1.0 based on novelty, impact, and quality
2. novelty_score: 0.0 to 1.0 for how novel or groundbreaking the work is
3. technical_quality: 0.0 to 1.0 for technical rigor and clarity
4. potential_impact: 0.0 to 1.0 for potential research or industry impact
5. explanation: brief explanation of the scores

Response format:
{"relevance_score": 0.0, "novelty_score": 0.0, "technical_quality": 0.0, "potential_impact": 0.0, "explanation": "text"}
`))

// LLMAssessment is the decoded model answer. Missing numeric fields
// default to 0.5.
type LLMAssessment struct {
	Relevance        float64
	Novelty          float64
	TechnicalQuality float64
	PotentialImpact  float64
	Explanation      string
}

// llmReply mirrors the JSON object the model is asked to produce.
type llmReply struct {
	Relevance        *float64 `json:"relevance_score"`
	Novelty          *float64 `json:"novelty_score"`
	TechnicalQuality *float64 `json:"technical_quality"`
	PotentialImpact  *float64 `json:"potential_impact"`
	Explanation      string   `json:"explanation"`
}

// LLMOptions configures an LLMScorer.
type LLMOptions struct {
	// Model is recorded in result metadata.
	Model string

	// Timeout bounds each model call. Zero selects DefaultLLMTimeout.
	Timeout time.Duration

	// Strict returns service and parse failures as errors instead of the
	// local fallback result.
	Strict bool
}

// LLMScorer asks a language model to judge a paper. On service or parse
// failure it returns a deterministic heuristic result flagged as fallback,
// unless configured strict. Caller cancellation is always returned as an
// error.
type LLMScorer struct {
	gen     Generator
	model   string
	timeout time.Duration
	strict  bool
}

// NewLLMScorer wraps gen.
func NewLLMScorer(gen Generator, opts LLMOptions) *LLMScorer {
	s := &LLMScorer{gen: gen, model: opts.Model, timeout: opts.Timeout, strict: opts.Strict}
	if s.timeout <= 0 {
		s.timeout = DefaultLLMTimeout
	}
	return s
}

func (s *LLMScorer) Name() string { return NameLLM }

// Score implements Strategy.
func (s *LLMScorer) Score(ctx context.Context, paper types.Paper, focus *Focus) (types.ScoringResult, error) {
	a, err := s.Assess(ctx, paper, focus)
	if err != nil {
		if ctx.Err() != nil || s.strict {
			return types.ScoringResult{}, &StrategyError{Scorer: s.Name(), Err: err}
		}
		return s.fallback(paper, err), nil
	}

	expl := a.Explanation
	if strings.TrimSpace(expl) == "" {
		expl = "No explanation provided"
	}
	return types.ScoringResult{
		Score:       clamp01(a.Relevance),
		Explanation: expl,
		Components: floatComponents(map[string]float64{
			"novelty":           clamp01(a.Novelty),
			"technical_quality": clamp01(a.TechnicalQuality),
			"potential_impact":  clamp01(a.PotentialImpact),
		}),
		Metadata: map[string]any{"model": s.model},
	}, nil
}

// Assess renders the prompt, calls the model under the per-call timeout
// and decodes its answer.
func (s *LLMScorer) Assess(ctx context.Context, paper types.Paper, focus *Focus) (LLMAssessment, error) {
	if s.gen == nil {
		return LLMAssessment{}, errors.New("no language model configured")
	}
	prompt, err := RenderPrompt(paper, focus)
	if err != nil {
		return LLMAssessment{}, fmt.Errorf("rendering prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gen.Generate(callCtx, prompt)
	if err != nil {
		return LLMAssessment{}, err
	}
	return ParseAssessment(raw)
}

// RenderPrompt builds the relevance prompt for paper, quoting at most the
// first five authors and any research interests from focus.
func RenderPrompt(paper types.Paper, focus *Focus) (string, error) {
	authors := paper.Authors
	if len(authors) > maxPromptAuthors {
		authors = authors[:maxPromptAuthors]
	}
	var buf bytes.Buffer
	err := relevancePromptTmpl.Execute(&buf, struct {
		Title      string
		Abstract   string
		Categories []string
		Authors    []string
		Interests  []string
	}{paper.Title, paper.Abstract, paper.Categories, authors, focus.interests()})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseAssessment decodes the model's JSON answer. Text surrounding the
// outermost object, such as a code fence, is ignored.
func ParseAssessment(raw string) (LLMAssessment, error) {
	body := strings.TrimSpace(raw)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}
	var r llmReply
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return LLMAssessment{}, fmt.Errorf("parsing model response: %w", err)
	}
	orDefault := func(v *float64) float64 {
		if v == nil || math.IsNaN(*v) {
			return 0.5
		}
		return *v
	}
	return LLMAssessment{
		Relevance:        orDefault(r.Relevance),
		Novelty:          orDefault(r.Novelty),
		TechnicalQuality: orDefault(r.TechnicalQuality),
		PotentialImpact:  orDefault(r.PotentialImpact),
		Explanation:      r.Explanation,
	}, nil
}

// fallback scores from abstract length and category count alone.
func (s *LLMScorer) fallback(paper types.Paper, cause error) types.ScoringResult {
	abstract := math.Min(1, float64(utf8.RuneCountInString(paper.Abstract))/1000)
	cats := math.Min(1, float64(len(paper.Categories))/3)
	return types.ScoringResult{
		Score:       clamp01((abstract + cats) / 2),
		Explanation: fmt.Sprintf("Fallback scoring due to LLM error: %v", cause),
		Components: floatComponents(map[string]float64{
			"abstract_length": abstract,
			"categories":      cats,
		}),
		Metadata: map[string]any{
			"fallback": true,
			"error":    cause.Error(),
			"model":    s.model,
		},
	}
}
