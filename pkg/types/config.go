package types

import (
	"fmt"
	"math"
	"time"
)

// WeightTolerance is the allowed deviation of a weight sum from 1.0.
const WeightTolerance = 0.001

// ConfigError reports an invalid configuration value. It is raised at
// construction time and is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// ScoringConfig is the flat configuration record the scoring factory turns
// into an ensemble. The five weights must sum to 1.0.
type ScoringConfig struct {
	// UseLLM enables the LLM strategy. The remaining strategies are enabled
	// whenever their weight is positive.
	UseLLM      bool          `json:"use_llm" yaml:"use_llm" mapstructure:"use_llm"`
	LLMWeight   float64       `json:"llm_weight" yaml:"llm_weight" mapstructure:"llm_weight"`
	OllamaHost  string        `json:"ollama_host,omitempty" yaml:"ollama_host,omitempty" mapstructure:"ollama_host"`
	OllamaModel string        `json:"ollama_model,omitempty" yaml:"ollama_model,omitempty" mapstructure:"ollama_model"`
	LLMTimeout  time.Duration `json:"llm_timeout" yaml:"llm_timeout" mapstructure:"llm_timeout"`

	// LLMStrict makes LLM service failures surface as strategy errors
	// instead of producing the local fallback result.
	LLMStrict bool `json:"llm_strict" yaml:"llm_strict" mapstructure:"llm_strict"`

	Keywords      []string           `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
	BoostTerms    map[string]float64 `json:"boost_terms" yaml:"boost_terms" mapstructure:"boost_terms"`
	KeywordWeight float64            `json:"keyword_weight" yaml:"keyword_weight" mapstructure:"keyword_weight"`

	MinCitations   int     `json:"min_citations" yaml:"min_citations" mapstructure:"min_citations"`
	CitationWeight float64 `json:"citation_weight" yaml:"citation_weight" mapstructure:"citation_weight"`

	TrendKeywords     map[string]float64 `json:"trend_keywords" yaml:"trend_keywords" mapstructure:"trend_keywords"`
	TemporalWeight    float64            `json:"temporal_weight" yaml:"temporal_weight" mapstructure:"temporal_weight"`
	PeakFreshnessDays int                `json:"peak_freshness_days" yaml:"peak_freshness_days" mapstructure:"peak_freshness_days"`
	RecencyWeight     float64            `json:"recency_weight" yaml:"recency_weight" mapstructure:"recency_weight"`

	KnownAuthors       map[string]float64 `json:"known_authors" yaml:"known_authors" mapstructure:"known_authors"`
	InstitutionScores  map[string]float64 `json:"institution_scores" yaml:"institution_scores" mapstructure:"institution_scores"`
	AuthorWeight       float64            `json:"author_weight" yaml:"author_weight" mapstructure:"author_weight"`
	CollaborationBonus float64            `json:"collaboration_bonus" yaml:"collaboration_bonus" mapstructure:"collaboration_bonus"`

	// EnsembleTimeout bounds a whole ensemble call. Zero means no bound
	// beyond the caller's context.
	EnsembleTimeout time.Duration `json:"ensemble_timeout" yaml:"ensemble_timeout" mapstructure:"ensemble_timeout"`
}

// DefaultScoringConfig returns a fresh configuration with a machine-learning
// research focus.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		UseLLM:      true,
		LLMWeight:   0.3,
		OllamaHost:  "http://localhost:11434",
		OllamaModel: "gemma3:4b",
		LLMTimeout:  30 * time.Second,

		Keywords: []string{
			"transformer", "attention", "neural", "deep learning",
			"reinforcement learning", "generative", "diffusion",
			"language model", "vision", "multimodal",
		},
		BoostTerms: map[string]float64{
			"novel":            1.5,
			"state-of-the-art": 1.3,
			"breakthrough":     1.5,
			"efficient":        1.2,
			"scalable":         1.2,
		},
		KeywordWeight: 0.2,

		MinCitations:   5,
		CitationWeight: 0.2,

		TrendKeywords: map[string]float64{
			"llm":              1.5,
			"foundation model": 1.4,
			"mamba":            1.3,
			"diffusion":        1.2,
			"multimodal":       1.3,
			"efficient":        1.2,
		},
		TemporalWeight:    0.15,
		PeakFreshnessDays: 30,
		RecencyWeight:     0.5,

		KnownAuthors: map[string]float64{
			"Yann LeCun":      0.9,
			"Geoffrey Hinton": 0.9,
			"Yoshua Bengio":   0.9,
			"Ian Goodfellow":  0.85,
			"Andrej Karpathy": 0.85,
		},
		InstitutionScores: map[string]float64{
			"mila":             0.9,
			"vector institute": 0.85,
			"fair":             0.9,
			"google brain":     0.9,
			"anthropic":        0.9,
		},
		AuthorWeight:       0.15,
		CollaborationBonus: 0.1,
	}
}

// WeightSum returns the sum of the five strategy weights.
func (c ScoringConfig) WeightSum() float64 {
	return c.LLMWeight + c.KeywordWeight + c.CitationWeight + c.TemporalWeight + c.AuthorWeight
}

// Validate checks weights and numeric parameters. It returns a *ConfigError
// describing the first violation.
func (c ScoringConfig) Validate() error {
	weights := []struct {
		field string
		value float64
	}{
		{"llm_weight", c.LLMWeight},
		{"keyword_weight", c.KeywordWeight},
		{"citation_weight", c.CitationWeight},
		{"temporal_weight", c.TemporalWeight},
		{"author_weight", c.AuthorWeight},
	}
	for _, w := range weights {
		if w.value < 0 || math.IsNaN(w.value) {
			return &ConfigError{Field: w.field, Reason: fmt.Sprintf("must be non-negative, got %v", w.value)}
		}
	}
	if sum := c.WeightSum(); math.Abs(sum-1.0) > WeightTolerance {
		return &ConfigError{Field: "weights", Reason: fmt.Sprintf("must sum to 1.0, got %.4f", sum)}
	}
	if c.CitationWeight > 0 && c.MinCitations < 1 {
		return &ConfigError{Field: "min_citations", Reason: fmt.Sprintf("must be at least 1, got %d", c.MinCitations)}
	}
	if c.TemporalWeight > 0 && c.PeakFreshnessDays < 1 {
		return &ConfigError{Field: "peak_freshness_days", Reason: fmt.Sprintf("must be at least 1, got %d", c.PeakFreshnessDays)}
	}
	if c.RecencyWeight < 0 || c.RecencyWeight > 1 {
		return &ConfigError{Field: "recency_weight", Reason: fmt.Sprintf("must be within [0,1], got %v", c.RecencyWeight)}
	}
	if c.LLMTimeout < 0 {
		return &ConfigError{Field: "llm_timeout", Reason: "must not be negative"}
	}
	for name, rep := range c.KnownAuthors {
		if rep < 0 || rep > 1 {
			return &ConfigError{Field: "known_authors", Reason: fmt.Sprintf("reputation for %q must be within [0,1], got %v", name, rep)}
		}
	}
	for name, s := range c.InstitutionScores {
		if s < 0 || s > 1 {
			return &ConfigError{Field: "institution_scores", Reason: fmt.Sprintf("score for %q must be within [0,1], got %v", name, s)}
		}
	}
	return nil
}

// ArxivConfig holds settings for the arXiv paper source.
type ArxivConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Categories restricts the query to taxonomy codes (OR-combined).
	Categories []string `json:"categories" yaml:"categories" mapstructure:"categories"`

	// Keywords restricts the query to papers mentioning any keyword.
	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`

	// MaxResults caps the number of entries requested (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// OllamaConfig holds settings for the local LLM service.
type OllamaConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	Host  string `json:"host" yaml:"host" mapstructure:"host"`
	Model string `json:"model" yaml:"model" mapstructure:"model"`
}

// SummaryConfig holds settings for the summarization service.
type SummaryConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Token authenticates against the inference API. Empty disables summaries.
	Token     string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`
	Model     string `json:"model" yaml:"model" mapstructure:"model"`
	MaxLength int    `json:"max_length" yaml:"max_length" mapstructure:"max_length"`
	MinLength int    `json:"min_length" yaml:"min_length" mapstructure:"min_length"`
}

// StoreConfig holds settings for the SQLite store.
type StoreConfig struct {
	// Path is the database file (e.g. "data/papers.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// CurationConfig holds settings for one fetch-score-summarize run.
type CurationConfig struct {
	// MinRelevance is the score a paper needs before it is summarized.
	MinRelevance float64 `json:"min_relevance" yaml:"min_relevance" mapstructure:"min_relevance"`

	// DaysBack drops papers published earlier than this many days ago.
	DaysBack int `json:"days_back" yaml:"days_back" mapstructure:"days_back"`

	// RequestDelay is the pause between consecutive summarization calls.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`
}

// Validate checks the curation thresholds.
func (c CurationConfig) Validate() error {
	if c.MinRelevance < 0 || c.MinRelevance > 1 {
		return &ConfigError{Field: "min_relevance", Reason: fmt.Sprintf("must be within [0,1], got %v", c.MinRelevance)}
	}
	if c.DaysBack < 0 {
		return &ConfigError{Field: "days_back", Reason: fmt.Sprintf("must not be negative, got %d", c.DaysBack)}
	}
	return nil
}
