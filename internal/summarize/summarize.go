// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize turns paper abstracts into short summaries through the
// HuggingFace inference API.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/paper-curator/internal/httputil"
	"github.com/pdiddy/paper-curator/pkg/types"
)

// hfAPIBase is the inference endpoint prefix; the model name is appended.
// Declared as a var so tests can substitute an httptest server.
var hfAPIBase = "https://api-inference.huggingface.co/models/"

// Defaults applied by New.
const (
	DefaultModel     = "facebook/bart-large-cnn"
	DefaultMaxLength = 150
	DefaultMinLength = 56

	// maxInputChars bounds the text sent to the model.
	maxInputChars = 5000
	maxKeyPoints  = 5
	minPointChars = 20
	maxRetries    = 3
)

// ErrEmptySummary is returned when the API answers without summary text.
var ErrEmptySummary = errors.New("empty summary returned from API")

// Summarizer produces a summary for one paper.
type Summarizer interface {
	Summarize(ctx context.Context, paper types.Paper) (types.Summary, error)
}

// HuggingFace calls a hosted summarization model.
type HuggingFace struct {
	Token     string
	Model     string
	MaxLength int
	MinLength int

	client *http.Client
	now    func() time.Time
}

// New returns a client for cfg with defaults filled in. The client is
// disabled when cfg.Token is empty; see Enabled.
func New(cfg types.SummaryConfig) *HuggingFace {
	h := &HuggingFace{
		Token:     strings.TrimSpace(cfg.Token),
		Model:     cfg.Model,
		MaxLength: cfg.MaxLength,
		MinLength: cfg.MinLength,
		now:       time.Now,
	}
	if h.Model == "" {
		h.Model = DefaultModel
	}
	if h.MaxLength <= 0 {
		h.MaxLength = DefaultMaxLength
	}
	if h.MinLength <= 0 || h.MinLength > h.MaxLength {
		h.MinLength = min(DefaultMinLength, h.MaxLength)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	h.client = &http.Client{Timeout: timeout}
	return h
}

// Enabled reports whether a token is configured.
func (h *HuggingFace) Enabled() bool { return h != nil && h.Token != "" }

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type inferenceResult struct {
	SummaryText string `json:"summary_text"`
	Error       string `json:"error,omitempty"`
}

// Summarize sends the paper's title and abstract to the model.
func (h *HuggingFace) Summarize(ctx context.Context, paper types.Paper) (types.Summary, error) {
	if !h.Enabled() {
		return types.Summary{}, fmt.Errorf("summarization disabled: no token configured")
	}

	body, err := json.Marshal(inferenceRequest{
		Inputs: InputText(paper),
		Parameters: inferenceParameters{
			MaxLength: h.MaxLength,
			MinLength: h.MinLength,
		},
	})
	if err != nil {
		return types.Summary{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hfAPIBase+h.Model, bytes.NewReader(body))
	if err != nil {
		return types.Summary{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, h.client, req, maxRetries)
	if err != nil {
		return types.Summary{}, fmt.Errorf("calling inference API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.Summary{}, fmt.Errorf("reading inference response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return types.Summary{}, fmt.Errorf("inference API returned %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(raw)), 256))
	}

	text, err := parseSummary(raw)
	if err != nil {
		return types.Summary{}, fmt.Errorf("paper %s: %w", paper.ArxivID, err)
	}

	return types.Summary{
		PaperID:   paper.ArxivID,
		Text:      text,
		KeyPoints: KeyPoints(text),
		Model:     h.Model,
		CreatedAt: h.now().UTC(),
	}, nil
}

// parseSummary accepts both the list form the API normally returns and a
// bare object.
func parseSummary(raw []byte) (string, error) {
	var list []inferenceResult
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", ErrEmptySummary
		}
		return checkResult(list[0])
	}
	var single inferenceResult
	if err := json.Unmarshal(raw, &single); err != nil {
		return "", fmt.Errorf("decoding inference response: %w", err)
	}
	return checkResult(single)
}

func checkResult(r inferenceResult) (string, error) {
	if r.Error != "" {
		return "", fmt.Errorf("inference error: %s", r.Error)
	}
	text := strings.TrimSpace(r.SummaryText)
	if text == "" {
		return "", ErrEmptySummary
	}
	return text, nil
}

// InputText formats the model input, truncated to a few thousand characters.
func InputText(p types.Paper) string {
	text := "Title: " + p.Title + "\n\nAbstract: " + p.Abstract
	if utf8.RuneCountInString(text) > maxInputChars {
		text = string([]rune(text)[:maxInputChars]) + "..."
	}
	return text
}

// KeyPoints splits a summary into up to five sentences, dropping
// fragments too short to stand alone.
func KeyPoints(summary string) []string {
	var points []string
	for i, sentence := range strings.Split(summary, ". ") {
		if i >= maxKeyPoints {
			break
		}
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= minPointChars {
			continue
		}
		if !strings.HasSuffix(sentence, ".") {
			sentence += "."
		}
		points = append(points, sentence)
	}
	return points
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
