// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scoring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// fixedNow is a Monday.
var fixedNow = time.Date(2026, time.March, 16, 12, 0, 0, 0, time.UTC)

func clockAt(t time.Time) func() time.Time { return func() time.Time { return t } }

func attentionPaper() types.Paper {
	return types.Paper{
		ArxivID:       "1706.03762",
		Title:         "Attention Is All You Need: Transformer Architecture",
		Abstract:      "We propose a novel transformer model based solely on attention, dispensing with recurrence entirely.",
		Authors:       []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar"},
		Categories:    []string{"cs.CL"},
		PublishedDate: fixedNow.AddDate(0, 0, -10),
		PDFURL:        "https://arxiv.org/pdf/1706.03762",
	}
}

// stubStrategy returns a canned result or error. When barrier is set, each
// call checks in and waits for every other stub sharing the barrier, which
// only succeeds if the calls overlap.
type stubStrategy struct {
	name    string
	score   float64
	err     error
	block   bool
	barrier *sync.WaitGroup
	calls   atomic.Int32
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Score(ctx context.Context, _ types.Paper, _ *Focus) (types.ScoringResult, error) {
	s.calls.Add(1)
	if s.barrier != nil {
		s.barrier.Done()
		done := make(chan struct{})
		go func() { s.barrier.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			return types.ScoringResult{}, errors.New("strategies did not run concurrently")
		}
	}
	if s.block {
		<-ctx.Done()
		return types.ScoringResult{}, ctx.Err()
	}
	if s.err != nil {
		return types.ScoringResult{}, s.err
	}
	return types.ScoringResult{
		Score:       s.score,
		Explanation: s.name + " explanation",
		Components:  map[string]types.Component{},
		Metadata:    map[string]any{},
	}, nil
}

// fakeGenerator answers every prompt with out or err. With block set it
// waits for cancellation instead.
type fakeGenerator struct {
	out     string
	err     error
	block   bool
	prompts []string
	mu      sync.Mutex
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.out, g.err
}
