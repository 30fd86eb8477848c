// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// ScoreRecord is one stored scoring result.
type ScoreRecord struct {
	types.ScoringResult `yaml:",inline"`

	RunID    string    `json:"run_id" yaml:"run_id"`
	PaperID  string    `json:"paper_id" yaml:"paper_id"`
	ScoredAt time.Time `json:"scored_at" yaml:"scored_at"`
}

// Ranked pairs a paper with its latest score and, when present, its summary.
type Ranked struct {
	Paper   types.Paper    `json:"paper" yaml:"paper"`
	Score   ScoreRecord    `json:"score" yaml:"score"`
	Summary *types.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// SaveScore records result for paperID under runID. Earlier scores are
// kept; readers use the most recent one.
func (s *Store) SaveScore(ctx context.Context, runID, paperID string, result types.ScoringResult) error {
	components, err := marshalOptional(result.Components)
	if err != nil {
		return fmt.Errorf("encoding components for %s: %w", paperID, err)
	}
	metadata, err := marshalOptional(result.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", paperID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (run_id, paper_id, score, explanation, components, metadata, scored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, paperID, result.Score, result.Explanation, components, metadata, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("saving score for %s: %w", paperID, err)
	}
	return nil
}

const scoreColumns = `s.run_id, s.paper_id, s.score, s.explanation, s.components, s.metadata, s.scored_at`

// LatestScore returns the most recently saved score for paperID.
func (s *Store) LatestScore(ctx context.Context, paperID string) (ScoreRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+scoreColumns+` FROM scores s WHERE s.paper_id = ? ORDER BY s.id DESC LIMIT 1`, paperID)
	var rec ScoreRecord
	err := scanScore(row, &rec)
	if errors.Is(err, sql.ErrNoRows) {
		return ScoreRecord{}, fmt.Errorf("score for %s: %w", paperID, ErrNotFound)
	}
	return rec, err
}

// RunScores returns every score saved under runID, highest first.
func (s *Store) RunScores(ctx context.Context, runID string) ([]ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scoreColumns+` FROM scores s WHERE s.run_id = ? ORDER BY s.score DESC, s.paper_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var rec ScoreRecord
		if err := scanScore(rows, &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// latestScores selects the newest score row of every paper.
const latestScores = `SELECT paper_id, MAX(id) AS id FROM scores GROUP BY paper_id`

// TopPapers returns up to limit papers whose latest score is at least
// minScore, best first. A limit of zero or less means no limit.
func (s *Store) TopPapers(ctx context.Context, limit int, minScore float64) ([]Ranked, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paperColumns+`, `+scoreColumns+`,
			sm.text, sm.key_points, sm.model, sm.created_at
		FROM scores s
		JOIN (`+latestScores+`) latest ON latest.id = s.id
		JOIN papers p ON p.id = s.paper_id
		LEFT JOIN summaries sm ON sm.paper_id = p.id
		WHERE s.score >= ?
		ORDER BY s.score DESC, p.published DESC, p.id
		LIMIT ?`, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top papers: %w", err)
	}
	defer rows.Close()

	var out []Ranked
	for rows.Next() {
		r, err := scanRanked(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats summarizes the latest score of every scored paper.
type Stats struct {
	Papers    int     `json:"papers" yaml:"papers"`
	Scored    int     `json:"scored" yaml:"scored"`
	Summaries int     `json:"summaries" yaml:"summaries"`
	Degraded  int     `json:"degraded" yaml:"degraded"`
	Mean      float64 `json:"mean" yaml:"mean"`
	StdDev    float64 `json:"std_dev" yaml:"std_dev"`
	Min       float64 `json:"min" yaml:"min"`
	Max       float64 `json:"max" yaml:"max"`
}

// Stats computes counts and the distribution of latest scores.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&st.Papers); err != nil {
		return st, fmt.Errorf("counting papers: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM summaries`).Scan(&st.Summaries); err != nil {
		return st, fmt.Errorf("counting summaries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scoreColumns+` FROM scores s JOIN (`+latestScores+`) latest ON latest.id = s.id`)
	if err != nil {
		return st, fmt.Errorf("querying latest scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var rec ScoreRecord
		if err := scanScore(rows, &rec); err != nil {
			return st, err
		}
		scores = append(scores, rec.Score)
		if rec.Degraded() {
			st.Degraded++
		}
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	st.Scored = len(scores)
	if st.Scored == 0 {
		return st, nil
	}
	st.Min, st.Max = floats.Min(scores), floats.Max(scores)
	if st.Scored == 1 {
		st.Mean = scores[0]
		return st, nil
	}
	st.Mean, st.StdDev = stat.MeanStdDev(scores, nil)
	return st, nil
}

func scanScore(row scanner, rec *ScoreRecord) error {
	var (
		components, metadata sql.NullString
		scoredAt             string
	)
	if err := row.Scan(&rec.RunID, &rec.PaperID, &rec.Score, &rec.Explanation, &components, &metadata, &scoredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("scanning score: %w", err)
	}
	rec.ScoredAt = parseTime(scoredAt)
	decodeScoreJSON(rec, components, metadata)
	return nil
}

func scanRanked(rows *sql.Rows) (Ranked, error) {
	var (
		r                            Ranked
		authors, categories          sql.NullString
		published                    string
		pdfURL, paperMeta            sql.NullString
		components, scoreMeta        sql.NullString
		scoredAt                     string
		sumText, sumPoints, sumModel sql.NullString
		sumCreated                   sql.NullString
	)
	err := rows.Scan(
		&r.Paper.ArxivID, &r.Paper.Title, &r.Paper.Abstract, &authors, &categories, &published, &pdfURL, &paperMeta,
		&r.Score.RunID, &r.Score.PaperID, &r.Score.Score, &r.Score.Explanation, &components, &scoreMeta, &scoredAt,
		&sumText, &sumPoints, &sumModel, &sumCreated,
	)
	if err != nil {
		return r, fmt.Errorf("scanning ranked paper: %w", err)
	}

	r.Paper.PublishedDate = parseTime(published)
	r.Paper.PDFURL = pdfURL.String
	if authors.Valid {
		json.Unmarshal([]byte(authors.String), &r.Paper.Authors)
	}
	if categories.Valid {
		json.Unmarshal([]byte(categories.String), &r.Paper.Categories)
	}
	if paperMeta.Valid && paperMeta.String != "" {
		json.Unmarshal([]byte(paperMeta.String), &r.Paper.Metadata)
	}

	r.Score.ScoredAt = parseTime(scoredAt)
	decodeScoreJSON(&r.Score, components, scoreMeta)

	if sumText.Valid {
		r.Summary = &types.Summary{
			PaperID:   r.Paper.ArxivID,
			Text:      sumText.String,
			Model:     sumModel.String,
			CreatedAt: parseTime(sumCreated.String),
		}
		if sumPoints.Valid {
			json.Unmarshal([]byte(sumPoints.String), &r.Summary.KeyPoints)
		}
	}
	return r, nil
}

func decodeScoreJSON(rec *ScoreRecord, components, metadata sql.NullString) {
	if components.Valid && components.String != "" {
		json.Unmarshal([]byte(components.String), &rec.Components)
	}
	if metadata.Valid && metadata.String != "" {
		json.Unmarshal([]byte(metadata.String), &rec.Metadata)
	}
}
