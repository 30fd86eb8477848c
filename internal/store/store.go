// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists papers, summaries and scoring runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-curator/pkg/types"
)

// DefaultPath is used when StoreConfig.Path is empty.
const DefaultPath = "data/papers.db"

// timeLayout is fixed-width so stored timestamps compare as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist. The special path ":memory:" opens a private in-memory
// database.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}

	dsn := "file::memory:?_foreign_keys=on"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT NOT NULL,
			authors TEXT,
			categories TEXT,
			published TEXT NOT NULL,
			pdf_url TEXT,
			metadata TEXT,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			paper_id TEXT PRIMARY KEY REFERENCES papers(id),
			text TEXT NOT NULL,
			key_points TEXT,
			model TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			paper_id TEXT NOT NULL REFERENCES papers(id),
			score REAL NOT NULL,
			explanation TEXT NOT NULL,
			components TEXT,
			metadata TEXT,
			scored_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_paper_id ON scores(paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_run_id ON scores(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// --- papers ---

// SavePaper inserts p or updates the stored copy.
func (s *Store) SavePaper(ctx context.Context, p types.Paper) error {
	if p.ArxivID == "" {
		return fmt.Errorf("saving paper: empty arxiv id")
	}
	authors, _ := json.Marshal(p.Authors)
	categories, _ := json.Marshal(p.Categories)
	metadata, err := marshalOptional(p.Metadata)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", p.ArxivID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO papers (id, title, abstract, authors, categories, published, pdf_url, metadata, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, abstract=excluded.abstract, authors=excluded.authors,
			categories=excluded.categories, published=excluded.published,
			pdf_url=excluded.pdf_url, metadata=excluded.metadata`,
		p.ArxivID, p.Title, p.Abstract, string(authors), string(categories),
		formatTime(p.PublishedDate), p.PDFURL, metadata, formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", p.ArxivID, err)
	}
	return nil
}

// PaperExists reports whether id has been stored.
func (s *Store) PaperExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("checking paper %s: %w", id, err)
	}
	return n > 0, nil
}

// PaperScored reports whether id has been stored with at least one score.
func (s *Store) PaperScored(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM scores WHERE paper_id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("checking scores of %s: %w", id, err)
	}
	return n > 0, nil
}

const paperColumns = `p.id, p.title, p.abstract, p.authors, p.categories, p.published, p.pdf_url, p.metadata`

// Paper returns the stored paper with the given id.
func (s *Store) Paper(ctx context.Context, id string) (types.Paper, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+paperColumns+` FROM papers p WHERE p.id = ?`, id)
	p, err := scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Paper{}, fmt.Errorf("paper %s: %w", id, ErrNotFound)
	}
	return p, err
}

// Papers returns stored papers published at or after since, newest first.
// A zero since returns every paper.
func (s *Store) Papers(ctx context.Context, since time.Time) ([]types.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM papers p`
	var args []any
	if !since.IsZero() {
		query += ` WHERE p.published >= ?`
		args = append(args, formatTime(since))
	}
	query += ` ORDER BY p.published DESC, p.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPaper(row scanner) (types.Paper, error) {
	var (
		p                    types.Paper
		authors, categories  sql.NullString
		published            string
		pdfURL, metadataJSON sql.NullString
	)
	if err := row.Scan(&p.ArxivID, &p.Title, &p.Abstract, &authors, &categories, &published, &pdfURL, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning paper: %w", err)
	}
	p.PublishedDate = parseTime(published)
	p.PDFURL = pdfURL.String
	if authors.Valid {
		json.Unmarshal([]byte(authors.String), &p.Authors)
	}
	if categories.Valid {
		json.Unmarshal([]byte(categories.String), &p.Categories)
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		json.Unmarshal([]byte(metadataJSON.String), &p.Metadata)
	}
	return p, nil
}

// --- summaries ---

// SaveSummary stores sum, replacing any earlier summary of the same paper.
func (s *Store) SaveSummary(ctx context.Context, sum types.Summary) error {
	keyPoints, _ := json.Marshal(sum.KeyPoints)
	created := sum.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (paper_id, text, key_points, model, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
			text=excluded.text, key_points=excluded.key_points,
			model=excluded.model, created_at=excluded.created_at`,
		sum.PaperID, sum.Text, string(keyPoints), sum.Model, formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("saving summary for %s: %w", sum.PaperID, err)
	}
	return nil
}

// Summary returns the stored summary for paperID.
func (s *Store) Summary(ctx context.Context, paperID string) (types.Summary, error) {
	var (
		sum       = types.Summary{PaperID: paperID}
		keyPoints sql.NullString
		model     sql.NullString
		created   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT text, key_points, model, created_at FROM summaries WHERE paper_id = ?`, paperID,
	).Scan(&sum.Text, &keyPoints, &model, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Summary{}, fmt.Errorf("summary for %s: %w", paperID, ErrNotFound)
	}
	if err != nil {
		return types.Summary{}, fmt.Errorf("looking up summary: %w", err)
	}
	sum.Model = model.String
	sum.CreatedAt = parseTime(created)
	if keyPoints.Valid {
		json.Unmarshal([]byte(keyPoints.String), &sum.KeyPoints)
	}
	return sum, nil
}

// --- helpers ---

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// marshalOptional encodes m as JSON, storing NULL for empty maps.
func marshalOptional[M ~map[K]V, K comparable, V any](m M) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
