// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv fetches recent papers from the arXiv Atom API and converts
// them into validated Paper values.
package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"

	"github.com/pdiddy/paper-curator/internal/httputil"
	"github.com/pdiddy/paper-curator/pkg/types"
)

// apiBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://export.arxiv.org/api/query"

const (
	defaultMaxResults = 10
	defaultUserAgent  = "paper-curator/1.0 (+https://github.com/pdiddy/paper-curator)"
)

// ErrNotFound is returned by FetchByID when arXiv has no such entry.
var ErrNotFound = errors.New("paper not found")

// Client queries arXiv for the categories and keywords it was built with.
type Client struct {
	cfg    types.ArxivConfig
	http   *http.Client
	parser *gofeed.Parser
	logger *log.Logger
	now    func() time.Time
}

// New returns a client for cfg. A nil logger discards warnings.
func New(cfg types.ArxivConfig, logger *log.Logger) *Client {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultMaxResults
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	parser := gofeed.NewParser()
	parser.AtomTranslator = &entryTranslator{}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		parser: parser,
		logger: logger,
		now:    time.Now,
	}
}

// Name identifies the source in logs.
func (c *Client) Name() string { return "arxiv" }

// Fetch returns the newest papers matching the client's query, newest
// first. Papers published more than daysBack days ago are dropped; zero
// disables the cutoff. Entries missing required fields are skipped with a
// warning.
func (c *Client) Fetch(ctx context.Context, daysBack int) ([]types.Paper, error) {
	params := url.Values{}
	params.Set("search_query", BuildQuery(c.cfg.Categories, c.cfg.Keywords))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(c.cfg.MaxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	feed, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if daysBack > 0 {
		cutoff = c.now().AddDate(0, 0, -daysBack)
	}

	papers := make([]types.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		p := toPaper(item)
		if err := p.Validate(); err != nil {
			c.logger.Warn("skipping arXiv entry", "id", item.GUID, "err", err)
			continue
		}
		if !cutoff.IsZero() && p.PublishedDate.Before(cutoff) {
			continue
		}
		papers = append(papers, p)
	}
	c.logger.Debug("fetched papers", "count", len(papers), "entries", len(feed.Items))
	return papers, nil
}

// FetchByID returns a single paper by its arXiv identifier.
func (c *Client) FetchByID(ctx context.Context, id string) (types.Paper, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Paper{}, fmt.Errorf("empty arXiv id")
	}
	params := url.Values{}
	params.Set("id_list", id)
	params.Set("max_results", "1")

	feed, err := c.query(ctx, params)
	if err != nil {
		return types.Paper{}, err
	}
	for _, item := range feed.Items {
		p := toPaper(item)
		if p.ArxivID == "" {
			continue
		}
		if err := p.Validate(); err != nil {
			return types.Paper{}, err
		}
		return p, nil
	}
	return types.Paper{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

func (c *Client) query(ctx context.Context, params url.Values) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 3)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return feed, nil
}

// BuildQuery OR-combines categories and quoted keywords, then AND-combines
// the two groups. With neither it matches everything.
func BuildQuery(categories, keywords []string) string {
	var groups []string
	if g := orGroup(categories, func(s string) string { return "cat:" + s }); g != "" {
		groups = append(groups, g)
	}
	if g := orGroup(keywords, func(s string) string { return `all:"` + s + `"` }); g != "" {
		groups = append(groups, g)
	}
	if len(groups) == 0 {
		return "all:*"
	}
	return strings.Join(groups, " AND ")
}

func orGroup(terms []string, format func(string) string) string {
	var parts []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, format(t))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func toPaper(item *gofeed.Item) types.Paper {
	id := ExtractID(item.GUID)
	if id == "" {
		id = ExtractID(item.Link)
	}
	p := types.Paper{
		ArxivID:    id,
		Title:      collapse(item.Title),
		Abstract:   collapse(item.Description),
		Categories: item.Categories,
		PDFURL:     pdfLink(item, id),
	}
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
	}
	switch {
	case item.PublishedParsed != nil:
		p.PublishedDate = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		p.PublishedDate = *item.UpdatedParsed
	}
	if primary := primaryCategory(item); primary != "" {
		p.Metadata = map[string]any{"primary_category": primary}
	}
	return p
}

// ExtractID pulls the arXiv identifier from an abstract or PDF URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func ExtractID(link string) string {
	var id string
	for _, marker := range []string{"/abs/", "/pdf/"} {
		if idx := strings.Index(link, marker); idx >= 0 {
			id = link[idx+len(marker):]
			break
		}
	}
	if id == "" {
		return ""
	}
	id = strings.TrimSuffix(id, ".pdf")

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

// pdfURLKey is the Item.Custom key holding the entry's PDF link.
const pdfURLKey = "pdf_url"

// entryTranslator keeps the PDF link that the default Atom translator drops:
// arXiv publishes it as rel="related", which gofeed does not copy into
// Item.Links.
type entryTranslator struct {
	gofeed.DefaultAtomTranslator
}

func (t *entryTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	out, err := t.DefaultAtomTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}
	af, ok := feed.(*atom.Feed)
	if !ok || len(af.Entries) != len(out.Items) {
		return out, nil
	}
	for i, entry := range af.Entries {
		href := entryPDF(entry)
		if href == "" {
			continue
		}
		item := out.Items[i]
		if item.Custom == nil {
			item.Custom = map[string]string{}
		}
		item.Custom[pdfURLKey] = href
	}
	return out, nil
}

func entryPDF(entry *atom.Entry) string {
	for _, l := range entry.Links {
		if l == nil || l.Href == "" {
			continue
		}
		if l.Title == "pdf" || l.Type == "application/pdf" {
			return l.Href
		}
	}
	return ""
}

func pdfLink(item *gofeed.Item, id string) string {
	if href := item.Custom[pdfURLKey]; href != "" {
		return href
	}
	for _, l := range item.Links {
		if strings.Contains(l, "/pdf/") {
			return l
		}
	}
	if id == "" {
		return ""
	}
	return "https://arxiv.org/pdf/" + id
}

func primaryCategory(item *gofeed.Item) string {
	exts, ok := item.Extensions["arxiv"]["primary_category"]
	if !ok || len(exts) == 0 {
		return ""
	}
	return exts[0].Attrs["term"]
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
