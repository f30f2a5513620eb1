// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/httputil"
	"github.com/pdiddy/paper-explorer/internal/tracing"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivSource queries the arXiv API sorted by submission date, newest first.
type ArxivSource struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
	Logger     *zap.Logger
}

// NewArxivSource builds a source from the search configuration.
func NewArxivSource(cfg types.SearchConfig, logger *zap.Logger) *ArxivSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArxivSource{
		Client:     &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger.Named("arxiv"),
	}
}

// Name returns the source identifier.
func (s *ArxivSource) Name() string { return "arxiv" }

// Search queries the arXiv API and returns the entries in feed order.
func (s *ArxivSource) Search(ctx context.Context, query string, maxResults int) (results []types.FetchedPaper, err error) {
	ctx, span := tracing.StartSpan(ctx, "arxiv.search")
	defer func() { tracing.End(span, err) }()

	q := buildArxivQuery(query)
	if q == "" {
		return nil, apperr.Input("arxiv.search", "empty arXiv query")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}
	reqURL := arxivAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	s.logger().Debug("querying arXiv", zap.String("query", q), zap.Int("max_results", maxResults))

	resp, err := httputil.DoWithRetry(ctx, client, req, s.MaxRetries)
	if err != nil {
		return nil, apperr.Service("arxiv.search", fmt.Errorf("arXiv API request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Service("arxiv.search", fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode))
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, apperr.Service("arxiv.search", fmt.Errorf("parsing arXiv response: %w", err))
	}

	for _, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		p := types.FetchedPaper{
			Identifier: arxivID,
			Title:      collapseSpace(entry.Title),
			Abstract:   collapseSpace(entry.Summary),
			URL:        strings.TrimSpace(entry.ID),
		}
		for _, a := range entry.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			p.Published = t
		}
		results = append(results, p)
	}

	s.logger().Info("fetched papers", zap.Int("count", len(results)))
	return results, nil
}

func (s *ArxivSource) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// buildArxivQuery turns free text into a search_query value. Text that
// already uses arXiv field prefixes (e.g. "cat:cs.AI") is passed through.
func buildArxivQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}
	joined := strings.Join(terms, " ")
	if strings.Contains(joined, ":") {
		return joined
	}
	return "all:" + joined
}

// collapseSpace joins the hard-wrapped lines arXiv returns in titles and
// abstracts into single-spaced text.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
