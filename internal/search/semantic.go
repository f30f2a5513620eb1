// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/httputil"
	"github.com/pdiddy/paper-explorer/internal/tracing"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

// semanticAPIBase is the Semantic Scholar bulk search endpoint, the only one
// that can sort by publication date. Declared as a var so tests can
// substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search/bulk"

const semanticFields = "title,abstract,authors,externalIds,url,publicationDate"

// SemanticScholarSource queries Semantic Scholar, newest publications first.
type SemanticScholarSource struct {
	Client     *http.Client
	APIKey     string
	UserAgent  string
	MaxRetries int
	Logger     *zap.Logger
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Search returns up to maxResults papers matching query. Papers without a
// title or an abstract are dropped.
func (s *SemanticScholarSource) Search(ctx context.Context, query string, maxResults int) (results []types.FetchedPaper, err error) {
	ctx, span := tracing.StartSpan(ctx, "semantic_scholar.search")
	defer func() { tracing.End(span, err) }()

	q := collapseSpace(query)
	if q == "" {
		return nil, apperr.Input("semantic_scholar.search", "empty Semantic Scholar query")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := url.Values{
		"query":  {q},
		"fields": {semanticFields},
		"sort":   {"publicationDate:desc"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, s.MaxRetries)
	if err != nil {
		return nil, apperr.Service("semantic_scholar.search", fmt.Errorf("Semantic Scholar API request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Service("semantic_scholar.search", fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode))
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, apperr.Service("semantic_scholar.search", fmt.Errorf("parsing Semantic Scholar response: %w", err))
	}

	for _, paper := range sr.Data {
		if len(results) == maxResults {
			break
		}
		title := collapseSpace(paper.Title)
		abstract := collapseSpace(paper.Abstract)
		if title == "" || abstract == "" {
			continue
		}

		p := types.FetchedPaper{
			Identifier: paper.identifier(),
			Title:      title,
			Abstract:   abstract,
			URL:        paper.URL,
		}
		for _, a := range paper.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		if t, parseErr := time.Parse("2006-01-02", paper.PublicationDate); parseErr == nil {
			p.Published = t
		}
		if paper.ExternalIDs.ArXiv != "" {
			p.URL = "http://arxiv.org/abs/" + paper.ExternalIDs.ArXiv
		}
		results = append(results, p)
	}

	if s.Logger != nil {
		s.Logger.Info("fetched papers", zap.Int("count", len(results)), zap.Int("total", sr.Total))
	}
	return results, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Token string          `json:"token"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	URL             string              `json:"url"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

// identifier prefers the arXiv ID, then the DOI, then the Semantic Scholar ID.
func (p semanticPaper) identifier() string {
	switch {
	case p.ExternalIDs.ArXiv != "":
		return p.ExternalIDs.ArXiv
	case p.ExternalIDs.DOI != "":
		return p.ExternalIDs.DOI
	default:
		return p.PaperID
	}
}
