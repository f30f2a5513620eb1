// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fetches recent papers from an academic API. The ingestion
// workflow depends only on the Source interface; ArxivSource is the default
// implementation and SemanticScholarSource the alternative.
package search

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/pkg/types"
)

// DefaultQuery is the query used when the operator does not supply one.
const DefaultQuery = "artificial intelligence"

// DefaultMaxResults is the number of papers fetched per run by default.
const DefaultMaxResults = 10

// Source returns up to maxResults papers matching query, most recently
// submitted first.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.FetchedPaper, error)
}

// Source names accepted by NewSource.
const (
	SourceArxiv           = "arxiv"
	SourceSemanticScholar = "semantic_scholar"
)

// NewSource builds the source named by cfg.Source. Empty means arXiv.
func NewSource(cfg types.SearchConfig, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Source {
	case SourceArxiv, "":
		return NewArxivSource(cfg, logger), nil
	case SourceSemanticScholar:
		return &SemanticScholarSource{
			Client:     &http.Client{Timeout: cfg.Timeout},
			APIKey:     cfg.SemanticScholarAPIKey,
			UserAgent:  cfg.UserAgent,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger.Named("semantic_scholar"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown paper source %q", cfg.Source)
	}
}
