// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest fetches recent papers, drops the ones the papers store
// already holds, summarizes the rest and stores them with their embeddings.
package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/llm"
	"github.com/pdiddy/paper-explorer/internal/search"
	"github.com/pdiddy/paper-explorer/internal/tracing"
	"github.com/pdiddy/paper-explorer/internal/vectorstore"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

// DefaultDedupThreshold is the title similarity at or above which a fetched
// paper is treated as already ingested.
const DefaultDedupThreshold = 0.92

// Store is the subset of the vector store the workflow writes to.
type Store interface {
	Has(ctx context.Context, id string) (bool, error)
	Nearest(ctx context.Context, query []float32, which vectorstore.Vector, k int) ([]vectorstore.Match, error)
	Insert(ctx context.Context, e vectorstore.Entry) (bool, error)
	Persist(ctx context.Context) error
}

// Summarizer condenses an abstract.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Summary holds the counts from one ingestion run.
type Summary struct {
	Fetched int
	Added   int
	Skipped int
}

// Message is the operator-facing result line.
func (s Summary) Message() string {
	return fmt.Sprintf("Added %d new papers.", s.Added)
}

// Workflow wires a paper source, the summarizer, the embedding service and
// the papers store together.
type Workflow struct {
	Source     search.Source
	Summarizer Summarizer
	Embedder   llm.Embedder
	Papers     Store

	// DedupThreshold is the minimum title similarity of the nearest stored
	// paper for a fetched paper to be skipped. Zero or less treats any
	// neighbour as a duplicate.
	DedupThreshold float64

	// Out receives the progress and result lines. Nil discards them.
	Out    io.Writer
	Logger *zap.Logger

	now func() time.Time
}

// Run fetches up to maxResults papers for query and stores the new ones.
// Empty query and non-positive maxResults fall back to the defaults.
//
// Any source, embedding, summarization or store failure aborts the run.
// Papers stored before the failure are kept, and the returned Summary
// carries the partial counts.
func (w *Workflow) Run(ctx context.Context, query string, maxResults int) (sum Summary, err error) {
	if strings.TrimSpace(query) == "" {
		query = search.DefaultQuery
	}
	if maxResults <= 0 {
		maxResults = search.DefaultMaxResults
	}

	ctx, span := tracing.StartSpan(ctx, "ingest.run",
		attribute.String("query", query),
		attribute.Int("max_results", maxResults))
	defer func() {
		span.SetAttributes(
			attribute.Int("fetched", sum.Fetched),
			attribute.Int("added", sum.Added),
			attribute.Int("skipped", sum.Skipped))
		tracing.End(span, err)
	}()

	log := w.logger()
	if w.Out != nil {
		fmt.Fprintf(w.Out, "Fetching latest papers for %q from %s...\n", query, w.Source.Name())
	}

	papers, err := w.Source.Search(ctx, query, maxResults)
	if err != nil {
		return sum, fmt.Errorf("fetching papers: %w", err)
	}
	sum.Fetched = len(papers)
	log.Info("fetched papers",
		zap.String("source", w.Source.Name()),
		zap.String("query", query),
		zap.Int("count", len(papers)))

	defer func() {
		if sum.Added == 0 {
			return
		}
		if perr := w.Papers.Persist(context.WithoutCancel(ctx)); perr != nil && err == nil {
			err = fmt.Errorf("flushing papers store: %w", perr)
		}
	}()

	for _, p := range papers {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		added, err := w.ingestOne(ctx, p)
		if err != nil {
			return sum, fmt.Errorf("ingesting %q: %w", p.Title, err)
		}
		if added {
			sum.Added++
		} else {
			sum.Skipped++
		}
	}

	log.Info("ingestion finished",
		zap.Int("fetched", sum.Fetched),
		zap.Int("added", sum.Added),
		zap.Int("skipped", sum.Skipped))

	if w.Out != nil {
		fmt.Fprintln(w.Out, sum.Message())
	}
	return sum, nil
}

// ingestOne stores p unless it duplicates a stored paper. It reports
// whether p was added.
func (w *Workflow) ingestOne(ctx context.Context, p types.FetchedPaper) (bool, error) {
	log := w.logger().With(zap.String("title", p.Title))

	if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Abstract) == "" {
		log.Debug("skipping paper without title or abstract")
		return false, nil
	}

	id := vectorstore.ContentID(p.Title, p.Abstract)
	exists, err := w.Papers.Has(ctx, id)
	if err != nil {
		return false, err
	}
	if exists {
		log.Debug("skipping paper already stored", zap.String("id", id))
		return false, nil
	}

	vecs, err := w.Embedder.Embed(ctx, []string{p.Title, p.Abstract})
	if err != nil {
		return false, err
	}
	if len(vecs) != 2 {
		return false, fmt.Errorf("embedding service returned %d vectors for 2 inputs", len(vecs))
	}
	titleVec, contentVec := vecs[0], vecs[1]

	nearest, err := w.Papers.Nearest(ctx, titleVec, vectorstore.TitleVector, 1)
	if err != nil {
		return false, err
	}
	if len(nearest) > 0 && (w.DedupThreshold <= 0 || nearest[0].Score >= w.DedupThreshold) {
		log.Debug("skipping paper similar to stored paper",
			zap.String("match", nearest[0].Record.Title),
			zap.Float64("score", nearest[0].Score))
		return false, nil
	}

	summary, err := w.Summarizer.Summarize(ctx, p.Abstract)
	if err != nil {
		return false, err
	}

	rec := types.PaperRecord{
		ID:        id,
		Title:     p.Title,
		Authors:   p.Authors,
		Abstract:  p.Abstract,
		Summary:   summary,
		SourceURL: p.URL,
		Published: p.Published,
		AddedAt:   w.clock(),
	}
	if _, err := w.Papers.Insert(ctx, vectorstore.Entry{Record: rec, Content: contentVec, Title: titleVec}); err != nil {
		return false, err
	}
	log.Debug("stored paper", zap.String("id", id))
	return true, nil
}

func (w *Workflow) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

func (w *Workflow) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now().UTC()
}
