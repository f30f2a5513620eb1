// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/agent"
	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/ingest"
	"github.com/pdiddy/paper-explorer/internal/llm"
	"github.com/pdiddy/paper-explorer/internal/saved"
	"github.com/pdiddy/paper-explorer/internal/search"
	"github.com/pdiddy/paper-explorer/internal/tracing"
	"github.com/pdiddy/paper-explorer/internal/vectorstore"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

// app holds the explicitly constructed collaborators for one process.
type app struct {
	cfg    types.Config
	logger *zap.Logger

	papers *vectorstore.Store
	saved  *vectorstore.Store

	completer llm.Completer
	embedder  llm.Embedder

	shutdownTracing func(context.Context) error
}

// newApp opens both stores and, when needAI is set, builds the completion
// and embedding clients.
func newApp(ctx context.Context, cfg types.Config, logger *zap.Logger, needAI bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	shutdown, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.shutdownTracing = shutdown

	if a.papers, err = vectorstore.Open(cfg.Store.PapersDir); err != nil {
		a.close(ctx)
		return nil, err
	}
	if a.saved, err = vectorstore.Open(cfg.Store.SavedDir); err != nil {
		a.close(ctx)
		return nil, err
	}

	if needAI {
		if a.completer, err = llm.NewCompleter(cfg.AI, logger); err != nil {
			a.close(ctx)
			return nil, err
		}
		a.embedder = llm.NewEmbedder(cfg.AI)
	}

	logger.Debug("stores opened",
		zap.String("papers", cfg.Store.PapersDir),
		zap.String("saved", cfg.Store.SavedDir))
	return a, nil
}

func (a *app) workflow() (*ingest.Workflow, error) {
	src, err := search.NewSource(a.cfg.Search, a.logger)
	if err != nil {
		return nil, apperr.Input("config", "%v", err)
	}
	return &ingest.Workflow{
		Source:         src,
		Summarizer:     llm.NewSummarizer(a.completer),
		Embedder:       a.embedder,
		Papers:         a.papers,
		DedupThreshold: a.cfg.Ingest.DedupThreshold,
		Logger:         a.logger.Named("ingest"),
	}, nil
}

func (a *app) manager() *saved.Manager {
	return &saved.Manager{
		Papers:   a.papers,
		Saved:    a.saved,
		Embedder: a.embedder,
		MinScore: a.cfg.Store.MatchThreshold,
		Logger:   a.logger.Named("saved"),
	}
}

func (a *app) agent() *agent.Agent {
	tools := agent.DefaultTools(a.papers, a.saved, a.manager(), a.embedder, a.completer, a.cfg.Agent.RetrievalK)
	return agent.New(a.completer, tools, a.cfg.Agent.MaxSteps, a.logger)
}

// close releases the stores and flushes traces.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.papers != nil {
		errs = append(errs, a.papers.Close())
	}
	if a.saved != nil {
		errs = append(errs, a.saved.Close())
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}
