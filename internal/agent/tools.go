// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-explorer/internal/llm"
	"github.com/pdiddy/paper-explorer/internal/saved"
	"github.com/pdiddy/paper-explorer/internal/vectorstore"
)

// Tool names offered to the model.
const (
	ToolSearchPapers = "SearchPapers"
	ToolSavedPapers  = "SavedPapers"
	ToolModifySaved  = "ModifySaved"
)

// DefaultRetrievalK is the number of papers stuffed into a retrieval prompt.
const DefaultRetrievalK = 4

// Tool is an action the agent can take.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

// Searcher finds stored papers near a query vector.
type Searcher interface {
	Nearest(ctx context.Context, query []float32, which vectorstore.Vector, k int) ([]vectorstore.Match, error)
}

// Dispatcher handles free-text saved-set commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, command string) (saved.Outcome, error)
}

var qaPromptTmpl = template.Must(template.New("qa").Funcs(template.FuncMap{"join": strings.Join}).Parse(`Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{range .Docs}}Title: {{.Record.Title}}
Authors: {{join .Record.Authors ", "}}
Summary: {{.Record.Summary}}
URL: {{.Record.SourceURL}}
Abstract: {{.Record.Abstract}}

{{end}}Question: {{.Question}}
Helpful Answer:`))

// RetrievalTool answers a question from the papers nearest to it in one
// store.
type RetrievalTool struct {
	ToolName string
	Desc     string
	Store    Searcher
	Embedder llm.Embedder
	LLM      llm.Completer
	K        int
}

func (t *RetrievalTool) Name() string        { return t.ToolName }
func (t *RetrievalTool) Description() string { return t.Desc }

// Run embeds question, retrieves the top K papers by abstract similarity
// and asks the model to answer from them.
func (t *RetrievalTool) Run(ctx context.Context, question string) (string, error) {
	vec, err := llm.EmbedOne(ctx, t.Embedder, question)
	if err != nil {
		return "", err
	}
	k := t.K
	if k <= 0 {
		k = DefaultRetrievalK
	}
	docs, err := t.Store.Nearest(ctx, vec, vectorstore.ContentVector, k)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := qaPromptTmpl.Execute(&buf, struct {
		Docs     []vectorstore.Match
		Question string
	}{Docs: docs, Question: question}); err != nil {
		return "", fmt.Errorf("rendering retrieval prompt: %w", err)
	}
	return t.LLM.Complete(ctx, "", buf.String())
}

// ModifySavedTool forwards commands to the saved-set manager.
type ModifySavedTool struct {
	Manager Dispatcher
}

func (t *ModifySavedTool) Name() string { return ToolModifySaved }

func (t *ModifySavedTool) Description() string {
	return "Add or remove papers from saved DB with 'add' or 'delete' in query."
}

func (t *ModifySavedTool) Run(ctx context.Context, input string) (string, error) {
	out, err := t.Manager.Dispatch(ctx, input)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}

// DefaultTools builds the three paper tools over the given stores.
func DefaultTools(papers, savedStore Searcher, mgr Dispatcher, emb llm.Embedder, c llm.Completer, k int) []Tool {
	return []Tool{
		&RetrievalTool{
			ToolName: ToolSearchPapers,
			Desc:     "Search recent AI papers.",
			Store:    papers,
			Embedder: emb,
			LLM:      c,
			K:        k,
		},
		&RetrievalTool{
			ToolName: ToolSavedPapers,
			Desc:     "Search your saved AI papers.",
			Store:    savedStore,
			Embedder: emb,
			LLM:      c,
			K:        k,
		},
		&ModifySavedTool{Manager: mgr},
	}
}
