// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package saved copies papers from the papers store into the saved store
// and deletes them from the saved store, looking papers up by title
// similarity.
package saved

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/llm"
	"github.com/pdiddy/paper-explorer/internal/vectorstore"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

// Store is the subset of the vector store the manager needs.
type Store interface {
	Nearest(ctx context.Context, query []float32, which vectorstore.Vector, k int) ([]vectorstore.Match, error)
	Insert(ctx context.Context, e vectorstore.Entry) (bool, error)
	DeleteByTitle(ctx context.Context, title string) (int64, error)
	List(ctx context.Context, limit int) ([]types.PaperRecord, error)
	Persist(ctx context.Context) error
}

// Outcome is the result of a saved-set command. A lookup miss is an
// Outcome with Found false, not an error.
type Outcome struct {
	Found bool
	// Matched is the title of the stored paper the lookup resolved to.
	Matched string
	Message string
}

func (o Outcome) String() string { return o.Message }

const msgSpecifyAction = "Please specify 'add' or 'delete' in your command."

// Manager owns the papers and saved stores for saved-set operations.
type Manager struct {
	Papers   Store
	Saved    Store
	Embedder llm.Embedder

	// MinScore is the minimum title similarity for a lookup to count as a
	// match. Zero or less accepts the nearest paper whatever its score.
	MinScore float64

	Logger *zap.Logger

	now func() time.Time
}

// Add copies the paper nearest to title from the papers store into the
// saved store. The paper stays in the papers store.
func (m *Manager) Add(ctx context.Context, title string) (Outcome, error) {
	match, ok, err := m.lookup(ctx, m.Papers, title)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{Message: "Paper not found in current papers."}, nil
	}

	e := match.Entry
	e.Record.AddedAt = m.clock()
	if _, err := m.Saved.Insert(ctx, e); err != nil {
		return Outcome{}, err
	}
	if err := m.Saved.Persist(ctx); err != nil {
		return Outcome{}, err
	}

	m.logger().Info("saved paper",
		zap.String("id", e.Record.ID),
		zap.String("title", e.Record.Title),
		zap.Float64("score", match.Score))
	return Outcome{
		Found:   true,
		Matched: e.Record.Title,
		Message: fmt.Sprintf("Added '%s' to saved papers.", title),
	}, nil
}

// Delete removes every saved paper whose title equals the title of the
// saved paper nearest to title.
func (m *Manager) Delete(ctx context.Context, title string) (Outcome, error) {
	match, ok, err := m.lookup(ctx, m.Saved, title)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{Message: "Paper not found in saved papers."}, nil
	}

	n, err := m.Saved.DeleteByTitle(ctx, match.Record.Title)
	if err != nil {
		return Outcome{}, err
	}
	if err := m.Saved.Persist(ctx); err != nil {
		return Outcome{}, err
	}

	m.logger().Info("deleted saved paper",
		zap.String("title", match.Record.Title),
		zap.Int64("rows", n))
	return Outcome{
		Found:   true,
		Matched: match.Record.Title,
		Message: fmt.Sprintf("Deleted '%s' from saved papers.", title),
	}, nil
}

// Dispatch routes a free-text command: a command containing "add"
// (case-insensitive) adds, otherwise one containing "delete" deletes. The
// whole command is used as the title to look up.
func (m *Manager) Dispatch(ctx context.Context, command string) (Outcome, error) {
	lower := strings.ToLower(command)
	switch {
	case strings.Contains(lower, "add"):
		return m.Add(ctx, command)
	case strings.Contains(lower, "delete"):
		return m.Delete(ctx, command)
	default:
		return Outcome{Message: msgSpecifyAction}, nil
	}
}

// List returns the saved papers, most recently saved first.
func (m *Manager) List(ctx context.Context) ([]types.PaperRecord, error) {
	return m.Saved.List(ctx, 0)
}

func (m *Manager) lookup(ctx context.Context, s Store, title string) (vectorstore.Match, bool, error) {
	vec, err := llm.EmbedOne(ctx, m.Embedder, title)
	if err != nil {
		return vectorstore.Match{}, false, err
	}
	matches, err := s.Nearest(ctx, vec, vectorstore.TitleVector, 1)
	if err != nil {
		return vectorstore.Match{}, false, err
	}
	if len(matches) == 0 {
		return vectorstore.Match{}, false, nil
	}
	if m.MinScore > 0 && matches[0].Score < m.MinScore {
		m.logger().Debug("nearest paper below match threshold",
			zap.String("query", title),
			zap.String("nearest", matches[0].Record.Title),
			zap.Float64("score", matches[0].Score))
		return vectorstore.Match{}, false, nil
	}
	return matches[0], true, nil
}

func (m *Manager) logger() *zap.Logger {
	if m.Logger == nil {
		return zap.NewNop()
	}
	return m.Logger
}

func (m *Manager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now().UTC()
}
