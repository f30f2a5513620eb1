// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorstore persists embedded paper records in a per-directory
// SQLite database and answers nearest-neighbour queries by cosine
// similarity over the stored vectors.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

const dbFile = "store.db"

// addedAtLayout is fixed width so added_at sorts chronologically as text.
const addedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Vector selects which stored embedding a similarity query compares against.
type Vector int

const (
	// ContentVector is the embedding of the abstract.
	ContentVector Vector = iota
	// TitleVector is the embedding of the title.
	TitleVector
)

func (v Vector) column() string {
	if v == TitleVector {
		return "title_vec"
	}
	return "content_vec"
}

// Entry is a stored record together with its embeddings.
type Entry struct {
	Record  types.PaperRecord
	Content []float32
	Title   []float32
}

// Match is an Entry ranked by similarity to a query vector.
type Match struct {
	Entry
	Score float64
}

// Store manages one vector store directory.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the store at dir/store.db and creates the schema
// if it does not exist.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Storage("vectorstore.open", fmt.Errorf("creating store directory: %w", err))
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperr.Storage("vectorstore.open", fmt.Errorf("opening database: %w", err))
	}
	// A single connection keeps WAL checkpoints and reads on the same handle.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, apperr.Storage("vectorstore.open", fmt.Errorf("creating schema: %w", err))
	}
	return s, nil
}

// Dir returns the directory the store lives in.
func (s *Store) Dir() string { return s.dir }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			summary TEXT,
			source_url TEXT,
			published TEXT,
			added_at TEXT NOT NULL,
			content_vec BLOB,
			title_vec BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_title ON papers(title)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Insert adds e to the store. Re-inserting an ID that already exists is a
// no-op; the returned bool reports whether a row was written. An empty
// Record.ID is filled with ContentID and a zero AddedAt with the current
// time.
func (s *Store) Insert(ctx context.Context, e Entry) (bool, error) {
	rec := e.Record
	if rec.ID == "" {
		rec.ID = ContentID(rec.Title, rec.Abstract)
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = time.Now().UTC()
	}

	authorsJSON, err := json.Marshal(rec.Authors)
	if err != nil {
		return false, apperr.Storage("vectorstore.insert", fmt.Errorf("encoding authors: %w", err))
	}
	published := ""
	if !rec.Published.IsZero() {
		published = rec.Published.UTC().Format(time.RFC3339)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO papers
			(id, title, authors, abstract, summary, source_url, published, added_at, content_vec, title_vec)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, string(authorsJSON), rec.Abstract, rec.Summary, rec.SourceURL,
		published, rec.AddedAt.UTC().Format(addedAtLayout),
		encodeVector(e.Content), encodeVector(e.Title),
	)
	if err != nil {
		return false, apperr.Storage("vectorstore.insert", fmt.Errorf("inserting %s: %w", rec.ID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("vectorstore.insert", err)
	}
	return n > 0, nil
}

// Has reports whether a row with the given ID exists.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM papers WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("vectorstore.has", err)
	}
	return true, nil
}

// Get returns the entry with the given ID. The bool is false when no such
// row exists.
func (s *Store) Get(ctx context.Context, id string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM papers WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, apperr.Storage("vectorstore.get", err)
	}
	return e, true, nil
}

// Nearest returns up to k entries ranked by cosine similarity between query
// and the selected stored vector, most similar first. Rows without that
// vector are ignored. Ties keep insertion order.
func (s *Store) Nearest(ctx context.Context, query []float32, which Vector, k int) ([]Match, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM papers WHERE `+which.column()+` IS NOT NULL ORDER BY rowid`)
	if err != nil {
		return nil, apperr.Storage("vectorstore.nearest", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperr.Storage("vectorstore.nearest", err)
		}
		vec := e.Content
		if which == TitleVector {
			vec = e.Title
		}
		if len(vec) == 0 {
			continue
		}
		matches = append(matches, Match{Entry: e, Score: CosineSimilarity(query, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("vectorstore.nearest", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// DeleteByTitle removes every row whose title equals title exactly and
// returns the number of rows removed.
func (s *Store) DeleteByTitle(ctx context.Context, title string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE title = ?`, title)
	if err != nil {
		return 0, apperr.Storage("vectorstore.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperr.Storage("vectorstore.delete", err)
	}
	return n, nil
}

// List returns records newest first. A limit of zero or less returns all.
func (s *Store) List(ctx context.Context, limit int) ([]types.PaperRecord, error) {
	entries, err := s.entries(ctx, limit)
	if err != nil {
		return nil, apperr.Storage("vectorstore.list", err)
	}
	records := make([]types.PaperRecord, len(entries))
	for i, e := range entries {
		records[i] = e.Record
	}
	return records, nil
}

// Entries returns every entry with its vectors, newest first.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	entries, err := s.entries(ctx, 0)
	if err != nil {
		return nil, apperr.Storage("vectorstore.entries", err)
	}
	return entries, nil
}

func (s *Store) entries(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT ` + entryColumns + ` FROM papers ORDER BY added_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, apperr.Storage("vectorstore.count", err)
	}
	return n, nil
}

// Persist flushes the write-ahead log into the database file.
func (s *Store) Persist(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return apperr.Storage("vectorstore.persist", err)
	}
	return nil
}

const entryColumns = `id, title, authors, abstract, summary, source_url, published, added_at, content_vec, title_vec`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc rowScanner) (Entry, error) {
	var (
		e                      Entry
		authorsJSON            sql.NullString
		abstract, summary, url sql.NullString
		published              sql.NullString
		addedAt                string
		contentBlob, titleBlob []byte
	)
	if err := sc.Scan(&e.Record.ID, &e.Record.Title, &authorsJSON, &abstract, &summary, &url,
		&published, &addedAt, &contentBlob, &titleBlob); err != nil {
		return Entry{}, err
	}

	e.Record.Abstract = abstract.String
	e.Record.Summary = summary.String
	e.Record.SourceURL = url.String
	if authorsJSON.Valid && authorsJSON.String != "" {
		if err := json.Unmarshal([]byte(authorsJSON.String), &e.Record.Authors); err != nil {
			return Entry{}, fmt.Errorf("decoding authors of %s: %w", e.Record.ID, err)
		}
	}
	if published.String != "" {
		if t, err := time.Parse(time.RFC3339, published.String); err == nil {
			e.Record.Published = t
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, addedAt); err == nil {
		e.Record.AddedAt = t
	}

	var err error
	if e.Content, err = decodeVector(contentBlob); err != nil {
		return Entry{}, fmt.Errorf("decoding content vector of %s: %w", e.Record.ID, err)
	}
	if e.Title, err = decodeVector(titleBlob); err != nil {
		return Entry{}, fmt.Errorf("decoding title vector of %s: %w", e.Record.ID, err)
	}
	return e, nil
}
