// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

// Format is an export encoding.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatYAML, FormatJSON, FormatParquet:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", apperr.Input("export", "unknown export format %q (want yaml, json or parquet)", raw)
	}
}

// ParquetRow is the columnar layout of an exported record. Times are unix
// milliseconds; the embedding is the content vector.
type ParquetRow struct {
	ID        string    `parquet:"id"`
	Title     string    `parquet:"title"`
	Authors   []string  `parquet:"authors,list"`
	Abstract  string    `parquet:"abstract"`
	Summary   string    `parquet:"summary"`
	URL       string    `parquet:"url"`
	Published int64     `parquet:"published"`
	AddedAt   int64     `parquet:"added_at"`
	Embedding []float32 `parquet:"embedding,list"`
}

// Export writes every record in the store to w in the given format, newest
// first. YAML and JSON carry the records only; parquet also carries the
// content embedding. It returns the number of records written.
func (s *Store) Export(ctx context.Context, w io.Writer, format Format) (int, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return 0, err
	}

	switch format {
	case FormatYAML:
		records := recordsOf(entries)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return 0, fmt.Errorf("marshaling YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return 0, fmt.Errorf("flushing YAML: %w", err)
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(recordsOf(entries)); err != nil {
			return 0, fmt.Errorf("marshaling JSON: %w", err)
		}
	case FormatParquet:
		rows := make([]ParquetRow, len(entries))
		for i, e := range entries {
			rows[i] = toParquetRow(e)
		}
		pw := parquet.NewGenericWriter[ParquetRow](w)
		if _, err := pw.Write(rows); err != nil {
			return 0, fmt.Errorf("writing parquet rows: %w", err)
		}
		if err := pw.Close(); err != nil {
			return 0, fmt.Errorf("closing parquet writer: %w", err)
		}
	default:
		return 0, apperr.Input("export", "unknown export format %q", format)
	}
	return len(entries), nil
}

func recordsOf(entries []Entry) []types.PaperRecord {
	records := make([]types.PaperRecord, len(entries))
	for i, e := range entries {
		records[i] = e.Record
	}
	return records
}

func toParquetRow(e Entry) ParquetRow {
	r := ParquetRow{
		ID:        e.Record.ID,
		Title:     e.Record.Title,
		Authors:   e.Record.Authors,
		Abstract:  e.Record.Abstract,
		Summary:   e.Record.Summary,
		URL:       e.Record.SourceURL,
		AddedAt:   e.Record.AddedAt.UnixMilli(),
		Embedding: e.Content,
	}
	if !e.Record.Published.IsZero() {
		r.Published = e.Record.Published.UnixMilli()
	}
	return r
}
