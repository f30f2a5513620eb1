package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "papers_db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(title string, added time.Time, content, titleVec []float32) Entry {
	return Entry{
		Record: types.PaperRecord{
			Title:     title,
			Authors:   []string{"Ada Lovelace", "Alan Turing"},
			Abstract:  "Abstract of " + title,
			Summary:   "Summary of " + title,
			SourceURL: "http://arxiv.org/abs/" + title,
			Published: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			AddedAt:   added,
		},
		Content: content,
		Title:   titleVec,
	}
}

func TestOpenCreatesStoreFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "saved_db")
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, dbFile))
	assert.NoError(t, err)
	assert.Equal(t, dir, s.Dir())
}

func TestInsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	added := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	e := entry("Attention", added, []float32{1, 0, 0}, []float32{0, 1, 0})

	inserted, err := s.Insert(ctx, e)
	require.NoError(t, err)
	assert.True(t, inserted)

	id := ContentID("Attention", "Abstract of Attention")
	ok, err := s.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	got, found, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, got.Record.ID)
	assert.Equal(t, e.Record.Title, got.Record.Title)
	assert.Equal(t, e.Record.Authors, got.Record.Authors)
	assert.Equal(t, e.Record.Summary, got.Record.Summary)
	assert.Equal(t, e.Record.SourceURL, got.Record.SourceURL)
	assert.True(t, e.Record.Published.Equal(got.Record.Published))
	assert.True(t, added.Equal(got.Record.AddedAt))
	assert.Equal(t, e.Content, got.Content)
	assert.Equal(t, e.Title, got.Title)
}

func TestInsertSameIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := entry("Attention", time.Now(), []float32{1, 0}, []float32{1, 0})
	_, err := s.Insert(ctx, e)
	require.NoError(t, err)

	e.Record.Summary = "changed"
	inserted, err := s.Insert(ctx, e)
	require.NoError(t, err)
	assert.False(t, inserted)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHasAndGetMissing(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ok, err := s.Has(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := s.Get(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNearestRanksByCosine(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now()

	for _, e := range []Entry{
		entry("east", now, []float32{1, 0}, []float32{1, 0}),
		entry("north", now, []float32{0, 1}, []float32{0, 1}),
		entry("northeast", now, []float32{1, 1}, []float32{1, 1}),
		entry("no vectors", now, nil, nil),
	} {
		_, err := s.Insert(ctx, e)
		require.NoError(t, err)
	}

	matches, err := s.Nearest(ctx, []float32{1, 0.1}, TitleVector, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "east", matches[0].Record.Title)
	assert.Equal(t, "northeast", matches[1].Record.Title)
	assert.Greater(t, matches[0].Score, matches[1].Score)

	all, err := s.Nearest(ctx, []float32{0, 1}, ContentVector, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "north", all[0].Record.Title)
	assert.InDelta(t, 1.0, all[0].Score, 1e-6)
}

func TestNearestEmptyStore(t *testing.T) {
	s := openTestStore(t)
	matches, err := s.Nearest(context.Background(), []float32{1, 0}, TitleVector, 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDeleteByTitleRemovesAllExactMatches(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := entry("Dup", time.Now(), []float32{1}, []float32{1})
	b := entry("Dup", time.Now(), []float32{1}, []float32{1})
	b.Record.Abstract = "a different abstract"
	c := entry("Other", time.Now(), []float32{1}, []float32{1})
	for _, e := range []Entry{a, b, c} {
		_, err := s.Insert(ctx, e)
		require.NoError(t, err)
	}

	n, err := s.DeleteByTitle(ctx, "Dup")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"first", "second", "third"} {
		_, err := s.Insert(ctx, entry(title, base.Add(time.Duration(i)*time.Hour), nil, nil))
		require.NoError(t, err)
	}

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "third", records[0].Title)
	assert.Equal(t, "first", records[2].Title)

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestListNewestFirstWithinSecond(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stamps := []struct {
		title string
		at    time.Time
	}{
		{"whole second", base},
		{"half second", base.Add(500 * time.Millisecond)},
		{"later", base.Add(510 * time.Millisecond)},
	}
	for _, st := range stamps {
		_, err := s.Insert(ctx, entry(st.title, st.at, nil, nil))
		require.NoError(t, err)
	}

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "later", records[0].Title)
	assert.Equal(t, "half second", records[1].Title)
	assert.Equal(t, "whole second", records[2].Title)
	assert.True(t, records[1].AddedAt.Equal(base.Add(500*time.Millisecond)))
}

func TestPersistAndReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "papers_db")

	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Insert(ctx, entry("Kept", time.Now(), []float32{1, 2}, []float32{3, 4}))
	require.NoError(t, err)
	require.NoError(t, s.Persist(ctx))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClosedStoreReturnsStorageError(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Count(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindStorage))
}

func TestContentID(t *testing.T) {
	a := ContentID("Attention Is All You Need", "We propose the Transformer.")
	b := ContentID("  attention is all   you need!", "we propose the transformer")
	c := ContentID("Attention Is All You Need", "A different abstract.")

	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, ContentID("ab", "c"), ContentID("a", "bc"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, World!", "hello world"},
		{"  BERT:\tPre-training  ", "bert pretraining"},
		{"Über Große Modelle", "über große modelle"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0, -1.5, 3.25, 1e-7}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}

func seedExportStore(t *testing.T) *Store {
	t.Helper()
	s := openTestStore(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.Insert(context.Background(), entry("older", base, []float32{1, 0}, []float32{1, 0}))
	require.NoError(t, err)
	_, err = s.Insert(context.Background(), entry("newer", base.Add(time.Hour), []float32{0, 1}, []float32{0, 1}))
	require.NoError(t, err)
	return s
}

func TestExportJSON(t *testing.T) {
	s := seedExportStore(t)
	var buf bytes.Buffer
	n, err := s.Export(context.Background(), &buf, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var records []types.PaperRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "newer", records[0].Title)
	assert.Contains(t, buf.String(), `"url": "http://arxiv.org/abs/newer"`)
}

func TestExportYAML(t *testing.T) {
	s := seedExportStore(t)
	var buf bytes.Buffer
	_, err := s.Export(context.Background(), &buf, FormatYAML)
	require.NoError(t, err)

	var records []types.PaperRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, records[1].Authors)
}

func TestExportParquet(t *testing.T) {
	s := seedExportStore(t)
	var buf bytes.Buffer
	_, err := s.Export(context.Background(), &buf, FormatParquet)
	require.NoError(t, err)

	rows, err := parquet.Read[ParquetRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "newer", rows[0].Title)
	assert.Equal(t, []float32{0, 1}, rows[0].Embedding)
	assert.Equal(t, time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC).UnixMilli(), rows[0].AddedAt)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"yaml": FormatYAML, "YML": FormatYAML, " json ": FormatJSON, "parquet": FormatParquet} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("csv")
	assert.True(t, apperr.Is(err, apperr.KindInput))
}
