package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/httputil"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

// --- fakes ---

type fakeCompleter struct {
	reply     string
	err       error
	calls     int
	gotSystem string
	gotUser   string
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.gotSystem, f.gotUser = system, user
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// --- OpenAI ---

func TestOpenAIComplete(t *testing.T) {
	var got openAIChatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  hello there \n"}}]}`)
	}))
	defer ts.Close()

	c := &OpenAIClient{APIKey: "sk-test", BaseURL: ts.URL + "/", Temperature: 0.3, Client: ts.Client()}
	out, err := c.Complete(context.Background(), "be brief", "say hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)

	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openAIMessage{Role: "system", Content: "be brief"}, got.Messages[0])
	assert.Equal(t, openAIMessage{Role: "user", Content: "say hi"}, got.Messages[1])
}

func TestOpenAICompleteHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	}))
	defer ts.Close()

	c := &OpenAIClient{BaseURL: ts.URL, Client: ts.Client()}
	_, err := c.Complete(context.Background(), "", "hi")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer ts.Close()

	c := &OpenAIClient{BaseURL: ts.URL, Client: ts.Client()}
	_, err := c.Complete(context.Background(), "", "hi")
	assert.True(t, apperr.Is(err, apperr.KindService))
}

func TestOpenAIEmbedOrdersByIndex(t *testing.T) {
	var got openAIEmbeddingRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`)
	}))
	defer ts.Close()

	c := &OpenAIClient{BaseURL: ts.URL, Client: ts.Client()}
	vecs, err := c.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, defaultEmbeddingModel, got.Model)
	assert.Equal(t, []string{"a", "b"}, got.Input)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestOpenAIEmbedCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[1,0]}]}`)
	}))
	defer ts.Close()

	c := &OpenAIClient{BaseURL: ts.URL, Client: ts.Client()}
	_, err := c.Embed(context.Background(), []string{"a", "b"})
	assert.True(t, apperr.Is(err, apperr.KindService))
}

func TestOpenAIEmbedEmptyInput(t *testing.T) {
	c := &OpenAIClient{BaseURL: "http://127.0.0.1:0"}
	vecs, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedOne(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.5,0.5]}]}`)
	}))
	defer ts.Close()

	v, err := EmbedOne(context.Background(), &OpenAIClient{BaseURL: ts.URL, Client: ts.Client()}, "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, v)
}

// --- Anthropic ---

func TestAnthropicComplete(t *testing.T) {
	var got claudeRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"part one, "},{"type":"tool_use"},{"type":"text","text":"part two"}]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	c := &AnthropicClient{APIKey: "key-1", Client: ts.Client()}
	out, err := c.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "part one, part two", out)
	assert.Equal(t, DefaultClaudeModel, got.Model)
	assert.Equal(t, defaultClaudeMaxTokens, got.MaxTokens)
	assert.Equal(t, "sys", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "usr", got.Messages[0].Content)
}

func TestAnthropicCompleteEmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"content":[]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	c := &AnthropicClient{Client: ts.Client()}
	_, err := c.Complete(context.Background(), "", "usr")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))
}

// --- breaker ---

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &fakeCompleter{err: errors.New("boom")}
	b := NewBreaker(inner, BreakerSettings{MaxFailures: 2, Cooldown: time.Hour}, nil)

	for i := 0; i < 2; i++ {
		_, err := b.Complete(context.Background(), "", "q")
		require.EqualError(t, err, "boom")
	}
	assert.Equal(t, "open", b.State())

	_, err := b.Complete(context.Background(), "", "q")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))
	assert.Equal(t, 2, inner.calls, "open breaker must not call through")
}

func TestBreakerPassesThrough(t *testing.T) {
	inner := &fakeCompleter{reply: "ok"}
	b := NewBreaker(inner, BreakerSettings{}, nil)

	out, err := b.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "s", inner.gotSystem)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	inner := &fakeCompleter{err: context.Canceled}
	b := NewBreaker(inner, BreakerSettings{MaxFailures: 1, Cooldown: time.Hour}, nil)

	for i := 0; i < 3; i++ {
		_, _ = b.Complete(context.Background(), "", "q")
	}
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, 3, inner.calls)
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"from openai"}}]}`)
	}))
	defer ts.Close()

	c, err := NewCompleter(types.AIConfig{Provider: types.ProviderOpenAI, OpenAIBaseURL: ts.URL}, nil)
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "from openai", out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = NewCompleter(types.AIConfig{Provider: "gemini"}, nil)
	assert.Error(t, err)
}

// --- summarizer ---

func TestSummarize(t *testing.T) {
	fc := &fakeCompleter{reply: " A short summary. "}
	s := NewSummarizer(fc)

	out, err := s.Summarize(context.Background(), "  We propose a method.  ")
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
	assert.True(t, strings.HasPrefix(fc.gotUser, "Write a concise summary of the following:"))
	assert.Contains(t, fc.gotUser, `"We propose a method."`)
	assert.True(t, strings.HasSuffix(fc.gotUser, "CONCISE SUMMARY:"))
}

func TestSummarizeEmptyText(t *testing.T) {
	fc := &fakeCompleter{reply: "unused"}
	out, err := NewSummarizer(fc).Summarize(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, fc.calls)
}

func TestSummarizeErrors(t *testing.T) {
	_, err := NewSummarizer(&fakeCompleter{err: apperr.Service("x", errors.New("down"))}).
		Summarize(context.Background(), "text")
	assert.True(t, apperr.Is(err, apperr.KindService))

	_, err = NewSummarizer(&fakeCompleter{reply: "  "}).Summarize(context.Background(), "text")
	assert.True(t, apperr.Is(err, apperr.KindService))
}
