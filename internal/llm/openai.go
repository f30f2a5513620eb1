// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/httputil"
	"github.com/pdiddy/paper-explorer/internal/tracing"
)

const (
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"
	defaultEmbeddingModel = "text-embedding-3-small"
)

// OpenAIClient calls an OpenAI-compatible API for chat completions and
// embeddings.
type OpenAIClient struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float64
	Client         *http.Client
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Complete sends a system and a user message and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (text string, err error) {
	ctx, span := tracing.StartSpan(ctx, "openai.chat")
	defer func() { tracing.End(span, err) }()

	model := c.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	reqBody := openAIChatRequest{
		Model:       model,
		Temperature: c.Temperature,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	var cResp openAIChatResponse
	if err := c.post(ctx, "/chat/completions", reqBody, &cResp); err != nil {
		return "", apperr.Service("openai.chat", err)
	}
	if len(cResp.Choices) == 0 {
		return "", apperr.Service("openai.chat", fmt.Errorf("OpenAI API returned no choices"))
	}
	return strings.TrimSpace(cResp.Choices[0].Message.Content), nil
}

// Embed returns one embedding per input text, in input order.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, span := tracing.StartSpan(ctx, "openai.embed")
	defer func() { tracing.End(span, err) }()

	model := c.EmbeddingModel
	if model == "" {
		model = defaultEmbeddingModel
	}

	var eResp openAIEmbeddingResponse
	if err := c.post(ctx, "/embeddings", openAIEmbeddingRequest{Model: model, Input: texts}, &eResp); err != nil {
		return nil, apperr.Service("openai.embed", err)
	}
	if len(eResp.Data) != len(texts) {
		return nil, apperr.Service("openai.embed", fmt.Errorf("got %d embeddings for %d inputs", len(eResp.Data), len(texts)))
	}

	vectors = make([][]float32, len(texts))
	for _, d := range eResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, apperr.Service("openai.embed", fmt.Errorf("embedding index %d out of range", d.Index))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, in, out any) error {
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding OpenAI response: %w", err)
	}
	return nil
}
