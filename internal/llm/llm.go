// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm talks to the hosted language-model services: chat completion
// (OpenAI or Anthropic) and embeddings (OpenAI). Callers depend on the
// Completer and Embedder interfaces so tests can supply fakes.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/pkg/types"
)

// Completer produces a completion for a system prompt and a user prompt.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder converts texts into fixed-dimension vectors, one per input, in
// input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding service returned %d vectors for 1 input", len(vectors))
	}
	return vectors[0], nil
}

// NewCompleter builds the completion client selected by cfg.Provider,
// wrapped in a circuit breaker.
func NewCompleter(cfg types.AIConfig, logger *zap.Logger) (Completer, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var inner Completer
	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		inner = &OpenAIClient{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Client:      client,
		}
	case types.ProviderAnthropic:
		inner = &AnthropicClient{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Client:      client,
		}
	default:
		return nil, fmt.Errorf("unsupported completion provider %q", cfg.Provider)
	}

	return NewBreaker(inner, BreakerSettings{
		Name:        string(cfg.Provider),
		MaxFailures: cfg.BreakerFailures,
		Cooldown:    cfg.BreakerCooldown,
	}, logger), nil
}

// NewEmbedder builds the OpenAI embeddings client.
func NewEmbedder(cfg types.AIConfig) Embedder {
	return &OpenAIClient{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		Client:         &http.Client{Timeout: cfg.Timeout},
	}
}
