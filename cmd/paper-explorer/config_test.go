package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/llm"
	"github.com/pdiddy/paper-explorer/internal/secrets"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	require.NoError(t, bindEnv(v))
	return v
}

// clearKeys hides any provider keys present in the developer's shell.
func clearKeys(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"PAPER_EXPLORER_AI_OPENAI_API_KEY", "PAPER_EXPLORER_AI_ANTHROPIC_API_KEY",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearKeys(t)
	cfg, err := loadConfig(newTestViper(t), false)
	require.NoError(t, err)

	assert.Equal(t, "artificial intelligence", cfg.Search.Query)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 60*time.Second, cfg.Search.Timeout)
	assert.Equal(t, types.ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, llm.DefaultOpenAIModel, cfg.AI.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.AI.EmbeddingModel)
	assert.Equal(t, uint32(5), cfg.AI.BreakerFailures)
	assert.Equal(t, "./vectorstore/papers_db", cfg.Store.PapersDir)
	assert.Equal(t, "./vectorstore/saved_db", cfg.Store.SavedDir)
	assert.Zero(t, cfg.Store.MatchThreshold)
	assert.InDelta(t, 0.92, cfg.Ingest.DedupThreshold, 1e-9)
	assert.Equal(t, 5, cfg.Agent.MaxSteps)
	assert.Equal(t, 4, cfg.Agent.RetrievalK)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadConfigRequiresOpenAIKey(t *testing.T) {
	clearKeys(t)
	_, err := loadConfig(newTestViper(t), true)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInput))
	assert.Contains(t, err.Error(), "ai.openai_api_key is required")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("PAPER_EXPLORER_SEARCH_MAX_RESULTS", "25")
	t.Setenv("PAPER_EXPLORER_AI_TEMPERATURE", "0.7")

	cfg, err := loadConfig(newTestViper(t), true)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.AI.OpenAIAPIKey)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-9)
}

func TestLoadConfigAnthropic(t *testing.T) {
	clearKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")

	v := newTestViper(t)
	v.Set("ai.provider", "Anthropic")

	_, err := loadConfig(v, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai.anthropic_api_key is required when Provider is anthropic")

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	cfg, err := loadConfig(v, true)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderAnthropic, cfg.AI.Provider)
	assert.Equal(t, llm.DefaultClaudeModel, cfg.AI.Model)
	assert.Equal(t, "sk-ant", cfg.AI.AnthropicAPIKey)
}

func TestLoadConfigValidation(t *testing.T) {
	clearKeys(t)
	tests := []struct {
		key   string
		value any
		want  string
	}{
		{"search.max_results", 0, "search.max_results must be at least 1"},
		{"ai.provider", "cohere", "ai.provider must be one of: openai anthropic"},
		{"ingest.dedup_threshold", 1.5, "ingest.dedup_threshold must be at most 1"},
		{"store.saved_dir", "./vectorstore/papers_db", "store.saved_dir must differ from PapersDir"},
		{"log.level", "verbose", "log.level must be one of"},
		{"ai.openai_base_url", "not a url", "ai.openai_base_url must be a URL"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := newTestViper(t)
			v.Set(tt.key, tt.value)
			_, err := loadConfig(v, false)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInput))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"PAPER_EXPLORER_TEST_FROM_FILE=file\nPAPER_EXPLORER_TEST_KEEP=file\n"), 0o600))

	t.Setenv("PAPER_EXPLORER_TEST_KEEP", "shell")
	t.Cleanup(func() { os.Unsetenv("PAPER_EXPLORER_TEST_FROM_FILE") })

	n, err := loadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "file", os.Getenv("PAPER_EXPLORER_TEST_FROM_FILE"))
	assert.Equal(t, "shell", os.Getenv("PAPER_EXPLORER_TEST_KEEP"))
}

func TestLoadEnvFileMissing(t *testing.T) {
	n, err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = loadEnvFile("")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestApplySecretsIsFallback(t *testing.T) {
	clearKeys(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, secrets.OpenAIKey), []byte("sk-file\n"), 0o600))
	s, err := secrets.Load(dir)
	require.NoError(t, err)

	v := newTestViper(t)
	applySecrets(v, s)
	cfg, err := loadConfig(v, true)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.AI.OpenAIAPIKey)

	t.Setenv("OPENAI_API_KEY", "sk-env")
	cfg, err = loadConfig(v, true)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.AI.OpenAIAPIKey)
}
