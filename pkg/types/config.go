package types

import "time"

// HTTPConfig holds shared HTTP settings used by clients that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-explorer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the paper source.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Query is the free-text arXiv query used by fetch (default "artificial intelligence").
	Query string `json:"query" yaml:"query" mapstructure:"query" validate:"required"`

	// MaxResults is the number of papers requested per fetch (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=1,lte=2000"`

	// MaxRetries bounds the HTTP 429 backoff loop (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`

	// Source selects the paper API: arxiv (default) or semantic_scholar.
	Source string `json:"source" yaml:"source" mapstructure:"source" validate:"oneof=arxiv semantic_scholar"`

	// SemanticScholarAPIKey raises the Semantic Scholar rate limit. Optional.
	SemanticScholarAPIKey string `json:"-" yaml:"-" mapstructure:"semantic_scholar_api_key"`
}

// Provider names a hosted completion API.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// AIConfig holds settings for the completion and embedding services.
type AIConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider selects the completion API: openai or anthropic.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider" validate:"oneof=openai anthropic"`

	// Model is the completion model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// Temperature is the sampling temperature for completions (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`

	// EmbeddingModel is the embedding model identifier (e.g. "text-embedding-3-small").
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model" mapstructure:"embedding_model" validate:"required"`

	// OpenAIAPIKey authenticates completion (provider openai) and embedding calls.
	OpenAIAPIKey string `json:"-" yaml:"-" mapstructure:"openai_api_key" validate:"required"`

	// AnthropicAPIKey authenticates completion calls when provider is anthropic.
	AnthropicAPIKey string `json:"-" yaml:"-" mapstructure:"anthropic_api_key" validate:"required_if=Provider anthropic"`

	// OpenAIBaseURL overrides the OpenAI-compatible API base (default https://api.openai.com/v1).
	OpenAIBaseURL string `json:"openai_base_url" yaml:"openai_base_url" mapstructure:"openai_base_url" validate:"omitempty,url"`

	// BreakerFailures is the number of consecutive completion failures that opens the breaker.
	BreakerFailures uint32 `json:"breaker_failures" yaml:"breaker_failures" mapstructure:"breaker_failures" validate:"gte=1"`

	// BreakerCooldown is how long the breaker stays open before probing again.
	BreakerCooldown time.Duration `json:"breaker_cooldown" yaml:"breaker_cooldown" mapstructure:"breaker_cooldown" validate:"gt=0"`
}

// StoreConfig locates the two persisted vector stores.
type StoreConfig struct {
	// PapersDir holds every fetched paper (default ./vectorstore/papers_db).
	PapersDir string `json:"papers_dir" yaml:"papers_dir" mapstructure:"papers_dir" validate:"required"`

	// SavedDir holds the papers the user chose to keep (default ./vectorstore/saved_db).
	SavedDir string `json:"saved_dir" yaml:"saved_dir" mapstructure:"saved_dir" validate:"required,nefield=PapersDir"`

	// MatchThreshold is the minimum title similarity for a saved-set lookup
	// to count as a match. Zero accepts the nearest paper whatever its score.
	MatchThreshold float64 `json:"match_threshold" yaml:"match_threshold" mapstructure:"match_threshold" validate:"gte=0,lte=1"`
}

// IngestConfig holds settings for the ingestion workflow.
type IngestConfig struct {
	// DedupThreshold is the minimum title similarity for a nearest neighbour to
	// count as "already ingested". Zero treats any neighbour as a duplicate.
	DedupThreshold float64 `json:"dedup_threshold" yaml:"dedup_threshold" mapstructure:"dedup_threshold" validate:"gte=0,lte=1"`
}

// AgentConfig holds settings for the conversational agent.
type AgentConfig struct {
	// MaxSteps bounds tool calls per user turn (default 5).
	MaxSteps int `json:"max_steps" yaml:"max_steps" mapstructure:"max_steps" validate:"gte=1"`

	// RetrievalK is the number of records stuffed into retrieval QA prompts (default 4).
	RetrievalK int `json:"retrieval_k" yaml:"retrieval_k" mapstructure:"retrieval_k" validate:"gte=1"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Debug bool   `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// TracingConfig holds OpenTelemetry settings. Tracing is off unless Enabled.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Endpoint    string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool   `json:"insecure" yaml:"insecure" mapstructure:"insecure"`
	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`
}

// Config groups every setting for one paper-explorer process.
type Config struct {
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	AI      AIConfig      `json:"ai" yaml:"ai" mapstructure:"ai"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Ingest  IngestConfig  `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Agent   AgentConfig   `json:"agent" yaml:"agent" mapstructure:"agent"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}
