// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-explorer/internal/apperr"
	"github.com/pdiddy/paper-explorer/internal/llm"
	"github.com/pdiddy/paper-explorer/internal/secrets"
	"github.com/pdiddy/paper-explorer/pkg/types"
)

// setDefaults registers every configuration key with its default so that
// environment variables are visible to Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.query", "artificial intelligence")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.max_retries", 5)
	v.SetDefault("search.timeout", 60*time.Second)
	v.SetDefault("search.user_agent", "paper-explorer/"+version)
	v.SetDefault("search.source", "arxiv")
	v.SetDefault("search.semantic_scholar_api_key", "")

	v.SetDefault("ai.provider", string(types.ProviderOpenAI))
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.embedding_model", "text-embedding-3-small")
	v.SetDefault("ai.openai_api_key", "")
	v.SetDefault("ai.anthropic_api_key", "")
	v.SetDefault("ai.openai_base_url", "")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.user_agent", "paper-explorer/"+version)
	v.SetDefault("ai.breaker_failures", 5)
	v.SetDefault("ai.breaker_cooldown", 30*time.Second)

	v.SetDefault("store.papers_dir", "./vectorstore/papers_db")
	v.SetDefault("store.saved_dir", "./vectorstore/saved_db")
	v.SetDefault("store.match_threshold", 0.0)

	v.SetDefault("ingest.dedup_threshold", 0.92)

	v.SetDefault("agent.max_steps", 5)
	v.SetDefault("agent.retrieval_k", 4)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.debug", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	v.SetDefault("tracing.service_name", "paper-explorer")
}

// bindEnv wires the environment: PAPER_EXPLORER_<SECTION>_<KEY> for every
// key, plus the provider key variables without prefix.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix("PAPER_EXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("ai.openai_api_key", "PAPER_EXPLORER_AI_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return err
	}
	return v.BindEnv("ai.anthropic_api_key", "PAPER_EXPLORER_AI_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
}

// loadEnvFile reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func loadEnvFile(path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return 0, fmt.Errorf("reading env file %s: %w", path, err)
	}

	n := 0
	for _, key := range ev.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, ev.GetString(key)); err != nil {
			return n, fmt.Errorf("setting %s: %w", name, err)
		}
		n++
	}
	return n, nil
}

// applySecrets makes key files the fallback for the provider keys.
func applySecrets(v *viper.Viper, s secrets.Set) {
	if key := s.Get(secrets.OpenAIKey); key != "" {
		v.SetDefault("ai.openai_api_key", key)
	}
	if key := s.Get(secrets.AnthropicKey); key != "" {
		v.SetDefault("ai.anthropic_api_key", key)
	}
	if key := s.Get(secrets.SemanticScholarKey); key != "" {
		v.SetDefault("search.semantic_scholar_api_key", key)
	}
}

// loadConfig unmarshals and validates the configuration. Commands that do
// not call the hosted services pass needAI false so missing keys are not
// an error.
func loadConfig(v *viper.Viper, needAI bool) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, apperr.Input("config", "decoding configuration: %v", err)
	}

	cfg.AI.Provider = types.Provider(strings.ToLower(strings.TrimSpace(string(cfg.AI.Provider))))
	if cfg.AI.Model == "" {
		if cfg.AI.Provider == types.ProviderAnthropic {
			cfg.AI.Model = llm.DefaultClaudeModel
		} else {
			cfg.AI.Model = llm.DefaultOpenAIModel
		}
	}

	var err error
	if needAI {
		err = validate.Struct(cfg)
	} else {
		err = validate.StructExcept(cfg, "AI.OpenAIAPIKey", "AI.AnthropicAPIKey")
	}
	if err != nil {
		return types.Config{}, formatValidationError(err)
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// formatValidationError turns validator output into one input error naming
// each offending key as it appears in the config file.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Input("config", "%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return apperr.Input("config", "%s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	key := e.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}

	switch e.Tag() {
	case "required":
		if hint, ok := keyHints[key]; ok {
			return fmt.Sprintf("%s is required (%s)", key, hint)
		}
		return fmt.Sprintf("%s is required", key)
	case "required_if":
		if hint, ok := keyHints[key]; ok {
			return fmt.Sprintf("%s is required when %s (%s)", key, strings.Replace(e.Param(), " ", " is ", 1), hint)
		}
		return fmt.Sprintf("%s is required when %s", key, strings.Replace(e.Param(), " ", " is ", 1))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", key, e.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", key, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a URL", key)
	default:
		return fmt.Sprintf("%s is invalid (%s)", key, e.Tag())
	}
}

var keyHints = map[string]string{
	"ai.openai_api_key":    "set OPENAI_API_KEY, add it to .env, or write .secrets/" + secrets.OpenAIKey,
	"ai.anthropic_api_key": "set ANTHROPIC_API_KEY, add it to .env, or write .secrets/" + secrets.AnthropicKey,
}
