// Package formula_gpt drafts formula explanations by calling an
// OpenAI-compatible chat-completions endpoint with a strict JSON schema.
// The draft it returns is raw model output; grounding it against the LaTeX
// source is the alignment engine's job.
package formula_gpt

import (
	"time"

	"github.com/eli5y/eli5y/internal/config"
	"github.com/eli5y/eli5y/pkg/errors"
)

// RetryConfig holds retry settings for upstream calls.
type RetryConfig struct {
	MaxRetries        int           `json:"max_retries"`
	InitialBackoff    time.Duration `json:"initial_backoff"`
	MaxBackoff        time.Duration `json:"max_backoff"`
	BackoffMultiplier float64       `json:"backoff_multiplier"`
}

// ModelConfig holds configuration for the drafting model.
type ModelConfig struct {
	BaseURL     string        `json:"base_url"`
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	Timeout     time.Duration `json:"timeout"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Retry       RetryConfig   `json:"retry"`
}

// NewModelConfig creates a configuration with defaults.
func NewModelConfig() *ModelConfig {
	return &ModelConfig{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Timeout:     60 * time.Second,
		MaxTokens:   2048,
		Temperature: 0.3,
		Retry: RetryConfig{
			MaxRetries:        3,
			InitialBackoff:    500 * time.Millisecond,
			MaxBackoff:        8 * time.Second,
			BackoffMultiplier: 2.0,
		},
	}
}

// FromAppConfig maps the application-level LLM section onto a ModelConfig.
func FromAppConfig(c config.LLMConfig) *ModelConfig {
	mc := NewModelConfig()
	if c.BaseURL != "" {
		mc.BaseURL = c.BaseURL
	}
	mc.APIKey = c.APIKey
	if c.Model != "" {
		mc.Model = c.Model
	}
	if c.Timeout > 0 {
		mc.Timeout = c.Timeout
	}
	if c.MaxTokens > 0 {
		mc.MaxTokens = c.MaxTokens
	}
	mc.Temperature = c.Temperature
	if c.MaxRetries > 0 {
		mc.Retry.MaxRetries = c.MaxRetries
	}
	if c.RetryBackoff > 0 {
		mc.Retry.InitialBackoff = c.RetryBackoff
	}
	if c.RetryMaxDelay > 0 {
		mc.Retry.MaxBackoff = c.RetryMaxDelay
	}
	return mc
}

// Validate checks if the configuration is usable.
func (c *ModelConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New(errors.ErrCodeValidation, "formula_gpt: base url is required")
	}
	if c.Model == "" {
		return errors.New(errors.ErrCodeValidation, "formula_gpt: model name is required")
	}
	if c.Temperature < 0 || c.Temperature > 2.0 {
		return errors.New(errors.ErrCodeValidation, "formula_gpt: temperature must be between 0 and 2.0")
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "formula_gpt: max_retries must not be negative")
	}
	return nil
}
