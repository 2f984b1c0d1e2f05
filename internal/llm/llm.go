// Package llm provides the text-generation backends used by rule synthesis.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Generator is satisfied by every backend in this package.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	Provider   string // openai, anthropic or http
	BaseURL    string
	Model      string
	APIKey     string
	MaxTokens  int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New returns the generator for cfg.Provider.
func New(cfg Config) (Generator, error) {
	hc := cfg.HTTPClient
	if hc == nil && cfg.Timeout > 0 {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	switch cfg.Provider {
	case "", "openai":
		return NewOpenAI(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			MaxRetries: 2,
			HTTPClient: hc,
		})
	case "anthropic":
		return NewAnthropic(AnthropicConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			MaxRetries: 2,
			HTTPClient: hc,
		})
	case "http":
		return &Client{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			HTTPClient: hc,
		}, nil
	}
	return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
}
