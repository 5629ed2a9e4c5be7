// Package llm provides the text generation backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	temperature = 0.3
	maxTokens   = 4096
)

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Generator turns a prompt into text. Implementations make exactly one
// request per call and are safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config selects and authenticates a backend.
type Config struct {
	Model           string // haiku, sonnet, gemini-flash, gemini-pro, nova-lite
	AnthropicAPIKey string
	GeminiAPIKey    string
	AWSRegion       string
}

// Models lists the accepted model names.
func Models() []string {
	return []string{"haiku", "sonnet", "gemini-flash", "gemini-pro", "nova-lite"}
}

// IsValidModel reports whether name is one of Models.
func IsValidModel(name string) bool {
	for _, m := range Models() {
		if m == name {
			return true
		}
	}
	return false
}

// New builds the backend for cfg.Model wrapped with tracing and metrics.
// The client is created once here and reused for every call.
func New(ctx context.Context, cfg Config) (Generator, error) {
	var (
		g   Generator
		err error
	)
	switch {
	case cfg.Model == "haiku" || cfg.Model == "sonnet":
		g = NewClaude(cfg.Model, cfg.AnthropicAPIKey)
	case cfg.Model == "gemini-flash" || cfg.Model == "gemini-pro":
		g, err = NewGemini(ctx, cfg.Model, cfg.GeminiAPIKey)
	case cfg.Model == "nova-lite":
		g, err = NewNova(ctx, cfg.Model, cfg.AWSRegion)
	default:
		return nil, fmt.Errorf("invalid model %q: must be one of %s", cfg.Model, strings.Join(Models(), ", "))
	}
	if err != nil {
		return nil, err
	}
	return WithTracing(g, cfg.Model), nil
}
