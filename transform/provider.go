package transform

import (
	"context"
	"fmt"

	"redraft/config"
)

// Request is one transformation call. Built-in actions carry the fixed
// tone/context/audience constants; custom prompts set Custom and rely
// entirely on the expanded text.
type Request struct {
	Text     string `json:"text"`
	Tone     string `json:"tone,omitempty"`
	Context  string `json:"context,omitempty"`
	Audience string `json:"audience,omitempty"`
	Custom   bool   `json:"custom"`
}

// TokenSource supplies the current bearer token, or "" when none is held.
type TokenSource interface {
	CurrentToken() string
}

// Provider defines the interface for remote text transformation
type Provider interface {
	Name() string
	Transform(ctx context.Context, req Request) (string, error)
}

// NewProvider creates a transformation provider based on configuration
func NewProvider(cfg config.APIConfig, tokens TokenSource) (Provider, error) {
	switch cfg.Provider {
	case "backend":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("base_url is required for the backend provider")
		}
		return NewBackendProvider(cfg.BaseURL, tokens), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai_api_key is required for the OpenAI provider")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
