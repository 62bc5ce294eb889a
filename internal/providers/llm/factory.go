package llm

import (
	"strings"
)

// Config selects and parameterises an adapter. Credentials are not part of it:
// they arrive per request through the Factory.
type Config struct {
	// Provider is one of gemini, gemini-http, openai, anthropic, mock.
	Provider string
	BaseURL  string
}

// DefaultModel returns the model used by provider when the caller names none.
func DefaultModel(provider string) string {
	switch normalizeProvider(provider) {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-3-5-sonnet-latest"
	case "mock":
		return "mock"
	default:
		return "gemini-2.5-flash"
	}
}

// NewFactory returns a Factory for cfg.Provider. Unknown providers fall back to Gemini.
func NewFactory(cfg Config) Factory {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	switch normalizeProvider(cfg.Provider) {
	case "gemini-http":
		return func(key string) Client {
			return &GeminiHTTPClient{APIKey: key, BaseURL: base}
		}
	case "openai":
		return func(key string) Client {
			return &OpenAIClient{APIKey: key, BaseURL: base}
		}
	case "anthropic":
		return func(key string) Client {
			return &AnthropicClient{APIKey: key, URL: base}
		}
	case "mock":
		return func(string) Client { return &MockClient{} }
	default:
		return func(key string) Client {
			return &GeminiClient{APIKey: key, Endpoint: base}
		}
	}
}

func normalizeProvider(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" || p == "google" {
		return "gemini"
	}
	return p
}
