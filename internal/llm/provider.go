// Package llm abstracts the text-completion capability behind a Provider
// interface with OpenAI, Anthropic and Ollama backends. Providers return
// opaque text; callers are responsible for defensive parsing.
package llm

import "context"

// Provider defines the interface for text-completion backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete generates a completion for the request.
	Complete(ctx context.Context, req Request) (string, error)

	// IsAvailable checks if the provider is properly configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// Request is a single completion request.
type Request struct {
	// System is the system prompt (may be empty).
	System string

	// Prompt is the user message.
	Prompt string

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens limits the response length; 0 uses the provider default.
	MaxTokens int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama".
	Provider string

	// Model name (provider-specific).
	Model string

	// APIKey for OpenAI/Anthropic.
	APIKey string

	// BaseURL for custom endpoints (self-hosted inference, Ollama).
	BaseURL string

	// Timeout for API requests, in seconds.
	Timeout int

	// MaxTokens is the default response length limit.
	MaxTokens int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   60,
		MaxTokens: 10_000,
	}
}
