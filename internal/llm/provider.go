package llm

import (
	"context"
)

// Provider defines the interface for extraction service backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the model's text reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Ping checks that the provider is configured and reachable
	Ping(ctx context.Context) error
}

// CompletionRequest contains one extraction prompt
type CompletionRequest struct {
	// Prompt is the full user prompt including the page excerpt
	Prompt string

	// System overrides the default system instruction
	System string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling; extraction wants it low
	Temperature float32
}

// CompletionResponse contains the model reply
type CompletionResponse struct {
	// Text is the raw reply, possibly wrapped in code fences
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model is the default model (provider-specific)
	Model string

	// AttractionsModel is used for attraction pages, which are larger and
	// denser than calendar listings
	AttractionsModel string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for every request
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Model:       "",
		Timeout:     60,
		MaxTokens:   4000,
		Temperature: 0.1,
	}
}

// systemPrompt frames every extraction request
const systemPrompt = "You extract structured calendar data from web pages. Reply with JSON only, exactly in the requested shape, without commentary."

func (c Config) maxTokens(req CompletionRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 4000
}

func (c Config) temperature(req CompletionRequest) float32 {
	if req.Temperature > 0 {
		return req.Temperature
	}
	return c.Temperature
}

func (c Config) system(req CompletionRequest) string {
	if req.System != "" {
		return req.System
	}
	return systemPrompt
}
