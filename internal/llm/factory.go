package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/calscrape/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "", "none":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config, taking proxies from
// the HTTP section
func ConfigFromModel(modelConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Provider:         modelConfig.Provider,
		Model:            modelConfig.Model,
		AttractionsModel: modelConfig.AttractionsModel,
		APIKey:           modelConfig.APIKey,
		BaseURL:          modelConfig.BaseURL,
		Timeout:          modelConfig.Timeout,
		MaxTokens:        modelConfig.MaxTokens,
		Temperature:      modelConfig.Temperature,
		HTTPProxy:        httpConfig.HTTPProxy,
		HTTPSProxy:       httpConfig.HTTPSProxy,
		NoProxy:          httpConfig.NoProxy,
	}
}

// ApplyEnv fills the API key and base URL from the provider's conventional
// environment variables when the config leaves them empty
func ApplyEnv(config Config) Config {
	switch strings.ToLower(config.Provider) {
	case "openai":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if config.BaseURL == "" {
			config.BaseURL = os.Getenv("OPENAI_BASE_URL")
		}
	case "anthropic", "claude":
		if config.APIKey == "" {
			config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if config.BaseURL == "" {
			config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	return config
}
