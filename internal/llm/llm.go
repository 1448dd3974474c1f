package llm

import (
	"fmt"
	"time"
)

const (
	DefaultProvider    = "ollama"
	DefaultOllamaModel = "llama3"
	defaultMaxTokens   = 1024
	maxRetries         = 3
)

// retryDelay is the base backoff between retryable failures.
var retryDelay = 2 * time.Second

// OpenAI-compatible providers and their base URLs
// To add a new provider: add entry here + set {PROVIDER}_API_KEY
var openAICompatibleProviders = map[string]string{
	"mistral":    "https://api.mistral.ai/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"together":   "https://api.together.xyz/v1",
	"deepseek":   "https://api.deepseek.com/v1",
	"fireworks":  "https://api.fireworks.ai/inference/v1",
	"perplexity": "https://api.perplexity.ai",
}

func New(cfg Config) (LLM, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	switch cfg.Provider {
	case "claude":
		return newClaude(cfg), nil
	case "openai":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
		return newOpenAICompatible("openai", cfg), nil
	case "kimi":
		if cfg.Model == "" {
			cfg.Model = "kimi-k2-0711-preview"
		}
		cfg.BaseURL = "https://api.moonshot.ai/v1"
		return newOpenAICompatible("kimi", cfg), nil
	case "ollama", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if cfg.Model == "" {
			cfg.Model = DefaultOllamaModel
		}
		if cfg.APIKey == "" {
			cfg.APIKey = "ollama"
		}

		// Ollama's OpenAI-compatible endpoint
		cfg.BaseURL = baseURL + "/v1"
		return newOpenAICompatible("ollama", cfg), nil
	default:
		baseURL, ok := openAICompatibleProviders[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = baseURL
		}
		return newOpenAICompatible(cfg.Provider, cfg), nil
	}
}

// KnownProviders returns all known provider IDs
func KnownProviders() []string {
	providers := []string{"claude", "openai", "kimi", "ollama"}
	for p := range openAICompatibleProviders {
		providers = append(providers, p)
	}
	return providers
}

// IsKnownProvider checks if a provider is recognized
func IsKnownProvider(provider string) bool {
	switch provider {
	case "claude", "openai", "kimi", "ollama":
		return true
	default:
		_, ok := openAICompatibleProviders[provider]
		return ok
	}
}

func backoff(attempt int) time.Duration {
	return retryDelay * time.Duration(1<<attempt)
}
