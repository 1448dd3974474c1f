package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bowerhall/rumbo/internal/llm"
	"github.com/bowerhall/rumbo/internal/telemetry"
	"github.com/bowerhall/rumbo/internal/tools"
)

const (
	DefaultPort          = "8000"
	DefaultCORSOrigin    = "http://localhost:5173"
	DefaultTemperature   = 0.3
	DefaultSweepSchedule = "@every 10m"
)

func Load() (*Config, error) {
	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	extractorConfig, err := loadExtractorConfig(llmConfig)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    loadServerConfig(),
		LLM:       llmConfig,
		Extractor: extractorConfig,
		Agent:     loadAgentConfig(),
		Tools:     loadToolsConfig(),
		Session:   loadSessionConfig(),
		Budget:    loadBudgetConfig(),
		Bots:      loadMultiBotConfig(),
		Telemetry: loadTelemetryConfig(),
	}, nil
}

func loadServerConfig() ServerConfig {
	port := os.Getenv("PORT")
	if port == "" {
		port = DefaultPort
	}

	origins := splitList(os.Getenv("CORS_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{DefaultCORSOrigin}
	}

	return ServerConfig{
		Port:        port,
		CORSOrigins: origins,
	}
}

func loadLLMConfig() (llm.Config, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = DetectProvider()
	}
	if !llm.IsKnownProvider(provider) {
		return llm.Config{}, fmt.Errorf("unknown LLM_PROVIDER: %s", provider)
	}

	apiKey, err := getAPIKey(provider, "LLM")
	if err != nil {
		return llm.Config{}, err
	}

	temperature := DefaultTemperature
	if t, err := strconv.ParseFloat(os.Getenv("LLM_TEMPERATURE"), 64); err == nil && t >= 0 && t <= 2 {
		temperature = t
	}

	return llm.Config{
		Provider:    provider,
		APIKey:      apiKey,
		Model:       os.Getenv("LLM_MODEL"),
		BaseURL:     os.Getenv("LLM_BASE_URL"),
		Temperature: temperature,
	}, nil
}

// loadExtractorConfig falls back to the reply model when no extractor
// provider is configured.
func loadExtractorConfig(base llm.Config) (llm.Config, error) {
	provider := os.Getenv("EXTRACTOR_PROVIDER")
	if provider == "" {
		cfg := base
		if model := os.Getenv("EXTRACTOR_MODEL"); model != "" {
			cfg.Model = model
		}
		if baseURL := os.Getenv("EXTRACTOR_BASE_URL"); baseURL != "" {
			cfg.BaseURL = baseURL
		}
		cfg.Temperature = 0
		return cfg, nil
	}
	if !llm.IsKnownProvider(provider) {
		return llm.Config{}, fmt.Errorf("unknown EXTRACTOR_PROVIDER: %s", provider)
	}

	apiKey, err := getAPIKey(provider, "EXTRACTOR")
	if err != nil {
		return llm.Config{}, err
	}

	return llm.Config{
		Provider: provider,
		APIKey:   apiKey,
		Model:    os.Getenv("EXTRACTOR_MODEL"),
		BaseURL:  os.Getenv("EXTRACTOR_BASE_URL"),
	}, nil
}

func loadAgentConfig() AgentConfig {
	return AgentConfig{
		ModelTimeout: durationEnv("LLM_TIMEOUT", 60*time.Second),
	}
}

func loadToolsConfig() tools.Config {
	cfg := tools.DefaultConfig()

	if v := os.Getenv("TOOLS_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("TOOLS_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("NOMINATIM_URL"); v != "" {
		cfg.NominatimURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("OPENWEATHER_URL"); v != "" {
		cfg.OpenWeatherURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("OVERPASS_URL"); v != "" {
		cfg.OverpassURL = v
	}
	cfg.OpenWeatherKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.Timeout = durationEnv("TOOL_TIMEOUT", cfg.Timeout)
	cfg.OverpassTimeout = durationEnv("OVERPASS_TIMEOUT", cfg.OverpassTimeout)

	return cfg
}

func loadSessionConfig() SessionConfig {
	schedule := os.Getenv("SESSION_SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	return SessionConfig{
		IdleTTL:       durationEnv("SESSION_IDLE_TTL", 0),
		SweepSchedule: schedule,
	}
}

func loadBudgetConfig() BudgetConfig {
	enabled := os.Getenv("BUDGET_ENABLED") == "true"

	dailyLimit := 100000 // default 100k tokens
	if limit, err := strconv.Atoi(os.Getenv("BUDGET_DAILY_LIMIT")); err == nil && limit > 0 {
		dailyLimit = limit
	}

	warnAt := 0.8 // default 80%
	if warn, err := strconv.ParseFloat(os.Getenv("BUDGET_WARN_AT"), 64); err == nil && warn > 0 && warn < 1 {
		warnAt = warn
	}

	return BudgetConfig{
		Enabled:    enabled,
		DailyLimit: dailyLimit,
		WarnAt:     warnAt,
	}
}

func loadMultiBotConfig() MultiBot {
	telegramToken := os.Getenv("TELEGRAM_TOKEN")
	discordToken := os.Getenv("DISCORD_TOKEN")

	return MultiBot{
		Telegram: BotInstance{
			Enabled: telegramToken != "",
			Token:   telegramToken,
		},
		Discord: BotInstance{
			Enabled: discordToken != "",
			Token:   discordToken,
		},
	}
}

func loadTelemetryConfig() telemetry.Config {
	exporter := os.Getenv("OTEL_TRACES_EXPORTER")
	if exporter == "" {
		exporter = "none"
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = telemetry.DefaultServiceName
	}

	return telemetry.Config{
		ServiceName:  serviceName,
		Exporter:     exporter,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPHeaders:  telemetry.ParseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		Insecure:     os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
	}
}

// DetectProvider picks a hosted provider from whichever API key is set,
// falling back to a local ollama.
func DetectProvider() string {
	switch {
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		return "claude"
	case os.Getenv("OPENAI_API_KEY") != "":
		return "openai"
	case os.Getenv("KIMI_API_KEY") != "":
		return "kimi"
	default:
		return llm.DefaultProvider
	}
}

// EnvKeyForProvider returns the environment variable name for a provider's API key
func EnvKeyForProvider(provider string) string {
	switch provider {
	case "claude":
		return "ANTHROPIC_API_KEY"
	case "ollama":
		return ""
	default:
		return strings.ToUpper(provider) + "_API_KEY"
	}
}

func getAPIKey(provider, prefix string) (string, error) {
	if key := os.Getenv(prefix + "_API_KEY"); key != "" {
		return key, nil
	}

	envKey := EnvKeyForProvider(provider)
	if envKey == "" {
		// Ollama doesn't need an API key
		return "ollama", nil
	}

	key := os.Getenv(envKey)
	if key == "" {
		return "", fmt.Errorf("%s not set", envKey)
	}
	return key, nil
}

// durationEnv parses a Go duration, keeping the fallback on absence or
// malformed input.
func durationEnv(name string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(name))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
