// Package config provides application configuration with multi-source
// priority.
//
// Sources, highest to lowest:
//  1. Environment variables
//  2. Config file (~/.repolens/config.yaml, or ./config.yaml)
//  3. Defaults
//
// Secrets (GitHub token, search API key) are never logged: MarshalJSON and
// String mask them. Validation is fail-fast at load time.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidProvider indicates the model provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTurns indicates the agentic loop bound is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidOllamaHost indicates the Ollama host URL is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidTimeout indicates an outbound call timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidRateLimit indicates a client pacing value is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// Model provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding a secret
// field, update MarshalJSON (or the nested struct's).
type Config struct {
	// Model runtime
	Provider    string  `mapstructure:"provider" json:"provider"`     // "gemini" (default), "ollama", "openai"
	ModelName   string  `mapstructure:"model_name" json:"model_name"` // e.g. "gemini-2.5-flash", "llama3.3", "gpt-4o"
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	Language    string  `mapstructure:"language" json:"language"`
	PromptDir   string  `mapstructure:"prompt_dir" json:"prompt_dir"`
	MaxTurns    int     `mapstructure:"max_turns" json:"max_turns"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// External API clients (see tools.go)
	GitHub GitHubConfig `mapstructure:"github" json:"github"`
	Tavily TavilyConfig `mapstructure:"tavily" json:"tavily"`

	// Trace export (see tools.go)
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry"`

	// HTTP server
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For behind a reverse proxy
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`   // per-IP burst for the API rate limiter (0 = default)
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".repolens")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is not an error, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.3)
	viper.SetDefault("language", "auto")
	viper.SetDefault("max_turns", 6)

	viper.SetDefault("ollama_host", "http://localhost:11434")

	viper.SetDefault("github.timeout_ms", 10000)
	viper.SetDefault("github.requests_per_second", 5)
	viper.SetDefault("github.burst", 10)

	viper.SetDefault("tavily.base_url", "https://api.tavily.com")
	viper.SetDefault("tavily.timeout_ms", 15000)
	viper.SetDefault("tavily.max_results", 5)

	viper.SetDefault("telemetry.service_name", "repolens")
	viper.SetDefault("telemetry.environment", "dev")

	viper.SetDefault("cors_origins", []string{})
	viper.SetDefault("trust_proxy", false)
}

// bindEnvVariables binds environment variables explicitly. Secrets come only
// from the environment, never from the config file search path in CI images.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("github.token", "GITHUB_TOKEN")
	mustBind("tavily.api_key", "TAVILY_API_KEY")

	mustBind("provider", "REPOLENS_PROVIDER")
	mustBind("model_name", "REPOLENS_MODEL_NAME")
	mustBind("ollama_host", "REPOLENS_OLLAMA_HOST")
	mustBind("language", "REPOLENS_LANGUAGE")

	mustBind("cors_origins", "REPOLENS_CORS_ORIGINS")
	mustBind("trust_proxy", "REPOLENS_TRUST_PROXY")
	mustBind("rate_burst", "REPOLENS_RATE_BURST")

	mustBind("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	// NOTE: GEMINI_API_KEY and OPENAI_API_KEY are read directly by the
	// Genkit provider plugins, not via viper.
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of eight bytes
// or fewer are fully masked; longer ones keep two characters on each end for
// debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
// Masked fields: GitHub.Token, Tavily.APIKey.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.GitHub.Token = maskSecret(a.GitHub.Token)
	a.Tavily.APIKey = maskSecret(a.Tavily.APIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
// A ModelName already containing "/" is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

// WebSearchEnabled reports whether the web_search tool should be registered.
// A missing search API key disables the tool without failing startup.
func (c *Config) WebSearchEnabled() bool {
	return strings.TrimSpace(c.Tavily.APIKey) != ""
}

// String implements Stringer via MarshalJSON so secrets never leak through
// accidental printing.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
