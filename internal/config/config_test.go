package config

import (
	"errors"
	"strings"
	"testing"
)

// validConfig returns a Config that passes Validate.
func validConfig() *Config {
	return &Config{
		Provider:    ProviderGemini,
		ModelName:   "gemini-2.5-flash",
		Temperature: 0.3,
		MaxTurns:    6,
		OllamaHost:  "http://localhost:11434",
		GitHub: GitHubConfig{
			TimeoutMs:         10000,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Tavily: TavilyConfig{
			BaseURL:    "https://api.tavily.com",
			TimeoutMs:  15000,
			MaxResults: 5,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, ErrInvalidProvider},
		{"empty model", func(c *Config) { c.ModelName = "  " }, ErrInvalidModelName},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"zero max turns", func(c *Config) { c.MaxTurns = 0 }, ErrInvalidMaxTurns},
		{"excessive max turns", func(c *Config) { c.MaxTurns = 51 }, ErrInvalidMaxTurns},
		{"bad ollama host", func(c *Config) {
			c.Provider = ProviderOllama
			c.OllamaHost = "localhost:11434" // missing scheme
		}, ErrInvalidOllamaHost},
		{"negative github timeout", func(c *Config) { c.GitHub.TimeoutMs = -1 }, ErrInvalidTimeout},
		{"excessive github rps", func(c *Config) { c.GitHub.RequestsPerSecond = 500 }, ErrInvalidRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFullModelName(t *testing.T) {
	tests := []struct {
		provider string
		model    string
		want     string
	}{
		{ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{ProviderOllama, "llama3.3", "ollama/llama3.3"},
		{ProviderOpenAI, "gpt-4o", "openai/gpt-4o"},
		{ProviderGemini, "ollama/qwen3", "ollama/qwen3"}, // already qualified
	}

	for _, tt := range tests {
		cfg := &Config{Provider: tt.provider, ModelName: tt.model}
		if got := cfg.FullModelName(); got != tt.want {
			t.Errorf("FullModelName(%s, %s) = %q, want %q", tt.provider, tt.model, got, tt.want)
		}
	}
}

func TestWebSearchEnabled(t *testing.T) {
	cfg := validConfig()
	if cfg.WebSearchEnabled() {
		t.Error("web search should be disabled without an API key")
	}
	cfg.Tavily.APIKey = "tvly-abc123"
	if !cfg.WebSearchEnabled() {
		t.Error("web search should be enabled with an API key")
	}
	cfg.Tavily.APIKey = "   "
	if cfg.WebSearchEnabled() {
		t.Error("whitespace-only key should not enable web search")
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", maskedValue},
		{"12345678", maskedValue},
	}
	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := maskSecret("ghp_averylongsecrettoken")
	if strings.Contains(long, "averylongsecret") {
		t.Errorf("long secret not masked: %q", long)
	}
	if !strings.HasPrefix(long, "gh") || !strings.HasSuffix(long, "en") {
		t.Errorf("masked secret should keep two edge chars: %q", long)
	}
}

func TestSecretsNeverInString(t *testing.T) {
	cfg := validConfig()
	cfg.GitHub.Token = "ghp_secret_token_value_1234"
	cfg.Tavily.APIKey = "tvly-secret-key-value-5678"

	s := cfg.String()
	if strings.Contains(s, "secret_token_value") || strings.Contains(s, "secret-key-value") {
		t.Errorf("String() leaks secrets: %s", s)
	}
}
