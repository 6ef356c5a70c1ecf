package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validProviders is the closed set of supported model providers.
var validProviders = map[string]bool{
	ProviderGemini: true,
	ProviderOllama: true,
	ProviderOpenAI: true,
}

// Validate checks the configuration and fails fast with a sentinel error on
// the first violation.
func (c *Config) Validate() error {
	if !validProviders[c.Provider] {
		return fmt.Errorf("%w: %q (supported: gemini, ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be 0-2)", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTurns < 1 || c.MaxTurns > 50 {
		return fmt.Errorf("%w: %d (must be 1-50)", ErrInvalidMaxTurns, c.MaxTurns)
	}

	if c.Provider == ProviderOllama {
		if err := validateHTTPURL(c.OllamaHost); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOllamaHost, err)
		}
	}

	if c.GitHub.TimeoutMs < 0 || c.GitHub.TimeoutMs > 120000 {
		return fmt.Errorf("%w: github.timeout_ms %d (must be 0-120000)", ErrInvalidTimeout, c.GitHub.TimeoutMs)
	}
	if c.Tavily.TimeoutMs < 0 || c.Tavily.TimeoutMs > 120000 {
		return fmt.Errorf("%w: tavily.timeout_ms %d (must be 0-120000)", ErrInvalidTimeout, c.Tavily.TimeoutMs)
	}

	if c.GitHub.RequestsPerSecond < 0 || c.GitHub.RequestsPerSecond > 100 {
		return fmt.Errorf("%w: github.requests_per_second %v (must be 0-100)", ErrInvalidRateLimit, c.GitHub.RequestsPerSecond)
	}
	if c.GitHub.Burst < 0 || c.GitHub.Burst > 1000 {
		return fmt.Errorf("%w: github.burst %d (must be 0-1000)", ErrInvalidRateLimit, c.GitHub.Burst)
	}

	if c.GitHub.BaseURL != "" {
		if err := validateHTTPURL(c.GitHub.BaseURL); err != nil {
			return fmt.Errorf("invalid github.base_url: %w", err)
		}
	}

	return nil
}

// validateHTTPURL checks that s parses as an absolute http(s) URL.
func validateHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: host is required", s)
	}
	return nil
}
