package config

import (
	"time"
)

// GitHubConfig holds the GitHub REST client configuration.
type GitHubConfig struct {
	// Token is the optional API token. Unauthenticated requests work but are
	// limited to 60 requests per hour by GitHub.
	Token string `mapstructure:"token" json:"token"` // SENSITIVE: masked in Config.MarshalJSON

	// BaseURL overrides the API endpoint. Used by tests; empty means the
	// public API.
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// TimeoutMs bounds every outbound GitHub call (default: 10000).
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`

	// RequestsPerSecond and Burst pace outbound calls client-side so one
	// busy session cannot burn the whole API quota.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second"`
	Burst             int     `mapstructure:"burst" json:"burst"`
}

// Timeout returns the configured call timeout as a duration.
func (g GitHubConfig) Timeout() time.Duration {
	if g.TimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// TavilyConfig holds the web-search client configuration.
type TavilyConfig struct {
	// APIKey enables the web_search tool. Empty disables it without failing
	// startup.
	APIKey string `mapstructure:"api_key" json:"api_key"` // SENSITIVE: masked in Config.MarshalJSON

	// BaseURL is the search API endpoint (default: https://api.tavily.com).
	BaseURL string `mapstructure:"base_url" json:"base_url"`

	// TimeoutMs bounds every search call (default: 15000).
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`

	// MaxResults caps results per search (hard cap 5).
	MaxResults int `mapstructure:"max_results" json:"max_results"`
}

// Timeout returns the configured call timeout as a duration.
func (t TavilyConfig) Timeout() time.Duration {
	if t.TimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(t.TimeoutMs) * time.Millisecond
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	// Endpoint is the OTLP HTTP collector address (host:port). Empty
	// disables trace export.
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}
