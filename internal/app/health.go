package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/repolens/repolens/internal/config"
)

// Provider probe endpoints. Any HTTP response, including 4xx, proves the
// runtime is reachable; only transport errors count as unreachable.
const (
	geminiProbeURL = "https://generativelanguage.googleapis.com/"
	openaiProbeURL = "https://api.openai.com/"
)

// RuntimePinger reports model runtime reachability for the health probe.
// It implements api.RuntimeChecker.
type RuntimePinger struct {
	url    string
	client *http.Client
}

// NewRuntimePinger builds a pinger for the configured provider.
func NewRuntimePinger(cfg *config.Config) *RuntimePinger {
	var url string
	switch cfg.Provider {
	case "ollama":
		url = strings.TrimSuffix(cfg.OllamaHost, "/") + "/"
	case "openai":
		url = openaiProbeURL
	default: // "gemini"
		url = geminiProbeURL
	}
	return &RuntimePinger{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Ping probes the runtime endpoint. Returns nil when any HTTP response
// arrives and an error when the transport fails.
func (p *RuntimePinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("model runtime unreachable: %w", err)
	}
	_ = resp.Body.Close()
	return nil
}
