package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/config"
)

func TestRuntimePingerReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Even an auth error proves reachability
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewRuntimePinger(&config.Config{Provider: "ollama", OllamaHost: srv.URL})
	assert.NoError(t, p.Ping(context.Background()))
}

func TestRuntimePingerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately closed, connection refused

	p := NewRuntimePinger(&config.Config{Provider: "ollama", OllamaHost: srv.URL})
	require.Error(t, p.Ping(context.Background()))
}

func TestRuntimePingerRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := NewRuntimePinger(&config.Config{Provider: "ollama", OllamaHost: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Ping(ctx))
}

func TestRuntimePingerProviderEndpoints(t *testing.T) {
	assert.Equal(t, geminiProbeURL, NewRuntimePinger(&config.Config{Provider: "gemini"}).url)
	assert.Equal(t, openaiProbeURL, NewRuntimePinger(&config.Config{Provider: "openai"}).url)
	assert.Equal(t, geminiProbeURL, NewRuntimePinger(&config.Config{}).url)
}
