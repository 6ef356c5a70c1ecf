package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/repolens/repolens/internal/chat"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/github"
	"github.com/repolens/repolens/internal/session"
	"github.com/repolens/repolens/internal/tools"
	"github.com/repolens/repolens/internal/websearch"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	gh, err := github.NewClient(github.Config{
		Token:             cfg.GitHub.Token,
		BaseURL:           cfg.GitHub.BaseURL,
		Timeout:           cfg.GitHub.Timeout(),
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating github client: %w", err)
	}
	a.GitHub = gh

	a.SessionStore = session.New(logger)

	if err := provideTools(a); err != nil {
		return nil, err
	}

	agent, err := chat.New(chat.Config{
		Genkit:       a.Genkit,
		SessionStore: a.SessionStore,
		Logger:       logger,
		Tools:        a.Tools,
		ModelName:    cfg.FullModelName(),
		MaxTurns:     cfg.MaxTurns,
		Language:     cfg.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("creating analyst agent: %w", err)
	}
	a.Agent = agent
	a.Flow = chat.NewFlow(a.Genkit, agent)

	return a, nil
}

// provideOtelShutdown sets up OTLP tracing before Genkit initialization so
// the TracerProvider is ready when flows start. With no endpoint
// configured, tracing stays disabled and the cleanup is a no-op.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	tel := cfg.Telemetry
	if tel.Endpoint == "" {
		return func() {}
	}

	// Set OTEL env vars for Genkit's TracerProvider to pick up.
	// SAFETY: os.Setenv is not concurrent-safe, but this runs exactly once
	// during startup, before goroutines are spawned.
	if tel.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", tel.ServiceName)
	}
	if tel.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+tel.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(tel.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("creating OTLP exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("OTLP tracing enabled",
		"endpoint", tel.Endpoint,
		"service", tel.ServiceName,
		"environment", tel.Environment,
	)

	shutdown := tracing.TracerProvider().Shutdown
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideGenkit initializes Genkit with the configured model provider.
// Supports gemini (default), ollama, and openai.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	promptDir := cfg.PromptDir
	if promptDir == "" {
		promptDir = "prompts"
	}

	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}

	var g *genkit.Genkit

	switch provider {
	case "ollama":
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx,
			genkit.WithPlugins(ollamaPlugin),
			genkit.WithPromptDir(promptDir),
		)
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case "openai":
		g = genkit.Init(ctx,
			genkit.WithPlugins(&openai.OpenAI{}),
			genkit.WithPromptDir(promptDir),
		)
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized Genkit with openai provider", "model", cfg.ModelName)

	default: // "gemini"
		g = genkit.Init(ctx,
			genkit.WithPlugins(&googlegenai.GoogleAI{}),
			genkit.WithPromptDir(promptDir),
		)
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideTools creates the toolsets, registers them with Genkit, and stores
// both the concrete toolsets and the Genkit references in a.
//
// The web_search tool is registered only when a search API key is present;
// a missing key degrades the agent to repository tools without failing
// startup.
func provideTools(a *App) error {
	logger := a.Logger
	var allTools []ai.Tool

	gt, err := tools.NewGitHubToolset(a.GitHub, logger)
	if err != nil {
		return fmt.Errorf("creating github tools: %w", err)
	}
	a.GitHubTools = gt
	allTools = append(allTools, tools.RegisterGitHub(a.Genkit, gt)...)

	if a.Config.WebSearchEnabled() {
		ws, err := websearch.NewClient(websearch.Config{
			APIKey:     a.Config.Tavily.APIKey,
			BaseURL:    a.Config.Tavily.BaseURL,
			Timeout:    a.Config.Tavily.Timeout(),
			MaxResults: a.Config.Tavily.MaxResults,
		})
		if err != nil {
			return fmt.Errorf("creating web search client: %w", err)
		}
		st, err := tools.NewSearchToolset(ws, logger)
		if err != nil {
			return fmt.Errorf("creating search tools: %w", err)
		}
		a.SearchTools = st
		allTools = append(allTools, tools.RegisterSearch(a.Genkit, st)...)
	} else {
		logger.Info("no search API key configured, web_search tool disabled")
	}

	a.Tools = allTools
	return nil
}
