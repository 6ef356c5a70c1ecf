// Package app provides application initialization and dependency wiring.
//
// App is the container that connects configuration, Genkit, the GitHub and
// web search clients, the session store, and the analyst agent. Every
// entry point (HTTP server, REPL, MCP server) builds on the same Setup.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/repolens/repolens/internal/chat"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/github"
	"github.com/repolens/repolens/internal/session"
	"github.com/repolens/repolens/internal/tools"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Core services
	Genkit       *genkit.Genkit
	GitHub       *github.Client
	SessionStore *session.Store

	// Toolsets (concrete, reused by the MCP server)
	GitHubTools *tools.GitHubToolset
	SearchTools *tools.SearchToolset // nil when no search key is configured
	Tools       []ai.Tool            // Genkit-registered references

	// Agent
	Agent *chat.Agent
	Flow  *chat.Flow

	otelCleanup func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	a.logger().Info("shutting down application")
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
