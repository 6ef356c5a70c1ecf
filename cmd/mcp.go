package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	mcpSdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/github"
	"github.com/repolens/repolens/internal/log"
	"github.com/repolens/repolens/internal/mcp"
	"github.com/repolens/repolens/internal/tools"
	"github.com/repolens/repolens/internal/websearch"
)

// runMCP initializes and starts the MCP server on stdio transport.
//
// The MCP server exposes the tools directly and never talks to a model
// runtime, so it skips Genkit initialization entirely.
func runMCP(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting MCP server", "version", Version)

	gh, err := github.NewClient(github.Config{
		Token:             cfg.GitHub.Token,
		BaseURL:           cfg.GitHub.BaseURL,
		Timeout:           cfg.GitHub.Timeout(),
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
	})
	if err != nil {
		return fmt.Errorf("creating GitHub client: %w", err)
	}
	githubTools, err := tools.NewGitHubToolset(gh, logger)
	if err != nil {
		return fmt.Errorf("creating GitHub toolset: %w", err)
	}

	var searchTools *tools.SearchToolset
	if cfg.WebSearchEnabled() {
		ws, wsErr := websearch.NewClient(websearch.Config{
			APIKey:     cfg.Tavily.APIKey,
			BaseURL:    cfg.Tavily.BaseURL,
			Timeout:    cfg.Tavily.Timeout(),
			MaxResults: cfg.Tavily.MaxResults,
		})
		if wsErr != nil {
			return fmt.Errorf("creating web search client: %w", wsErr)
		}
		searchTools, err = tools.NewSearchToolset(ws, logger)
		if err != nil {
			return fmt.Errorf("creating search toolset: %w", err)
		}
	} else {
		logger.Info("web_search tool disabled", "reason", "no search API key configured")
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Name:    "repolens",
		Version: Version,
		GitHub:  githubTools,
		Search:  searchTools,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	logger.Info("MCP server ready", "name", "repolens", "version", Version, "transport", "stdio")

	if err := mcpServer.Run(ctx, &mcpSdk.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	logger.Info("MCP server shut down gracefully")
	return nil
}
