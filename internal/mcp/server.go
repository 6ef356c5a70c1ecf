// Package mcp exposes the analyst's tools over the Model Context
// Protocol, so MCP-capable clients (IDEs, desktop assistants) can call
// the same GitHub lookups the HTTP agent uses.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/repolens/repolens/internal/tools"
)

// Server wraps the MCP SDK server around the analyst toolsets.
type Server struct {
	mcpServer *mcp.Server
	github    *tools.GitHubToolset
	search    *tools.SearchToolset // nil disables web_search
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
	GitHub  *tools.GitHubToolset
	Search  *tools.SearchToolset // optional
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.GitHub == nil {
		return nil, fmt.Errorf("github toolset is required")
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		github: cfg.GitHub,
		search: cfg.Search,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return s, nil
}

// Run starts the MCP server on the given transport. Blocks until the
// transport closes or ctx is canceled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() error {
	if err := addTool(s.mcpServer,
		"get_repository_info",
		"Get detailed information about a GitHub repository: description, stars, forks, license, topics, and timestamps.",
		s.github.RepositoryInfo,
	); err != nil {
		return err
	}
	if err := addTool(s.mcpServer,
		"get_repository_languages",
		"Get the programming language breakdown of a GitHub repository with byte counts and percentages.",
		s.github.Languages,
	); err != nil {
		return err
	}
	if err := addTool(s.mcpServer,
		"get_contributors",
		"Get the top contributors of a GitHub repository ordered by contribution count.",
		s.github.Contributors,
	); err != nil {
		return err
	}
	if err := addTool(s.mcpServer,
		"get_issues",
		"Get issues of a GitHub repository filtered by state (open, closed, all). Pull requests are excluded.",
		s.github.Issues,
	); err != nil {
		return err
	}
	if err := addTool(s.mcpServer,
		"get_pull_requests",
		"Get pull requests of a GitHub repository filtered by state (open, closed, all).",
		s.github.PullRequests,
	); err != nil {
		return err
	}
	if err := addTool(s.mcpServer,
		"get_releases",
		"Get recent releases of a GitHub repository, newest first.",
		s.github.Releases,
	); err != nil {
		return err
	}
	if err := addTool(s.mcpServer,
		"search_repositories",
		"Search public GitHub repositories. Supports GitHub search qualifiers like language: and stars:.",
		s.github.SearchRepositories,
	); err != nil {
		return err
	}

	if s.search != nil {
		if err := addTool(s.mcpServer,
			"web_search",
			"Search the web for current information beyond GitHub.",
			s.search.WebSearch,
		); err != nil {
			return err
		}
	}
	return nil
}

// addTool registers one toolset method. The MCP response is built inline:
// a Result with StatusError becomes an IsError text result, success
// becomes the JSON-encoded data payload.
func addTool[In any](srv *mcp.Server, name, description string, fn func(context.Context, In) (tools.Result, error)) error {
	inputSchema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("creating input schema for %s: %w", name, err)
	}

	tool := &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}

	mcp.AddTool(srv, tool, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		result, err := fn(ctx, in)
		if err != nil {
			return nil, nil, fmt.Errorf("system error: %w", err)
		}

		if result.Status == tools.StatusError {
			text := "tool call failed"
			if result.Error != nil {
				text = fmt.Sprintf("Error [%s]: %s", result.Error.Code, result.Error.Message)
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text}},
				IsError: true,
			}, nil, nil
		}

		payload, err := json.Marshal(result.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding result: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil, nil
	})
	return nil
}
