// Package cmd provides the CLI commands for RepoLens.
//
// Commands:
//   - serve: HTTP API server with SSE streaming
//   - chat: interactive terminal chat
//   - mcp: Model Context Protocol server for IDE integration
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"fmt"
	"os"

	"github.com/repolens/repolens/internal/log"
)

// Execute is the main entry point for the RepoLens CLI.
func Execute() error {
	logger := log.FromEnv()

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "chat":
		return runChat(logger)
	case "mcp":
		return runMCP(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("RepoLens - Conversational GitHub repository analyst")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  repolens serve [addr]  Start HTTP API server (default: 127.0.0.1:8000)")
	fmt.Println("  repolens chat          Start interactive chat mode")
	fmt.Println("  repolens mcp           Start MCP server (for Claude Desktop/Cursor)")
	fmt.Println("  repolens --version     Show version information")
	fmt.Println("  repolens --help        Show this help")
	fmt.Println()
	fmt.Println("Chat Commands (in interactive mode):")
	fmt.Println("  /new               Start a fresh session")
	fmt.Println("  /session           Show the current session")
	fmt.Println("  /exit, /quit       Exit RepoLens")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Gemini API key (default provider)")
	fmt.Println("  GITHUB_TOKEN       Optional: raises GitHub API rate limits")
	fmt.Println("  TAVILY_API_KEY     Optional: enables the web_search tool")
	fmt.Println("  DEBUG              Optional: enable debug logging")
	fmt.Println()
	fmt.Println("Learn more: https://github.com/repolens/repolens")
}
