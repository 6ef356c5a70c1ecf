package tools

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// githubToolNames lists the GitHub tools in registration order. This is the
// single source of truth for tool names to avoid duplication.
var githubToolNames = []string{
	"get_repository_info",
	"get_repository_languages",
	"get_contributors",
	"get_issues",
	"get_pull_requests",
	"get_releases",
	"search_repositories",
}

// WebSearchToolName is registered only when a search key is configured.
const WebSearchToolName = "web_search"

// GitHubToolNames returns the names of all GitHub tools.
func GitHubToolNames() []string {
	return append([]string(nil), githubToolNames...)
}

// RegisterGitHub registers the GitHub toolset with Genkit and returns the
// tool references in registration order. Handlers are thin adapters; the
// toolset methods hold the logic and stay callable outside Genkit, which
// the MCP server relies on.
func RegisterGitHub(g *genkit.Genkit, gt *GitHubToolset) []ai.Tool {
	return []ai.Tool{
		genkit.DefineTool(g,
			"get_repository_info",
			"Get detailed information about a GitHub repository: description, stars, forks, license, topics, and timestamps.",
			WithEvents("get_repository_info", func(ctx *ai.ToolContext, input RepositoryInput) (Result, error) {
				return gt.RepositoryInfo(ctx.Context, input)
			}),
		),
		genkit.DefineTool(g,
			"get_repository_languages",
			"Get the programming language breakdown of a GitHub repository with byte counts and percentages.",
			WithEvents("get_repository_languages", func(ctx *ai.ToolContext, input RepositoryInput) (Result, error) {
				return gt.Languages(ctx.Context, input)
			}),
		),
		genkit.DefineTool(g,
			"get_contributors",
			"Get the top contributors of a GitHub repository ordered by contribution count.",
			WithEvents("get_contributors", func(ctx *ai.ToolContext, input ContributorsInput) (Result, error) {
				return gt.Contributors(ctx.Context, input)
			}),
		),
		genkit.DefineTool(g,
			"get_issues",
			"Get issues of a GitHub repository filtered by state (open, closed, all). Pull requests are excluded.",
			WithEvents("get_issues", func(ctx *ai.ToolContext, input IssuesInput) (Result, error) {
				return gt.Issues(ctx.Context, input)
			}),
		),
		genkit.DefineTool(g,
			"get_pull_requests",
			"Get pull requests of a GitHub repository filtered by state (open, closed, all).",
			WithEvents("get_pull_requests", func(ctx *ai.ToolContext, input PullRequestsInput) (Result, error) {
				return gt.PullRequests(ctx.Context, input)
			}),
		),
		genkit.DefineTool(g,
			"get_releases",
			"Get recent releases of a GitHub repository, newest first.",
			WithEvents("get_releases", func(ctx *ai.ToolContext, input ReleasesInput) (Result, error) {
				return gt.Releases(ctx.Context, input)
			}),
		),
		genkit.DefineTool(g,
			"search_repositories",
			"Search public GitHub repositories. Supports GitHub search qualifiers like language: and stars:. Results sort by stars unless sort/order say otherwise.",
			WithEvents("search_repositories", func(ctx *ai.ToolContext, input SearchRepositoriesInput) (Result, error) {
				return gt.SearchRepositories(ctx.Context, input)
			}),
		),
	}
}

// RegisterSearch registers the web_search tool with Genkit.
func RegisterSearch(g *genkit.Genkit, st *SearchToolset) []ai.Tool {
	return []ai.Tool{
		genkit.DefineTool(g,
			WebSearchToolName,
			"Search the web for current information beyond GitHub: news, tutorials, ecosystem comparisons, release announcements.",
			WithEvents(WebSearchToolName, func(ctx *ai.ToolContext, input WebSearchInput) (Result, error) {
				return st.WebSearch(ctx.Context, input)
			}),
		),
	}
}
