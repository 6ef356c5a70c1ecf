package tools

// RepositoryInput identifies a repository for tools that read one.
type RepositoryInput struct {
	Owner string `json:"owner" jsonschema_description:"The repository owner (user or organization)"`
	Repo  string `json:"repo" jsonschema_description:"The repository name"`
}

// ContributorsInput defines input for the get_contributors tool.
type ContributorsInput struct {
	Owner string `json:"owner" jsonschema_description:"The repository owner (user or organization)"`
	Repo  string `json:"repo" jsonschema_description:"The repository name"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum contributors to return (1-100, default: 30)"`
}

// IssuesInput defines input for the get_issues tool.
type IssuesInput struct {
	Owner string `json:"owner" jsonschema_description:"The repository owner (user or organization)"`
	Repo  string `json:"repo" jsonschema_description:"The repository name"`
	State string `json:"state,omitempty" jsonschema_description:"Issue state filter: open, closed, or all (default: open)"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum issues to return (1-100, default: 30)"`
}

// PullRequestsInput defines input for the get_pull_requests tool.
type PullRequestsInput struct {
	Owner string `json:"owner" jsonschema_description:"The repository owner (user or organization)"`
	Repo  string `json:"repo" jsonschema_description:"The repository name"`
	State string `json:"state,omitempty" jsonschema_description:"Pull request state filter: open, closed, or all (default: open)"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum pull requests to return (1-100, default: 30)"`
}

// ReleasesInput defines input for the get_releases tool.
type ReleasesInput struct {
	Owner string `json:"owner" jsonschema_description:"The repository owner (user or organization)"`
	Repo  string `json:"repo" jsonschema_description:"The repository name"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum releases to return (1-100, default: 10)"`
}

// SearchRepositoriesInput defines input for the search_repositories tool.
type SearchRepositoriesInput struct {
	Query string `json:"query" jsonschema_description:"Search query, GitHub qualifiers allowed (e.g. 'web framework language:go stars:>1000')"`
	Sort  string `json:"sort,omitempty" jsonschema_description:"Sort criteria: stars (default), forks, or updated"`
	Order string `json:"order,omitempty" jsonschema_description:"Sort order: desc (default) or asc"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum repositories to return (1-100, default: 10)"`
}

// WebSearchInput defines input for the web_search tool.
type WebSearchInput struct {
	Query string `json:"query" jsonschema_description:"The web search query"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum results to return (1-5, default: 5)"`
}
