package github

// RepositoryInfo is the repository summary returned to the model runtime.
type RepositoryInfo struct {
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Language      string   `json:"language"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	OpenIssues    int      `json:"open_issues"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	Size          int      `json:"size"`
	DefaultBranch string   `json:"default_branch"`
	Topics        []string `json:"topics"`
	License       string   `json:"license"`
	Homepage      string   `json:"homepage"`
	CloneURL      string   `json:"clone_url"`
	SSHURL        string   `json:"ssh_url"`
}

// Language is one entry of a repository language breakdown.
type Language struct {
	Name       string  `json:"language"`
	Bytes      int     `json:"bytes"`
	Percentage float64 `json:"percentage"`
}

// LanguageBreakdown lists a repository's languages sorted by byte count
// descending. Percentages are rounded to two decimals and sum to ~100.
type LanguageBreakdown struct {
	TotalBytes int        `json:"total_bytes"`
	Languages  []Language `json:"languages"`
}

// Contributor is one repository contributor.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	Type          string `json:"type"`
	ProfileURL    string `json:"profile_url"`
}

// Issue is one repository issue. Pull requests are excluded: the GitHub
// issues endpoint returns both, and entries carrying a pull_request link are
// skipped.
type Issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	Comments  int      `json:"comments"`
	Labels    []string `json:"labels"`
	Author    string   `json:"author"`
}

// PullRequest is one repository pull request.
type PullRequest struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	State      string `json:"state"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
	BaseBranch string `json:"base_branch"`
	HeadBranch string `json:"head_branch"`
	Author     string `json:"author"`
	Draft      bool   `json:"draft"`
}

// Release is one repository release. Body is truncated at 500 runes.
type Release struct {
	TagName     string `json:"tag_name"`
	Name        string `json:"name"`
	PublishedAt string `json:"published_at"`
	Prerelease  bool   `json:"prerelease"`
	Draft       bool   `json:"draft"`
	Body        string `json:"body"`
	URL         string `json:"html_url"`
}

// RepositorySearch is the result of a repository search.
type RepositorySearch struct {
	TotalCount        int              `json:"total_count"`
	IncompleteResults bool             `json:"incomplete_results"`
	Items             []RepositoryInfo `json:"items"`
}
