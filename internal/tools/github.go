package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/internal/github"
)

// GitHubToolsetName is the toolset identifier constant.
const GitHubToolsetName = "github"

// githubAPI defines the repository data behavior required by GitHubToolset.
// The interface lives with the consumer so tests can substitute a fake
// without a live API.
type githubAPI interface {
	Repository(ctx context.Context, owner, repo string) (*github.RepositoryInfo, error)
	Languages(ctx context.Context, owner, repo string) (*github.LanguageBreakdown, error)
	Contributors(ctx context.Context, owner, repo string, limit int) ([]github.Contributor, error)
	Issues(ctx context.Context, owner, repo, state string, limit int) ([]github.Issue, error)
	PullRequests(ctx context.Context, owner, repo, state string, limit int) ([]github.PullRequest, error)
	Releases(ctx context.Context, owner, repo string, limit int) ([]github.Release, error)
	SearchRepositories(ctx context.Context, query, sort, order string, limit int) (*github.RepositorySearch, error)
}

// GitHubToolset provides repository analysis tools backed by the GitHub
// API. Every method returns a Result envelope: upstream failures ride
// inside the envelope so the model can explain them instead of aborting
// the turn.
type GitHubToolset struct {
	api    githubAPI
	logger *slog.Logger
}

// NewGitHubToolset creates a GitHubToolset.
func NewGitHubToolset(api githubAPI, logger *slog.Logger) (*GitHubToolset, error) {
	if api == nil {
		return nil, fmt.Errorf("github API client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &GitHubToolset{api: api, logger: logger}, nil
}

// Name returns the toolset identifier.
func (gt *GitHubToolset) Name() string {
	return GitHubToolsetName
}

// RepositoryInfo fetches the repository summary.
func (gt *GitHubToolset) RepositoryInfo(ctx context.Context, input RepositoryInput) (Result, error) {
	gt.logger.Info("get_repository_info called", "owner", input.Owner, "repo", input.Repo)

	info, err := gt.api.Repository(ctx, input.Owner, input.Repo)
	if err != nil {
		gt.logger.Warn("get_repository_info failed", "owner", input.Owner, "repo", input.Repo, "error", err)
		return errorResult(err), nil
	}
	return successResult(
		fmt.Sprintf("repository %s", info.FullName),
		map[string]any{"repository": info},
	), nil
}

// Languages fetches the repository language breakdown.
func (gt *GitHubToolset) Languages(ctx context.Context, input RepositoryInput) (Result, error) {
	gt.logger.Info("get_repository_languages called", "owner", input.Owner, "repo", input.Repo)

	breakdown, err := gt.api.Languages(ctx, input.Owner, input.Repo)
	if err != nil {
		gt.logger.Warn("get_repository_languages failed", "owner", input.Owner, "repo", input.Repo, "error", err)
		return errorResult(err), nil
	}
	return successResult(
		fmt.Sprintf("%d languages across %d bytes", len(breakdown.Languages), breakdown.TotalBytes),
		map[string]any{
			"total_bytes": breakdown.TotalBytes,
			"languages":   breakdown.Languages,
		},
	), nil
}

// Contributors fetches top repository contributors.
func (gt *GitHubToolset) Contributors(ctx context.Context, input ContributorsInput) (Result, error) {
	gt.logger.Info("get_contributors called", "owner", input.Owner, "repo", input.Repo, "limit", input.Limit)

	contributors, err := gt.api.Contributors(ctx, input.Owner, input.Repo, input.Limit)
	if err != nil {
		gt.logger.Warn("get_contributors failed", "owner", input.Owner, "repo", input.Repo, "error", err)
		return errorResult(err), nil
	}
	return successResult(
		fmt.Sprintf("%d contributors", len(contributors)),
		map[string]any{"contributors": contributors},
	), nil
}

// Issues fetches repository issues, excluding pull requests.
func (gt *GitHubToolset) Issues(ctx context.Context, input IssuesInput) (Result, error) {
	gt.logger.Info("get_issues called", "owner", input.Owner, "repo", input.Repo, "state", input.State)

	issues, err := gt.api.Issues(ctx, input.Owner, input.Repo, input.State, input.Limit)
	if err != nil {
		gt.logger.Warn("get_issues failed", "owner", input.Owner, "repo", input.Repo, "error", err)
		return errorResult(err), nil
	}
	return successResult(
		fmt.Sprintf("%d issues", len(issues)),
		map[string]any{"issues": issues},
	), nil
}

// PullRequests fetches repository pull requests.
func (gt *GitHubToolset) PullRequests(ctx context.Context, input PullRequestsInput) (Result, error) {
	gt.logger.Info("get_pull_requests called", "owner", input.Owner, "repo", input.Repo, "state", input.State)

	pulls, err := gt.api.PullRequests(ctx, input.Owner, input.Repo, input.State, input.Limit)
	if err != nil {
		gt.logger.Warn("get_pull_requests failed", "owner", input.Owner, "repo", input.Repo, "error", err)
		return errorResult(err), nil
	}
	return successResult(
		fmt.Sprintf("%d pull requests", len(pulls)),
		map[string]any{"pull_requests": pulls},
	), nil
}

// Releases fetches repository releases, newest first.
func (gt *GitHubToolset) Releases(ctx context.Context, input ReleasesInput) (Result, error) {
	gt.logger.Info("get_releases called", "owner", input.Owner, "repo", input.Repo, "limit", input.Limit)

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	releases, err := gt.api.Releases(ctx, input.Owner, input.Repo, limit)
	if err != nil {
		gt.logger.Warn("get_releases failed", "owner", input.Owner, "repo", input.Repo, "error", err)
		return errorResult(err), nil
	}
	return successResult(
		fmt.Sprintf("%d releases", len(releases)),
		map[string]any{"releases": releases},
	), nil
}

// SearchRepositories searches public repositories, by stars descending
// unless the input says otherwise.
func (gt *GitHubToolset) SearchRepositories(ctx context.Context, input SearchRepositoriesInput) (Result, error) {
	gt.logger.Info("search_repositories called", "query", input.Query, "sort", input.Sort, "limit", input.Limit)

	search, err := gt.api.SearchRepositories(ctx, input.Query, input.Sort, input.Order, input.Limit)
	if err != nil {
		gt.logger.Warn("search_repositories failed", "query", input.Query, "error", err)
		return errorResult(err), nil
	}
	return successResult(
		fmt.Sprintf("%d of %d matching repositories", len(search.Items), search.TotalCount),
		map[string]any{
			"total_count":        search.TotalCount,
			"incomplete_results": search.IncompleteResults,
			"repositories":       search.Items,
		},
	), nil
}
