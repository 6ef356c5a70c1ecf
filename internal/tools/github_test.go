package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/github"
	"github.com/repolens/repolens/internal/log"
	"github.com/repolens/repolens/internal/upstream"
)

// fakeGitHub implements githubAPI for tests. Each field overrides one
// method; the zero value fails every call with a not-found error.
type fakeGitHub struct {
	repository func(ctx context.Context, owner, repo string) (*github.RepositoryInfo, error)
	languages  func(ctx context.Context, owner, repo string) (*github.LanguageBreakdown, error)
	issues     func(ctx context.Context, owner, repo, state string, limit int) ([]github.Issue, error)
	search     func(ctx context.Context, query, sort, order string, limit int) (*github.RepositorySearch, error)
}

func (f *fakeGitHub) Repository(ctx context.Context, owner, repo string) (*github.RepositoryInfo, error) {
	if f.repository != nil {
		return f.repository(ctx, owner, repo)
	}
	return nil, upstream.NotFound("repository %s/%s not found", owner, repo)
}

func (f *fakeGitHub) Languages(ctx context.Context, owner, repo string) (*github.LanguageBreakdown, error) {
	if f.languages != nil {
		return f.languages(ctx, owner, repo)
	}
	return nil, upstream.NotFound("repository %s/%s not found", owner, repo)
}

func (f *fakeGitHub) Contributors(ctx context.Context, owner, repo string, limit int) ([]github.Contributor, error) {
	return nil, upstream.NotFound("repository %s/%s not found", owner, repo)
}

func (f *fakeGitHub) Issues(ctx context.Context, owner, repo, state string, limit int) ([]github.Issue, error) {
	if f.issues != nil {
		return f.issues(ctx, owner, repo, state, limit)
	}
	return nil, upstream.NotFound("repository %s/%s not found", owner, repo)
}

func (f *fakeGitHub) PullRequests(ctx context.Context, owner, repo, state string, limit int) ([]github.PullRequest, error) {
	return nil, upstream.NotFound("repository %s/%s not found", owner, repo)
}

func (f *fakeGitHub) Releases(ctx context.Context, owner, repo string, limit int) ([]github.Release, error) {
	return nil, upstream.NotFound("repository %s/%s not found", owner, repo)
}

func (f *fakeGitHub) SearchRepositories(ctx context.Context, query, sort, order string, limit int) (*github.RepositorySearch, error) {
	if f.search != nil {
		return f.search(ctx, query, sort, order, limit)
	}
	return nil, upstream.Unavailable(nil, "search unavailable")
}

func newGitHubToolset(t *testing.T, api githubAPI) *GitHubToolset {
	t.Helper()
	gt, err := NewGitHubToolset(api, log.NewNop())
	require.NoError(t, err)
	return gt
}

func TestNewGitHubToolsetRequiresDependencies(t *testing.T) {
	_, err := NewGitHubToolset(nil, log.NewNop())
	require.Error(t, err)

	_, err = NewGitHubToolset(&fakeGitHub{}, nil)
	require.Error(t, err)
}

func TestRepositoryInfoSuccess(t *testing.T) {
	gt := newGitHubToolset(t, &fakeGitHub{
		repository: func(ctx context.Context, owner, repo string) (*github.RepositoryInfo, error) {
			return &github.RepositoryInfo{FullName: owner + "/" + repo, Stars: 42}, nil
		},
	})

	result, err := gt.RepositoryInfo(context.Background(), RepositoryInput{Owner: "golang", Repo: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	require.Contains(t, result.Data, "repository")
	info := result.Data["repository"].(*github.RepositoryInfo)
	assert.Equal(t, "golang/go", info.FullName)
}

func TestRepositoryInfoNotFoundStaysInEnvelope(t *testing.T) {
	gt := newGitHubToolset(t, &fakeGitHub{})

	result, err := gt.RepositoryInfo(context.Background(), RepositoryInput{Owner: "nobody", Repo: "nothing"})
	require.NoError(t, err, "upstream failures must not surface as Go errors")
	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, "not_found", result.Error.Code)
	assert.Contains(t, result.Error.Message, "nobody/nothing")
}

func TestRepositoryInfoRateLimitedCarriesRetryAfter(t *testing.T) {
	gt := newGitHubToolset(t, &fakeGitHub{
		repository: func(ctx context.Context, owner, repo string) (*github.RepositoryInfo, error) {
			return nil, upstream.RateLimited(42*time.Second, "slow down")
		},
	})

	result, err := gt.RepositoryInfo(context.Background(), RepositoryInput{Owner: "golang", Repo: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, "rate_limited", result.Error.Code)
	assert.Equal(t, 42, result.Error.RetryAfterSeconds)
}

func TestLanguagesSuccess(t *testing.T) {
	gt := newGitHubToolset(t, &fakeGitHub{
		languages: func(ctx context.Context, owner, repo string) (*github.LanguageBreakdown, error) {
			return &github.LanguageBreakdown{
				TotalBytes: 100,
				Languages:  []github.Language{{Name: "Go", Bytes: 100, Percentage: 100}},
			}, nil
		},
	})

	result, err := gt.Languages(context.Background(), RepositoryInput{Owner: "golang", Repo: "go"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 100, result.Data["total_bytes"])
}

func TestIssuesPassesStateThrough(t *testing.T) {
	var gotState string
	gt := newGitHubToolset(t, &fakeGitHub{
		issues: func(ctx context.Context, owner, repo, state string, limit int) ([]github.Issue, error) {
			gotState = state
			return []github.Issue{{Number: 1, Title: "bug"}}, nil
		},
	})

	result, err := gt.Issues(context.Background(), IssuesInput{Owner: "golang", Repo: "go", State: "closed"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "closed", gotState)
}

func TestSearchRepositoriesUnavailable(t *testing.T) {
	gt := newGitHubToolset(t, &fakeGitHub{})

	result, err := gt.SearchRepositories(context.Background(), SearchRepositoriesInput{Query: "cli"})
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, "upstream_unavailable", result.Error.Code)
}

func TestErrorResultUnknownErrorMapsToUnavailable(t *testing.T) {
	result := errorResult(assert.AnError)
	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, "upstream_unavailable", result.Error.Code)
}
