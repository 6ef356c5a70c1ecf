package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/internal/upstream"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c, &calls
}

func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	})
}

func TestRepository(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/golang/go", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"name": "go",
			"full_name": "golang/go",
			"description": "The Go programming language",
			"language": "Go",
			"stargazers_count": 120000,
			"forks_count": 17000,
			"open_issues_count": 9000,
			"created_at": "2014-08-19T04:33:40Z",
			"updated_at": "2026-08-01T00:00:00Z",
			"size": 400000,
			"default_branch": "master",
			"topics": ["go", "language"],
			"license": {"name": "BSD 3-Clause"},
			"homepage": "https://go.dev",
			"clone_url": "https://github.com/golang/go.git",
			"ssh_url": "git@github.com:golang/go.git"
		}`)
	}))

	info, err := c.Repository(context.Background(), "golang", "go")
	require.NoError(t, err)
	assert.Equal(t, "golang/go", info.FullName)
	assert.Equal(t, "Go", info.Language)
	assert.Equal(t, 120000, info.Stars)
	assert.Equal(t, "2014-08-19T04:33:40Z", info.CreatedAt)
	assert.Equal(t, []string{"go", "language"}, info.Topics)
	assert.Equal(t, "BSD 3-Clause", info.License)
}

func TestRepositoryNotFound(t *testing.T) {
	c, _ := newTestClient(t, jsonHandler(http.StatusNotFound, `{"message": "Not Found"}`))

	_, err := c.Repository(context.Background(), "nobody", "nothing")
	require.Error(t, err)
	kind, ok := upstream.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, upstream.KindNotFound, kind)
}

func TestRepositoryRateLimited(t *testing.T) {
	reset := time.Now().Add(90 * time.Second).Unix()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprint(reset))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
	}))

	_, err := c.Repository(context.Background(), "golang", "go")
	require.Error(t, err)
	kind, ok := upstream.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, upstream.KindRateLimited, kind)
	assert.Greater(t, upstream.RetryAfterOf(err), 30*time.Second)
}

func TestRepositoryUpstreamError(t *testing.T) {
	c, _ := newTestClient(t, jsonHandler(http.StatusBadGateway, `{"message": "bad gateway"}`))

	_, err := c.Repository(context.Background(), "golang", "go")
	require.Error(t, err)
	kind, ok := upstream.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, upstream.KindUnavailable, kind)
}

func TestRepositoryInvalidOwnerSkipsNetwork(t *testing.T) {
	c, calls := newTestClient(t, jsonHandler(http.StatusOK, `{}`))

	_, err := c.Repository(context.Background(), "bad owner!", "repo")
	require.Error(t, err)
	kind, ok := upstream.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, upstream.KindInvalidInput, kind)
	assert.Zero(t, calls.Load())

	_, err = c.Repository(context.Background(), "owner", "../etc")
	require.Error(t, err)
	kind, _ = upstream.KindOf(err)
	assert.Equal(t, upstream.KindInvalidInput, kind)
	assert.Zero(t, calls.Load())
}

func TestLanguages(t *testing.T) {
	c, _ := newTestClient(t, jsonHandler(http.StatusOK, `{"Go": 7500, "Shell": 1500, "HTML": 1000}`))

	bd, err := c.Languages(context.Background(), "golang", "go")
	require.NoError(t, err)
	assert.Equal(t, 10000, bd.TotalBytes)
	require.Len(t, bd.Languages, 3)
	assert.Equal(t, "Go", bd.Languages[0].Name)
	assert.Equal(t, 75.0, bd.Languages[0].Percentage)

	sum := 0.0
	for _, l := range bd.Languages {
		sum += l.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.05)
}

func TestLanguagesEmpty(t *testing.T) {
	c, _ := newTestClient(t, jsonHandler(http.StatusOK, `{}`))

	bd, err := c.Languages(context.Background(), "golang", "go")
	require.NoError(t, err)
	assert.Zero(t, bd.TotalBytes)
	assert.Empty(t, bd.Languages)
}

func TestContributors(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/golang/go/contributors", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"login": "gopher", "contributions": 4200, "type": "User", "html_url": "https://github.com/gopher"},
			{"login": "robot", "contributions": 900, "type": "Bot", "html_url": "https://github.com/robot"}
		]`)
	}))

	got, err := c.Contributors(context.Background(), "golang", "go", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "gopher", got[0].Login)
	assert.Equal(t, 4200, got[0].Contributions)
	assert.Equal(t, "Bot", got[1].Type)
}

func TestContributorsPerPageClamped(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))

	_, err := c.Contributors(context.Background(), "golang", "go", 5000)
	require.NoError(t, err)
}

func TestIssuesSkipsPullRequests(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"number": 1, "title": "real issue", "state": "open",
			 "comments": 3, "labels": [{"name": "bug"}], "user": {"login": "alice"}},
			{"number": 2, "title": "a PR in disguise", "state": "open",
			 "pull_request": {"url": "https://api.github.com/repos/golang/go/pulls/2"}}
		]`)
	}))

	got, err := c.Issues(context.Background(), "golang", "go", "", 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Number)
	assert.Equal(t, []string{"bug"}, got[0].Labels)
	assert.Equal(t, "alice", got[0].Author)
}

func TestIssuesInvalidState(t *testing.T) {
	c, calls := newTestClient(t, jsonHandler(http.StatusOK, `[]`))

	_, err := c.Issues(context.Background(), "golang", "go", "stale", 30)
	require.Error(t, err)
	kind, _ := upstream.KindOf(err)
	assert.Equal(t, upstream.KindInvalidInput, kind)
	assert.Zero(t, calls.Load())
}

func TestPullRequests(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/golang/go/pulls", r.URL.Path)
		assert.Equal(t, "closed", r.URL.Query().Get("state"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"number": 7, "title": "speed up parser", "state": "closed", "draft": false,
			 "base": {"ref": "master"}, "head": {"ref": "parser-fast"}, "user": {"login": "bob"}}
		]`)
	}))

	got, err := c.PullRequests(context.Background(), "golang", "go", "closed", 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "master", got[0].BaseBranch)
	assert.Equal(t, "parser-fast", got[0].HeadBranch)
	assert.Equal(t, "bob", got[0].Author)
}

func TestReleasesTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 600)
	c, _ := newTestClient(t, jsonHandler(http.StatusOK, fmt.Sprintf(`[
		{"tag_name": "v1.2.0", "name": "v1.2.0", "prerelease": false, "draft": false,
		 "body": %q, "html_url": "https://github.com/golang/go/releases/v1.2.0"}
	]`, long)))

	got, err := c.Releases(context.Background(), "golang", "go", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 503, len([]rune(got[0].Body)))
	assert.True(t, strings.HasSuffix(got[0].Body, "..."))
}

func TestSearchRepositories(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Equal(t, "web framework language:go", r.URL.Query().Get("q"))
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"total_count": 2, "incomplete_results": false,
			"items": [
				{"full_name": "gin-gonic/gin", "stargazers_count": 80000},
				{"full_name": "labstack/echo", "stargazers_count": 30000}
			]
		}`)
	}))

	got, err := c.SearchRepositories(context.Background(), "web framework language:go", "", "", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalCount)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "gin-gonic/gin", got.Items[0].FullName)
}

func TestSearchRepositoriesEmptyQuery(t *testing.T) {
	c, calls := newTestClient(t, jsonHandler(http.StatusOK, `{}`))

	_, err := c.SearchRepositories(context.Background(), "", "", "", 10)
	require.Error(t, err)
	kind, _ := upstream.KindOf(err)
	assert.Equal(t, upstream.KindInvalidInput, kind)
	assert.Zero(t, calls.Load())
}

func TestSearchRepositoriesSortOrder(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "asc", r.URL.Query().Get("order"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count": 0, "incomplete_results": false, "items": []}`)
	}))

	_, err := c.SearchRepositories(context.Background(), "cli", "updated", "asc", 5)
	require.NoError(t, err)
}

func TestSearchRepositoriesInvalidSort(t *testing.T) {
	c, calls := newTestClient(t, jsonHandler(http.StatusOK, `{}`))

	_, err := c.SearchRepositories(context.Background(), "cli", "help-wanted", "", 5)
	require.Error(t, err)
	kind, _ := upstream.KindOf(err)
	assert.Equal(t, upstream.KindInvalidInput, kind)
	assert.Zero(t, calls.Load())
}
