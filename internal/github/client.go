// Package github wraps the GitHub REST API for repository analysis.
//
// The client paces outbound calls with a token bucket, bounds every call
// with a timeout, and maps GitHub error responses onto the shared upstream
// error taxonomy so callers can distinguish bad input, missing resources,
// rate limiting, and upstream outages.
package github

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	gogithub "github.com/google/go-github/v84/github"
	"golang.org/x/time/rate"

	"github.com/repolens/repolens/internal/upstream"
)

const (
	maxPerPage       = 100
	releaseBodyLimit = 500
)

// Config holds client settings.
type Config struct {
	// Token authenticates requests. Empty means unauthenticated access
	// with GitHub's lower anonymous rate limits.
	Token string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds each API call. Zero means 10 seconds.
	Timeout time.Duration
	// RequestsPerSecond paces outbound calls. Zero disables pacing.
	RequestsPerSecond float64
	// Burst is the pacing bucket size.
	Burst int
}

// Client is a paced, timeout-bounded GitHub API client.
type Client struct {
	gh      *gogithub.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	gh := gogithub.NewClient(nil)
	if cfg.Token != "" {
		gh = gh.WithAuthToken(cfg.Token)
	}
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
			base.Path += "/"
		}
		gh.BaseURL = base
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{gh: gh, limiter: limiter, timeout: timeout}, nil
}

// prepare validates the repository path, applies pacing, and derives the
// per-call context. No network traffic happens before validation passes.
func (c *Client) prepare(ctx context.Context, owner, repo string) (context.Context, context.CancelFunc, error) {
	if err := validateRepoPath(owner, repo); err != nil {
		return nil, nil, err
	}
	return c.begin(ctx)
}

func (c *Client) begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, upstream.Unavailable(err, "github: request pacing interrupted")
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	return callCtx, cancel, nil
}

func validateRepoPath(owner, repo string) error {
	if !validName(owner) {
		return upstream.InvalidInput("invalid repository owner %q", owner)
	}
	if !validName(repo) {
		return upstream.InvalidInput("invalid repository name %q", repo)
	}
	return nil
}

func validName(s string) bool {
	if s == "" || len(s) > 100 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

func clampPerPage(n int) int {
	if n <= 0 {
		return 30
	}
	return min(n, maxPerPage)
}

// Repository fetches the summary of owner/repo.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*RepositoryInfo, error) {
	callCtx, cancel, err := c.prepare(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	defer cancel()

	r, _, err := c.gh.Repositories.Get(callCtx, owner, repo)
	if err != nil {
		return nil, mapError(err, "repository %s/%s", owner, repo)
	}
	info := repositoryInfo(r)
	return &info, nil
}

func repositoryInfo(r *gogithub.Repository) RepositoryInfo {
	return RepositoryInfo{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Language:      r.GetLanguage(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		CreatedAt:     formatTime(r.GetCreatedAt()),
		UpdatedAt:     formatTime(r.GetUpdatedAt()),
		Size:          r.GetSize(),
		DefaultBranch: r.GetDefaultBranch(),
		Topics:        r.Topics,
		License:       r.GetLicense().GetName(),
		Homepage:      r.GetHomepage(),
		CloneURL:      r.GetCloneURL(),
		SSHURL:        r.GetSSHURL(),
	}
}

// Languages fetches the language breakdown of owner/repo.
func (c *Client) Languages(ctx context.Context, owner, repo string) (*LanguageBreakdown, error) {
	callCtx, cancel, err := c.prepare(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	defer cancel()

	raw, _, err := c.gh.Repositories.ListLanguages(callCtx, owner, repo)
	if err != nil {
		return nil, mapError(err, "languages of %s/%s", owner, repo)
	}

	total := 0
	for _, b := range raw {
		total += b
	}
	langs := make([]Language, 0, len(raw))
	for name, b := range raw {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(b)/float64(total)*10000) / 100
		}
		langs = append(langs, Language{Name: name, Bytes: b, Percentage: pct})
	}
	sort.Slice(langs, func(i, j int) bool {
		if langs[i].Bytes != langs[j].Bytes {
			return langs[i].Bytes > langs[j].Bytes
		}
		return langs[i].Name < langs[j].Name
	})
	return &LanguageBreakdown{TotalBytes: total, Languages: langs}, nil
}

// Contributors fetches up to limit contributors of owner/repo, ordered by
// contribution count.
func (c *Client) Contributors(ctx context.Context, owner, repo string, limit int) ([]Contributor, error) {
	callCtx, cancel, err := c.prepare(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	defer cancel()

	opts := &gogithub.ListContributorsOptions{
		ListOptions: gogithub.ListOptions{PerPage: clampPerPage(limit)},
	}
	raw, _, err := c.gh.Repositories.ListContributors(callCtx, owner, repo, opts)
	if err != nil {
		return nil, mapError(err, "contributors of %s/%s", owner, repo)
	}

	out := make([]Contributor, 0, len(raw))
	for _, u := range raw {
		out = append(out, Contributor{
			Login:         u.GetLogin(),
			Contributions: u.GetContributions(),
			Type:          u.GetType(),
			ProfileURL:    u.GetHTMLURL(),
		})
	}
	return out, nil
}

// Issues fetches up to limit issues of owner/repo in the given state.
// Pull requests returned by the issues endpoint are skipped.
func (c *Client) Issues(ctx context.Context, owner, repo, state string, limit int) ([]Issue, error) {
	state, err := normalizeState(state)
	if err != nil {
		return nil, err
	}
	callCtx, cancel, err := c.prepare(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	defer cancel()

	opts := &gogithub.IssueListByRepoOptions{
		State:       state,
		ListOptions: gogithub.ListOptions{PerPage: clampPerPage(limit)},
	}
	raw, _, err := c.gh.Issues.ListByRepo(callCtx, owner, repo, opts)
	if err != nil {
		return nil, mapError(err, "issues of %s/%s", owner, repo)
	}

	out := make([]Issue, 0, len(raw))
	for _, is := range raw {
		if is.IsPullRequest() {
			continue
		}
		labels := make([]string, 0, len(is.Labels))
		for _, l := range is.Labels {
			labels = append(labels, l.GetName())
		}
		out = append(out, Issue{
			Number:    is.GetNumber(),
			Title:     is.GetTitle(),
			State:     is.GetState(),
			CreatedAt: formatTime(is.GetCreatedAt()),
			UpdatedAt: formatTime(is.GetUpdatedAt()),
			Comments:  is.GetComments(),
			Labels:    labels,
			Author:    is.GetUser().GetLogin(),
		})
	}
	return out, nil
}

// PullRequests fetches up to limit pull requests of owner/repo in the given
// state.
func (c *Client) PullRequests(ctx context.Context, owner, repo, state string, limit int) ([]PullRequest, error) {
	state, err := normalizeState(state)
	if err != nil {
		return nil, err
	}
	callCtx, cancel, err := c.prepare(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	defer cancel()

	opts := &gogithub.PullRequestListOptions{
		State:       state,
		ListOptions: gogithub.ListOptions{PerPage: clampPerPage(limit)},
	}
	raw, _, err := c.gh.PullRequests.List(callCtx, owner, repo, opts)
	if err != nil {
		return nil, mapError(err, "pull requests of %s/%s", owner, repo)
	}

	out := make([]PullRequest, 0, len(raw))
	for _, pr := range raw {
		out = append(out, PullRequest{
			Number:     pr.GetNumber(),
			Title:      pr.GetTitle(),
			State:      pr.GetState(),
			CreatedAt:  formatTime(pr.GetCreatedAt()),
			UpdatedAt:  formatTime(pr.GetUpdatedAt()),
			BaseBranch: pr.GetBase().GetRef(),
			HeadBranch: pr.GetHead().GetRef(),
			Author:     pr.GetUser().GetLogin(),
			Draft:      pr.GetDraft(),
		})
	}
	return out, nil
}

func normalizeState(state string) (string, error) {
	switch state {
	case "":
		return "open", nil
	case "open", "closed", "all":
		return state, nil
	default:
		return "", upstream.InvalidInput("invalid state %q, want open, closed, or all", state)
	}
}

func normalizeSearchSort(sort string) (string, error) {
	switch sort {
	case "":
		return "stars", nil
	case "stars", "forks", "updated":
		return sort, nil
	default:
		return "", upstream.InvalidInput("invalid sort %q, want stars, forks, or updated", sort)
	}
}

func normalizeSearchOrder(order string) (string, error) {
	switch order {
	case "":
		return "desc", nil
	case "asc", "desc":
		return order, nil
	default:
		return "", upstream.InvalidInput("invalid order %q, want asc or desc", order)
	}
}

// Releases fetches up to limit releases of owner/repo, newest first.
// Release bodies are truncated to keep model prompts bounded.
func (c *Client) Releases(ctx context.Context, owner, repo string, limit int) ([]Release, error) {
	callCtx, cancel, err := c.prepare(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	defer cancel()

	opts := &gogithub.ListOptions{PerPage: clampPerPage(limit)}
	raw, _, err := c.gh.Repositories.ListReleases(callCtx, owner, repo, opts)
	if err != nil {
		return nil, mapError(err, "releases of %s/%s", owner, repo)
	}

	out := make([]Release, 0, len(raw))
	for _, rel := range raw {
		out = append(out, Release{
			TagName:     rel.GetTagName(),
			Name:        rel.GetName(),
			PublishedAt: formatTime(rel.GetPublishedAt()),
			Prerelease:  rel.GetPrerelease(),
			Draft:       rel.GetDraft(),
			Body:        truncateRunes(rel.GetBody(), releaseBodyLimit),
			URL:         rel.GetHTMLURL(),
		})
	}
	return out, nil
}

// SearchRepositories searches public repositories matching query. Sort is
// one of stars (default), forks, or updated; order is desc (default) or asc.
func (c *Client) SearchRepositories(ctx context.Context, query, sort, order string, limit int) (*RepositorySearch, error) {
	if query == "" {
		return nil, upstream.InvalidInput("search query must not be empty")
	}
	sort, err := normalizeSearchSort(sort)
	if err != nil {
		return nil, err
	}
	order, err = normalizeSearchOrder(order)
	if err != nil {
		return nil, err
	}
	callCtx, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if limit <= 0 {
		limit = 10
	}
	opts := &gogithub.SearchOptions{
		Sort:        sort,
		Order:       order,
		ListOptions: gogithub.ListOptions{PerPage: min(limit, maxPerPage)},
	}
	res, _, err := c.gh.Search.Repositories(callCtx, query, opts)
	if err != nil {
		return nil, mapError(err, "search %q", query)
	}

	items := make([]RepositoryInfo, 0, len(res.Repositories))
	for _, r := range res.Repositories {
		items = append(items, repositoryInfo(r))
	}
	return &RepositorySearch{
		TotalCount:        res.GetTotal(),
		IncompleteResults: res.GetIncompleteResults(),
		Items:             items,
	}, nil
}

func formatTime(ts gogithub.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
