// Package websearch provides a small Tavily search client used to answer
// questions that repository data alone cannot, such as release news or
// ecosystem comparisons.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/repolens/repolens/internal/upstream"
)

const (
	defaultBaseURL = "https://api.tavily.com"
	maxResults     = 5
)

// Config holds client settings.
type Config struct {
	// APIKey authenticates against Tavily. Required.
	APIKey string
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds each search call. Zero means 15 seconds.
	Timeout time.Duration
	// MaxResults caps results per search. Values above 5 are clamped.
	MaxResults int
}

// Client calls the Tavily search API.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// Result is one web search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Response is the outcome of a search, including Tavily's synthesized
// answer when one is available.
type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("websearch: API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	n := cfg.MaxResults
	if n <= 0 || n > maxResults {
		n = maxResults
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		maxResults: n,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type searchResponse struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

// Search runs a web search for query and returns up to limit results.
func (c *Client) Search(ctx context.Context, query string, limit int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, upstream.InvalidInput("search query must not be empty")
	}
	if limit <= 0 || limit > c.maxResults {
		limit = c.maxResults
	}

	body, err := json.Marshal(searchRequest{
		APIKey:        c.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    limit,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("websearch: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("websearch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream.Unavailable(err, "websearch: search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, mapStatus(resp)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, upstream.Unavailable(err, "websearch: decode response")
	}
	return &Response{
		Query:   decoded.Query,
		Answer:  decoded.Answer,
		Results: decoded.Results,
	}, nil
}

func mapStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return upstream.InvalidInput("websearch: search API rejected the credentials")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return upstream.InvalidInput("websearch: search API rejected the query")
	case http.StatusTooManyRequests:
		return upstream.RateLimited(retryAfter(resp), "websearch: search API rate limited")
	default:
		return upstream.Unavailable(fmt.Errorf("status %d", resp.StatusCode), "websearch: search API error")
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
