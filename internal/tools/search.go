package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repolens/repolens/internal/websearch"
)

// SearchToolsetName is the toolset identifier constant.
const SearchToolsetName = "search"

// searcher defines the web search behavior required by SearchToolset.
type searcher interface {
	Search(ctx context.Context, query string, limit int) (*websearch.Response, error)
}

// SearchToolset provides the web_search tool. It is only registered when a
// search API key is configured; without one the agent runs with repository
// tools alone.
type SearchToolset struct {
	client searcher
	logger *slog.Logger
}

// NewSearchToolset creates a SearchToolset.
func NewSearchToolset(client searcher, logger *slog.Logger) (*SearchToolset, error) {
	if client == nil {
		return nil, fmt.Errorf("search client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &SearchToolset{client: client, logger: logger}, nil
}

// Name returns the toolset identifier.
func (st *SearchToolset) Name() string {
	return SearchToolsetName
}

// WebSearch runs a web search.
func (st *SearchToolset) WebSearch(ctx context.Context, input WebSearchInput) (Result, error) {
	st.logger.Info("web_search called", "query", input.Query, "limit", input.Limit)

	resp, err := st.client.Search(ctx, input.Query, input.Limit)
	if err != nil {
		st.logger.Warn("web_search failed", "query", input.Query, "error", err)
		return errorResult(err), nil
	}
	return successResult(
		fmt.Sprintf("%d results for %q", len(resp.Results), resp.Query),
		map[string]any{
			"answer":  resp.Answer,
			"results": resp.Results,
		},
	), nil
}
