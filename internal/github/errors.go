package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gogithub "github.com/google/go-github/v84/github"

	"github.com/repolens/repolens/internal/upstream"
)

// mapError translates go-github errors onto the upstream taxonomy.
func mapError(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)

	var rateErr *gogithub.RateLimitError
	if errors.As(err, &rateErr) {
		return upstream.RateLimited(time.Until(rateErr.Rate.Reset.Time), "github: rate limited fetching %s", what)
	}
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		var after time.Duration
		if abuseErr.RetryAfter != nil {
			after = *abuseErr.RetryAfter
		}
		return upstream.RateLimited(after, "github: secondary rate limit fetching %s", what)
	}

	var respErr *gogithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return upstream.NotFound("github: %s not found", what)
		case http.StatusUnprocessableEntity:
			return upstream.InvalidInput("github: rejected request for %s: %s", what, respErr.Message)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return upstream.Unavailable(err, "github: timed out fetching %s", what)
	}
	return upstream.Unavailable(err, "github: fetching %s failed", what)
}
