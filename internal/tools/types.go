package tools

import (
	"math"

	"github.com/repolens/repolens/internal/upstream"
)

// Status indicates whether a tool call succeeded.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Error is a structured failure returned to the model. The model reads the
// code and message and explains the problem to the user instead of halting
// the conversation.
type Error struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

// Result is the uniform envelope every tool returns. Tools never return a
// Go error for upstream failures: the failure travels inside the Result so
// the model can degrade gracefully.
type Result struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *Error         `json:"error,omitempty"`
}

func successResult(message string, data map[string]any) Result {
	return Result{Status: StatusSuccess, Message: message, Data: data}
}

// errorResult maps an upstream error onto the envelope. Errors outside the
// taxonomy count as upstream outages.
func errorResult(err error) Result {
	code := upstream.KindUnavailable.String()
	retryAfter := 0
	if kind, ok := upstream.KindOf(err); ok {
		code = kind.String()
		if kind == upstream.KindRateLimited {
			secs := upstream.RetryAfterOf(err).Seconds()
			retryAfter = int(math.Ceil(secs))
		}
	}
	return Result{
		Status:  StatusError,
		Message: "tool call failed",
		Error: &Error{
			Code:              code,
			Message:           err.Error(),
			RetryAfterSeconds: retryAfter,
		},
	}
}
