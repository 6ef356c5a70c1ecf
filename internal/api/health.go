package api

import (
	"context"
	"net/http"
	"time"
)

// runtimePingTimeout bounds the reachability probe per health request.
const runtimePingTimeout = 2 * time.Second

// RuntimeChecker reports whether the model runtime is reachable.
type RuntimeChecker interface {
	Ping(ctx context.Context) error
}

// health serves GET /health. Returns 200 while the model runtime answers
// probes and 503 once it stops; a nil checker always reports healthy.
func health(checker RuntimeChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), runtimePingTimeout)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  "model runtime unreachable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
