package api

import (
	"context"

	"github.com/repolens/repolens/internal/tools"
)

// toolEventContext binds an SSE-backed emitter into the request context so
// wrapped tools report their lifecycle to the streaming client.
func toolEventContext(ctx context.Context, e tools.ToolEventEmitter) context.Context {
	return tools.ContextWithEmitter(ctx, e)
}
