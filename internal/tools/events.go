package tools

import (
	"github.com/firebase/genkit/go/ai"
)

// WithEvents wraps a typed tool handler to emit lifecycle events. The
// wrapper reads the emitter from the request context, emits OnToolStart
// before execution, and OnToolComplete or OnToolError after. With no
// emitter in context the handler runs unchanged.
//
// A Result carrying StatusError counts as a tool error even though the Go
// error is nil, so streaming clients see failed calls too.
func WithEvents[In any](name string, fn func(*ai.ToolContext, In) (Result, error)) func(*ai.ToolContext, In) (Result, error) {
	return func(ctx *ai.ToolContext, input In) (Result, error) {
		emitter := EmitterFromContext(ctx.Context)
		if emitter != nil {
			emitter.OnToolStart(name)
		}

		result, err := fn(ctx, input)

		if emitter != nil {
			if err != nil || result.Status == StatusError {
				emitter.OnToolError(name)
			} else {
				emitter.OnToolComplete(name)
			}
		}
		return result, err
	}
}
