// Package tools defines the analyst's tool surface: GitHub repository
// lookups and web search, registered with Genkit and reusable over MCP.
package tools

import (
	"context"
)

// emitterKey uses an empty struct for a zero-allocation context key.
type emitterKey struct{}

// ToolEventEmitter receives tool lifecycle events. The interface carries
// only the tool name; presentation belongs to the transport layer.
//
// Usage:
//  1. The streaming handler creates an emitter bound to its SSE writer.
//  2. The handler stores it in the request context via ContextWithEmitter.
//  3. Wrapped tools retrieve it via EmitterFromContext and emit
//     start/complete/error events around execution.
type ToolEventEmitter interface {
	// OnToolStart signals that a tool has started execution.
	OnToolStart(name string)

	// OnToolComplete signals that a tool completed successfully.
	OnToolComplete(name string)

	// OnToolError signals that a tool execution failed.
	OnToolError(name string)
}

// EmitterFromContext retrieves the ToolEventEmitter from ctx. Returns nil
// when unset so non-streaming code paths emit nothing.
func EmitterFromContext(ctx context.Context) ToolEventEmitter {
	emitter, _ := ctx.Value(emitterKey{}).(ToolEventEmitter)
	return emitter
}

// ContextWithEmitter stores a ToolEventEmitter in ctx.
func ContextWithEmitter(ctx context.Context, emitter ToolEventEmitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}
