package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
)

// Input defines the request payload for the analyst flow.
type Input struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

// Output defines the response payload from the analyst flow.
type Output struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// StreamChunk is the streaming output type for the analyst flow. Each
// chunk contains partial text that can be displayed immediately.
type StreamChunk struct {
	Text string `json:"text"`
}

// FlowName is the registered name of the analyst flow in Genkit.
const FlowName = "repolens/chat"

// Flow is the type alias for the analyst's Genkit streaming flow.
type Flow = core.Flow[Input, Output, StreamChunk]

// Package-level singleton: genkit.DefineStreamingFlow panics on
// re-registration, so the flow is defined at most once per process.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the analyst flow singleton, initializing it on first
// call. Subsequent calls return the existing flow and ignore parameters.
func NewFlow(g *genkit.Genkit, agent *Agent) *Flow {
	flowOnce.Do(func() {
		flow = agent.DefineFlow(g)
	})
	return flow
}

// ResetFlowForTesting resets the flow singleton so tests can initialize
// with different configurations. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// DefineFlow defines the Genkit streaming flow for the analyst agent.
// Use NewFlow instead of calling this directly: defining the same flow
// twice panics.
//
// The flow is a thin wrapper over ExecuteStream. It exists for
// observability (DevUI tracing), typed input/output schemas, and HTTP
// exposure via genkit.Handler().
func (a *Agent) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineStreamingFlow(g, FlowName,
		func(ctx context.Context, input Input, streamCb func(context.Context, StreamChunk) error) (Output, error) {
			sessionID, err := uuid.Parse(input.SessionID)
			if err != nil {
				return Output{SessionID: input.SessionID}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
			}

			// With a nil streamCb (flow invoked via Run rather than
			// Stream) the agent runs in non-streaming mode.
			var agentCallback StreamCallback
			if streamCb != nil {
				agentCallback = func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
					if chunk == nil {
						return nil
					}
					for _, part := range chunk.Content {
						if part.Text != "" {
							if streamErr := streamCb(ctx, StreamChunk{Text: part.Text}); streamErr != nil {
								return streamErr
							}
						}
					}
					return nil
				}
			}

			resp, err := a.ExecuteStream(ctx, sessionID, input.Query, agentCallback)
			if err != nil {
				return Output{SessionID: input.SessionID}, fmt.Errorf("%w: %w", ErrExecutionFailed, err)
			}

			return Output{
				Response:  resp.FinalText,
				SessionID: input.SessionID,
			}, nil
		},
	)
}
