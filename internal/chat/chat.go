// Package chat implements the repository analyst agent. The agent owns no
// reasoning of its own: it loads session history, renders the analyst
// prompt, and hands the conversation to the model runtime, which calls
// back into the registered tools as it sees fit.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/repolens/repolens/internal/session"
)

const (
	// AnalystPromptName is the name of the Dotprompt file for the agent.
	// This corresponds to prompts/analyst.prompt.
	AnalystPromptName = "analyst"

	// fallbackResponseMessage is returned when the model produces an
	// empty response with no tool requests.
	fallbackResponseMessage = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

// Sentinel errors for agent operations.
var (
	// ErrInvalidSession indicates the session ID is invalid or unknown.
	ErrInvalidSession = errors.New("invalid session")

	// ErrExecutionFailed indicates agent execution failed.
	ErrExecutionFailed = errors.New("execution failed")
)

// Response represents the complete result of an agent execution.
type Response struct {
	FinalText    string            // Model's final text output
	ToolRequests []*ai.ToolRequest // Tool requests made during execution
}

// StreamCallback is called for each chunk of a streaming response.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Config contains all required parameters for the analyst agent.
type Config struct {
	Genkit       *genkit.Genkit
	SessionStore *session.Store
	Logger       *slog.Logger
	Tools        []ai.Tool // Pre-registered tools from tools.RegisterXxx()

	// Configuration values
	ModelName string // Provider-qualified model name (e.g. "googleai/gemini-2.5-flash")
	MaxTurns  int    // Maximum agentic loop turns
	Language  string // Response language preference

	// Resilience configuration
	RetryConfig          RetryConfig          // Model retry settings (zero value uses defaults)
	CircuitBreakerConfig CircuitBreakerConfig // Circuit breaker settings (zero value uses defaults)
	RateLimiter          *rate.Limiter        // Optional proactive rate limiting (nil = default)
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.SessionStore == nil {
		return errors.New("session store is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	return nil
}

// Agent is the conversational repository analyst.
//
// Agent is stateless apart from its session store reference. All
// configuration values are captured immutably at construction time so
// concurrent executions need no locking.
type Agent struct {
	// Immutable configuration (captured at construction)
	modelName      string
	languagePrompt string
	maxTurns       int

	// Resilience (captured at construction)
	retryConfig    RetryConfig
	circuitBreaker *CircuitBreaker
	rateLimiter    *rate.Limiter

	// Dependencies (read-only after construction)
	g         *genkit.Genkit
	sessions  *session.Store
	logger    *slog.Logger
	tools     []ai.Tool
	toolRefs  []ai.ToolRef // Cached at construction (ai.Tool implements ai.ToolRef)
	toolNames string       // Cached as comma-separated for logging
	prompt    ai.Prompt    // Cached Dotprompt instance
}

// New creates a new Agent with required configuration.
//
// The model is configured in prompts/analyst.prompt; Config.ModelName
// overrides it to support multiple providers.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 6
	}

	// Resolve language once at construction
	languagePrompt := cfg.Language
	if languagePrompt == "" || languagePrompt == "auto" {
		languagePrompt = "the same language as the user's input (auto-detect)"
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	cbConfig := cfg.CircuitBreakerConfig
	if cbConfig.FailureThreshold == 0 {
		cbConfig = DefaultCircuitBreakerConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	// Cache tool refs and names at construction
	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	a := &Agent{
		modelName:      cfg.ModelName,
		languagePrompt: languagePrompt,
		maxTurns:       maxTurns,

		retryConfig:    retryConfig,
		circuitBreaker: NewCircuitBreaker(cbConfig),
		rateLimiter:    rl,

		g:         cfg.Genkit,
		sessions:  cfg.SessionStore,
		logger:    cfg.Logger,
		tools:     cfg.Tools,
		toolRefs:  toolRefs,
		toolNames: strings.Join(names, ", "),
	}

	a.prompt = genkit.LookupPrompt(a.g, AnalystPromptName)
	if a.prompt == nil {
		return nil, fmt.Errorf("dotprompt %q not found: ensure prompts directory is configured correctly", AnalystPromptName)
	}

	a.logger.Info("analyst agent initialized",
		"totalTools", len(a.tools),
		"maxTurns", a.maxTurns,
	)
	return a, nil
}

// Execute runs the agent with the given input (non-streaming).
// This is a convenience wrapper around ExecuteStream with nil callback.
func (a *Agent) Execute(ctx context.Context, sessionID uuid.UUID, input string) (*Response, error) {
	return a.ExecuteStream(ctx, sessionID, input, nil)
}

// ExecuteStream runs the agent with optional streaming output. Messages
// to one session are processed in arrival order: the session's turn slot
// is held for the whole duration of the exchange.
func (a *Agent) ExecuteStream(ctx context.Context, sessionID uuid.UUID, input string, callback StreamCallback) (*Response, error) {
	a.logger.Debug("executing analyst agent",
		"session_id", sessionID,
		"streaming", callback != nil)

	release, err := a.sessions.Acquire(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSession, sessionID)
		}
		return nil, fmt.Errorf("acquiring session turn: %w", err)
	}
	defer release()

	history, err := a.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("getting history: %w", err)
	}

	resp, err := a.generateResponse(ctx, input, history, callback)
	if err != nil {
		return nil, err
	}

	responseText := resp.Text()

	// Only apply the fallback when truly empty: empty text alongside tool
	// requests is valid agentic behavior.
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response with no tool requests",
			"session_id", sessionID)
		responseText = fallbackResponseMessage
	}

	newMessages := []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart(input)),
		ai.NewModelMessage(ai.NewTextPart(responseText)),
	}
	if err := a.sessions.AppendMessages(ctx, sessionID, newMessages); err != nil {
		a.logger.Warn("appending messages to history", "error", err) // best-effort
	}

	return &Response{
		FinalText:    responseText,
		ToolRequests: resp.ToolRequests(),
	}, nil
}

// generateResponse is the unified generation logic for both streaming and
// non-streaming modes.
func (a *Agent) generateResponse(ctx context.Context, input string, history []*ai.Message, callback StreamCallback) (*ai.ModelResponse, error) {
	// Deep copy history before handing it to Genkit: renderMessages()
	// modifies msg.Content in-place, so concurrent executions sharing
	// message objects would race.
	messages := deepCopyMessages(history)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	promptInput := map[string]any{
		"language":     a.languagePrompt,
		"current_date": time.Now().Format("2006-01-02"),
	}

	opts := []ai.PromptExecuteOption{
		ai.WithInput(promptInput),
		ai.WithMessagesFn(func(_ context.Context, _ any) ([]*ai.Message, error) {
			return messages, nil
		}),
		ai.WithTools(a.toolRefs...),
		ai.WithMaxTurns(a.maxTurns),
	}
	if a.modelName != "" {
		opts = append(opts, ai.WithModelName(a.modelName))
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(callback))
	}

	a.logger.Debug("executing prompt",
		"toolCount", len(a.tools),
		"tools", a.toolNames,
		"maxTurns", a.maxTurns,
		"queryLength", len(input),
	)

	if err := a.circuitBreaker.Allow(); err != nil {
		a.logger.Warn("circuit breaker is open, rejecting request",
			"state", a.circuitBreaker.State().String())
		return nil, fmt.Errorf("service unavailable: %w", err)
	}

	resp, err := a.executeWithRetry(ctx, opts)
	if err != nil {
		a.circuitBreaker.Failure()
		return nil, err
	}

	a.circuitBreaker.Success()
	return resp, nil
}

// deepCopyMessages creates independent copies of Message and Part structs.
//
// WORKAROUND: Genkit's renderMessages() modifies msg.Content in-place,
// causing data races in concurrent executions. Tested against
// github.com/firebase/genkit/go v1.4.0; re-check with the race detector
// before removing on an upgrade.
func deepCopyMessages(msgs []*ai.Message) []*ai.Message {
	if msgs == nil {
		return nil
	}
	copied := make([]*ai.Message, len(msgs))
	for i, msg := range msgs {
		parts := make([]*ai.Part, len(msg.Content))
		for j, part := range msg.Content {
			parts[j] = deepCopyPart(part)
		}
		copied[i] = &ai.Message{
			Role:     msg.Role,
			Content:  parts,
			Metadata: shallowCopyMap(msg.Metadata),
		}
	}
	return copied
}

// deepCopyPart copies an ai.Part. ToolRequest.Input and ToolResponse.Output
// are copied by reference: renderMessages() only mutates the Content slice,
// not tool data.
func deepCopyPart(p *ai.Part) *ai.Part {
	if p == nil {
		return nil
	}
	cp := &ai.Part{
		Kind:        p.Kind,
		ContentType: p.ContentType,
		Text:        p.Text,
		Custom:      shallowCopyMap(p.Custom),
		Metadata:    shallowCopyMap(p.Metadata),
	}
	if p.ToolRequest != nil {
		cp.ToolRequest = &ai.ToolRequest{
			Input: p.ToolRequest.Input,
			Name:  p.ToolRequest.Name,
			Ref:   p.ToolRequest.Ref,
		}
	}
	if p.ToolResponse != nil {
		cp.ToolResponse = &ai.ToolResponse{
			Name:   p.ToolResponse.Name,
			Output: p.ToolResponse.Output,
			Ref:    p.ToolResponse.Ref,
		}
	}
	if p.Resource != nil {
		cp.Resource = &ai.ResourcePart{Uri: p.Resource.Uri}
	}
	return cp
}

// shallowCopyMap copies map keys and values but not nested structures.
func shallowCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
