package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/firebase/genkit/go/ai"
	"github.com/repolens/repolens/internal/app"
	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/log"
	"github.com/repolens/repolens/internal/session"
)

const chatSessionPrefix = "cli_session"

// runChat starts the interactive terminal chat loop.
func runChat(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	sess, err := a.SessionStore.Create(ctx, session.DefaultName(chatSessionPrefix))
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	fmt.Printf("RepoLens v%s - GitHub repository analyst\n", Version)
	fmt.Println("Type /help for commands, Ctrl+D to exit.")
	fmt.Printf("Session: %s\n\n", sess.ID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			exit, cmdErr := handleChatCommand(ctx, input, a, &sess)
			if cmdErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
			}
			if exit {
				break
			}
			continue
		}

		var streamed bool
		cb := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			if chunk == nil {
				return nil
			}
			for _, part := range chunk.Content {
				if part.Text == "" {
					continue
				}
				streamed = true
				fmt.Print(part.Text)
			}
			return nil
		}

		resp, err := a.Agent.ExecuteStream(ctx, sess.ID, input, cb)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		// Fallback text never goes through the stream callback.
		if !streamed {
			fmt.Print(resp.FinalText)
		}
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// handleChatCommand processes slash commands. Returns true when the loop
// should exit.
func handleChatCommand(ctx context.Context, input string, a *app.App, sess **session.Session) (bool, error) {
	switch strings.Fields(input)[0] {
	case "/exit", "/quit":
		fmt.Println("Goodbye!")
		return true, nil
	case "/new":
		created, err := a.SessionStore.Create(ctx, session.DefaultName(chatSessionPrefix))
		if err != nil {
			return false, fmt.Errorf("creating session: %w", err)
		}
		*sess = created
		fmt.Printf("Started new session: %s\n", created.ID)
		return false, nil
	case "/session":
		current, err := a.SessionStore.Session(ctx, (*sess).ID)
		if err != nil {
			return false, fmt.Errorf("looking up session: %w", err)
		}
		fmt.Printf("Session: %s (%s), %d messages\n", current.Name, current.ID, current.MessageCount)
		return false, nil
	case "/version":
		runVersion()
		return false, nil
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /new       Start a fresh session")
		fmt.Println("  /session   Show the current session")
		fmt.Println("  /version   Show version")
		fmt.Println("  /exit      Exit RepoLens")
		return false, nil
	default:
		return false, fmt.Errorf("unknown command: %s", input)
	}
}
