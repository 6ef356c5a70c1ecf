package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// Store is a thread-safe in-memory session store. It is passed by reference
// into the API surface and the chat agent at construction time; there is no
// package-level singleton.
type Store struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
	logger  *slog.Logger
}

// New creates an empty Store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entries: make(map[uuid.UUID]*entry),
		logger:  logger,
	}
}

// Create creates a new session with a fresh UUID. An empty name gets a
// generated session_<8 hex> name. Names are not unique: creating twice with
// the same name yields two sessions with distinct ids.
func (s *Store) Create(_ context.Context, name string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName("session")
	}
	if len(name) > NameMaxLength {
		name = name[:NameMaxLength]
	}

	now := time.Now()
	meta := Session{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.entries[meta.ID] = newEntry(meta)
	s.mu.Unlock()

	s.logger.Debug("created session", "id", meta.ID, "name", name)
	return &meta, nil
}

// Session returns a snapshot of the session metadata.
// Returns ErrNotFound for unknown ids.
func (s *Store) Session(_ context.Context, id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return e.snapshot(), nil
}

// List returns snapshots of all sessions, most recently updated first.
func (s *Store) List(_ context.Context) ([]*Session, error) {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.entries))
	for _, e := range s.entries {
		sessions = append(sessions, e.snapshot())
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Delete removes a session and its history.
// Returns ErrNotFound for unknown ids.
func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	delete(s.entries, id)
	s.logger.Debug("deleted session", "id", id)
	return nil
}

// History returns a copy of the session's message history in append order.
// The returned slice is owned by the caller; the messages themselves are
// shared and must not be mutated.
func (s *Store) History(_ context.Context, id uuid.UUID) ([]*ai.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	msgs := make([]*ai.Message, len(e.messages))
	copy(msgs, e.messages)
	return msgs, nil
}

// AppendMessages appends messages to the session history and bumps the
// session's updated timestamp.
func (s *Store) AppendMessages(_ context.Context, id uuid.UUID, messages []*ai.Message) error {
	if len(messages) == 0 {
		return nil
	}
	for i, m := range messages {
		if m == nil {
			return fmt.Errorf("message %d is nil", i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	e.messages = append(e.messages, messages...)
	e.meta.UpdatedAt = time.Now()

	s.logger.Debug("appended messages", "session_id", id, "count", len(messages), "total", len(e.messages))
	return nil
}

// Acquire takes the session's turn slot, serializing chat turns within one
// session so messages are processed in arrival order. It blocks until the
// slot is free or ctx is done. The returned release function must be called
// exactly once.
func (s *Store) Acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}

	select {
	case e.turn <- struct{}{}:
		return func() { <-e.turn }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for session turn: %w", ctx.Err())
	}
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
