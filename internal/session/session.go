// Package session provides the in-memory conversation session store.
//
// Sessions live for the process lifetime. There is no expiry and no
// persistence. Ids are UUIDs and unique within the process; names are
// labels, not keys, so creating two sessions with the same name yields two
// distinct sessions.
package session

import (
	"errors"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
)

// ErrNotFound indicates the session id does not exist in the store.
var ErrNotFound = errors.New("session not found")

// NameMaxLength bounds session names. Longer names are truncated on create.
const NameMaxLength = 100

// Session is a snapshot of one conversation session's metadata.
// Message history is accessed separately via Store.History.
type Session struct {
	ID           uuid.UUID `json:"session_id"`
	Name         string    `json:"session_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// entry is the store's internal mutable record for one session.
type entry struct {
	meta     Session
	messages []*ai.Message
	turn     chan struct{} // capacity 1, held while a chat turn is processed
}

// newEntry builds an entry with an available turn slot.
func newEntry(meta Session) *entry {
	e := &entry{meta: meta, turn: make(chan struct{}, 1)}
	return e
}

// snapshot returns a copy of the session metadata with a current message
// count. Callers must hold the store lock.
func (e *entry) snapshot() *Session {
	s := e.meta
	s.MessageCount = len(e.messages)
	return &s
}

// DefaultName generates a session name in the form session_<8 hex>, matching
// the ids handed out for auto-created API sessions (api_session_<8 hex>).
func DefaultName(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}
