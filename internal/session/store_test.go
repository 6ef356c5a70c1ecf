package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/repolens/repolens/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore() *Store {
	return New(log.NewNop())
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	created, err := store.Create(ctx, "analysis")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "analysis", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Session(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 0, got.MessageCount)
}

func TestCreateDefaultName(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	created, err := store.Create(ctx, "  ")
	require.NoError(t, err)
	assert.Regexp(t, `^session_[0-9a-f]{8}$`, created.Name)
}

func TestDuplicateNamesGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	first, err := store.Create(ctx, "same-name")
	require.NoError(t, err)
	second, err := store.Create(ctx, "same-name")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, store.Count())
}

func TestSessionNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, err := store.Session(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.History(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendAndHistoryOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	sess, err := store.Create(ctx, "conversation")
	require.NoError(t, err)

	err = store.AppendMessages(ctx, sess.ID, []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("first")),
		ai.NewModelMessage(ai.NewTextPart("second")),
	})
	require.NoError(t, err)
	err = store.AppendMessages(ctx, sess.ID, []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("third")),
	})
	require.NoError(t, err)

	msgs, err := store.History(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content[0].Text)
	assert.Equal(t, "second", msgs[1].Content[0].Text)
	assert.Equal(t, "third", msgs[2].Content[0].Text)

	got, err := store.Session(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MessageCount)
}

func TestAppendRejectsNilMessage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	sess, err := store.Create(ctx, "")
	require.NoError(t, err)

	err = store.AppendMessages(ctx, sess.ID, []*ai.Message{nil})
	assert.Error(t, err)
}

func TestHistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	sess, err := store.Create(ctx, "")
	require.NoError(t, err)
	require.NoError(t, store.AppendMessages(ctx, sess.ID, []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("original")),
	}))

	msgs, err := store.History(ctx, sess.ID)
	require.NoError(t, err)
	msgs[0] = ai.NewUserMessage(ai.NewTextPart("mutated"))

	again, err := store.History(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Content[0].Text)
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	older, err := store.Create(ctx, "older")
	require.NoError(t, err)
	newer, err := store.Create(ctx, "newer")
	require.NoError(t, err)

	// Touch the older session so it becomes the most recently updated.
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.AppendMessages(ctx, older.ID, []*ai.Message{
		ai.NewUserMessage(ai.NewTextPart("hi")),
	}))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, older.ID, sessions[0].ID)
	assert.Equal(t, newer.ID, sessions[1].ID)
}

func TestAcquireSerializesTurns(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	sess, err := store.Create(ctx, "")
	require.NoError(t, err)

	release, err := store.Acquire(ctx, sess.ID)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = store.Acquire(waitCtx, sess.ID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	release2, err := store.Acquire(ctx, sess.ID)
	require.NoError(t, err)
	release2()
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	sess, err := store.Create(ctx, "shared")
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)
	for range writers {
		go func() {
			defer wg.Done()
			_ = store.AppendMessages(ctx, sess.ID, []*ai.Message{
				ai.NewUserMessage(ai.NewTextPart("msg")),
			})
			_, _ = store.History(ctx, sess.ID)
			_, _ = store.List(ctx)
		}()
	}
	wg.Wait()

	msgs, err := store.History(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, writers)
}
