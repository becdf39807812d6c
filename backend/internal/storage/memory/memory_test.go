package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out strictly increasing timestamps.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStorage() *Storage {
	s := New()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = clock.now
	return s
}

func createThread(t *testing.T, s *Storage, board domain.BoardShortName, text domain.MsgText) domain.Thread {
	t.Helper()
	thread, err := s.CreateThread(context.Background(), domain.ThreadCreationData{Board: board, Text: text, SecretHash: "hash-" + text})
	require.NoError(t, err)
	return thread
}

func appendReply(t *testing.T, s *Storage, threadId domain.ThreadId, text domain.MsgText) domain.Reply {
	t.Helper()
	reply, err := s.AppendReply(context.Background(), domain.ReplyCreationData{ThreadId: threadId, Text: text, SecretHash: "hash-" + text})
	require.NoError(t, err)
	return reply
}

func TestCreateThread(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()

	thread := createThread(t, s, "test", "hello")
	assert.NotEmpty(t, thread.Id)
	assert.Equal(t, "test", thread.Board)
	assert.Equal(t, thread.CreatedOn, thread.BumpedOn)
	assert.False(t, thread.Reported)
	assert.Empty(t, thread.Replies)

	got, err := s.GetThread(ctx, thread.Id)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, domain.SecretHash("hash-hello"), got.SecretHash)

	other := createThread(t, s, "test", "hello")
	assert.NotEqual(t, thread.Id, other.Id)
}

func TestAppendReply(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()
	thread := createThread(t, s, "test", "op")

	t.Run("Bumps thread", func(t *testing.T) {
		reply := appendReply(t, s, thread.Id, "first")
		assert.Equal(t, thread.Id, reply.ThreadId)
		assert.Equal(t, "test", reply.Board)

		got, err := s.GetThread(ctx, thread.Id)
		require.NoError(t, err)
		require.Len(t, got.Replies, 1)
		assert.Equal(t, reply.Id, got.Replies[0].Id)
		assert.Equal(t, reply.CreatedOn, got.BumpedOn)
		assert.True(t, got.BumpedOn.After(got.CreatedOn))
	})

	t.Run("Bump never goes backwards", func(t *testing.T) {
		before, err := s.GetThread(ctx, thread.Id)
		require.NoError(t, err)

		s.now = func() time.Time { return before.BumpedOn.Add(-time.Hour) }
		defer func() { s.now = (&fakeClock{t: before.BumpedOn}).now }()

		reply := appendReply(t, s, thread.Id, "from the past")
		after, err := s.GetThread(ctx, thread.Id)
		require.NoError(t, err)
		assert.Equal(t, before.BumpedOn, after.BumpedOn)
		assert.Equal(t, before.BumpedOn, reply.CreatedOn, "reply can't predate the one before it")
	})

	t.Run("Missing thread", func(t *testing.T) {
		_, err := s.AppendReply(ctx, domain.ReplyCreationData{ThreadId: "missing", Text: "x", SecretHash: "h"})
		assert.ErrorIs(t, err, internal_errors.ErrNotFound)
	})
}

func TestAppendReplyConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	thread := createThread(t, s, "test", "op")

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan domain.ReplyId, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply, err := s.AppendReply(ctx, domain.ReplyCreationData{ThreadId: thread.Id, Text: "r", SecretHash: "h"})
			assert.NoError(t, err)
			ids <- reply.Id
		}()
	}
	wg.Wait()
	close(ids)

	unique := make(map[domain.ReplyId]struct{})
	for id := range ids {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, n)

	got, err := s.GetThread(ctx, thread.Id)
	require.NoError(t, err)
	require.Len(t, got.Replies, n)
	for i, r := range got.Replies {
		assert.False(t, got.BumpedOn.Before(r.CreatedOn))
		if i > 0 {
			assert.False(t, r.CreatedOn.Before(got.Replies[i-1].CreatedOn), "reply %d out of order", i)
		}
	}
}

func TestModerationDuringAppends(t *testing.T) {
	s := New()
	ctx := context.Background()
	thread := createThread(t, s, "test", "op")
	first := appendReply(t, s, thread.Id, "first")

	const rounds = 40
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			_, err := s.AppendReply(ctx, domain.ReplyCreationData{ThreadId: thread.Id, Text: "r", SecretHash: "h"})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			ok, err := s.TombstoneReply(ctx, thread.Id, first.Id)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
		go func() {
			defer wg.Done()
			ok, err := s.SetReplyReported(ctx, thread.Id, first.Id)
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
		go func() {
			defer wg.Done()
			threads, err := s.ListRecentByBoard(ctx, "test", 10)
			assert.NoError(t, err)
			assert.Len(t, threads, 1)
		}()
	}
	wg.Wait()

	got, err := s.GetThread(ctx, thread.Id)
	require.NoError(t, err)
	require.Len(t, got.Replies, rounds+1)
	assert.Equal(t, first.Id, got.Replies[0].Id)
	assert.Equal(t, domain.TombstoneText, got.Replies[0].Text)
	assert.True(t, got.Replies[0].Reported)
	for _, r := range got.Replies[1:] {
		assert.Equal(t, "r", r.Text)
		assert.False(t, r.Reported)
	}
}

func TestTombstoneReply(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()
	thread := createThread(t, s, "test", "op")
	reply := appendReply(t, s, thread.Id, "to delete")
	before, err := s.GetThread(ctx, thread.Id)
	require.NoError(t, err)

	ok, err := s.TombstoneReply(ctx, thread.Id, reply.Id)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetThread(ctx, thread.Id)
	require.NoError(t, err)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, domain.TombstoneText, got.Replies[0].Text)
	assert.Equal(t, before.BumpedOn, got.BumpedOn, "tombstoning must not bump")

	ok, err = s.TombstoneReply(ctx, thread.Id, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.TombstoneReply(ctx, "missing", reply.Id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReported(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()
	thread := createThread(t, s, "test", "op")
	reply := appendReply(t, s, thread.Id, "reply")

	ok, err := s.SetThreadReported(ctx, thread.Id)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.SetReplyReported(ctx, thread.Id, reply.Id)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetThread(ctx, thread.Id)
	require.NoError(t, err)
	assert.True(t, got.Reported)
	assert.True(t, got.Replies[0].Reported)

	// idempotent
	ok, err = s.SetThreadReported(ctx, thread.Id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetThreadReported(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.SetReplyReported(ctx, thread.Id, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteThread(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()
	thread := createThread(t, s, "test", "op")
	reply := appendReply(t, s, thread.Id, "reply")

	ok, err := s.DeleteThread(ctx, thread.Id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.GetThread(ctx, thread.Id)
	assert.ErrorIs(t, err, internal_errors.ErrNotFound)
	_, err = s.ReplyCredentials(ctx, thread.Id, reply.Id)
	assert.ErrorIs(t, err, internal_errors.ErrNotFound)
	_, err = s.AppendReply(ctx, domain.ReplyCreationData{ThreadId: thread.Id, Text: "late", SecretHash: "h"})
	assert.ErrorIs(t, err, internal_errors.ErrNotFound)

	ok, err = s.DeleteThread(ctx, thread.Id)
	require.NoError(t, err)
	assert.False(t, ok)

	threads, err := s.ListRecentByBoard(ctx, "test", 10)
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestListRecentByBoard(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()

	var created []domain.Thread
	for i := 0; i < 12; i++ {
		created = append(created, createThread(t, s, "test", "thread"))
	}
	createThread(t, s, "other", "elsewhere")

	// replying to the oldest thread moves it to the top
	appendReply(t, s, created[0].Id, "bump")

	threads, err := s.ListRecentByBoard(ctx, "test", 10)
	require.NoError(t, err)
	require.Len(t, threads, 10)
	assert.Equal(t, created[0].Id, threads[0].Id)
	assert.Equal(t, created[11].Id, threads[1].Id)
	for i := 1; i < len(threads); i++ {
		assert.False(t, threads[i].BumpedOn.After(threads[i-1].BumpedOn))
		assert.Equal(t, "test", threads[i].Board)
	}

	threads, err = s.ListRecentByBoard(ctx, "empty", 10)
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestCredentials(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()
	thread := createThread(t, s, "test", "op")
	reply := appendReply(t, s, thread.Id, "reply")

	creds, err := s.ThreadCredentials(ctx, thread.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{Board: "test", SecretHash: "hash-op"}, creds)

	creds, err = s.ReplyCredentials(ctx, thread.Id, reply.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{Board: "test", SecretHash: "hash-reply"}, creds)

	_, err = s.ThreadCredentials(ctx, "missing")
	assert.ErrorIs(t, err, internal_errors.ErrNotFound)
	_, err = s.ReplyCredentials(ctx, thread.Id, "missing")
	assert.ErrorIs(t, err, internal_errors.ErrNotFound)
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStorage()
	ctx := context.Background()
	thread := createThread(t, s, "test", "op")
	appendReply(t, s, thread.Id, "reply")

	got, err := s.GetThread(ctx, thread.Id)
	require.NoError(t, err)
	got.Replies[0].Text = "mutated"

	again, err := s.GetThread(ctx, thread.Id)
	require.NoError(t, err)
	assert.Equal(t, "reply", again.Replies[0].Text)
}
