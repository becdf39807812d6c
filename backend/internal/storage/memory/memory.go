// Package memory is a process-local ThreadStorage. Nothing survives a
// restart; it backs tests and single-node deployments without postgres.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
)

type Storage struct {
	mu      sync.RWMutex
	threads map[domain.ThreadId]*entry
	now     func() time.Time
}

// entry serializes every mutation of one thread. Unrelated threads never
// contend on it.
type entry struct {
	mu      sync.Mutex
	thread  domain.Thread
	removed bool
}

func New() *Storage {
	return &Storage{
		threads: make(map[domain.ThreadId]*entry),
		now:     func() time.Time { return time.Now().UTC().Round(time.Microsecond) },
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Cleanup() error {
	return nil
}

func (s *Storage) CreateThread(ctx context.Context, creationData domain.ThreadCreationData) (domain.Thread, error) {
	now := s.now()
	e := &entry{thread: domain.Thread{
		Id:         uuid.NewString(),
		Board:      creationData.Board,
		Text:       creationData.Text,
		SecretHash: creationData.SecretHash,
		CreatedOn:  now,
		BumpedOn:   now,
		Replies:    []*domain.Reply{},
	}}

	s.mu.Lock()
	s.threads[e.thread.Id] = e
	s.mu.Unlock()

	return snapshot(&e.thread), nil
}

func (s *Storage) AppendReply(ctx context.Context, creationData domain.ReplyCreationData) (domain.Reply, error) {
	e := s.lookup(creationData.ThreadId)
	if e == nil {
		return domain.Reply{}, internal_errors.NotFound("Thread not found")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.Reply{}, internal_errors.NotFound("Thread not found")
	}

	// bumped_on never moves backwards even if the clock does, and the reply
	// takes the same timestamp so created_on follows insertion order
	now := s.now()
	if now.After(e.thread.BumpedOn) {
		e.thread.BumpedOn = now
	}
	reply := &domain.Reply{
		Id:         uuid.NewString(),
		ThreadId:   e.thread.Id,
		Board:      e.thread.Board,
		Text:       creationData.Text,
		SecretHash: creationData.SecretHash,
		CreatedOn:  e.thread.BumpedOn,
	}
	e.thread.Replies = append(e.thread.Replies, reply)
	return *reply, nil
}

func (s *Storage) SetThreadReported(ctx context.Context, threadId domain.ThreadId) (bool, error) {
	found := s.withThread(threadId, func(t *domain.Thread) bool {
		t.Reported = true
		return true
	})
	return found, nil
}

func (s *Storage) SetReplyReported(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (bool, error) {
	found := s.withThread(threadId, func(t *domain.Thread) bool {
		r := findReply(t, replyId)
		if r == nil {
			return false
		}
		r.Reported = true
		return true
	})
	return found, nil
}

func (s *Storage) TombstoneReply(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (bool, error) {
	found := s.withThread(threadId, func(t *domain.Thread) bool {
		r := findReply(t, replyId)
		if r == nil {
			return false
		}
		r.Text = domain.TombstoneText
		return true
	})
	return found, nil
}

func (s *Storage) DeleteThread(ctx context.Context, threadId domain.ThreadId) (bool, error) {
	s.mu.Lock()
	e, ok := s.threads[threadId]
	if ok {
		delete(s.threads, threadId)
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	// appends that picked the entry up before removal must fail
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	return true, nil
}

// ListRecentByBoard returns up to limit threads of board, most recently
// bumped first. Ties go to the newer thread, then to the larger id.
func (s *Storage) ListRecentByBoard(ctx context.Context, board domain.BoardShortName, limit int) ([]domain.Thread, error) {
	s.mu.RLock()
	entries := make([]*entry, 0)
	for _, e := range s.threads {
		if e.thread.Board == board {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	threads := make([]domain.Thread, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			threads = append(threads, snapshot(&e.thread))
		}
		e.mu.Unlock()
	}

	slices.SortFunc(threads, func(a, b domain.Thread) int {
		if c := b.BumpedOn.Compare(a.BumpedOn); c != 0 {
			return c
		}
		if c := b.CreatedOn.Compare(a.CreatedOn); c != 0 {
			return c
		}
		return cmp.Compare(b.Id, a.Id)
	})
	if limit >= 0 && len(threads) > limit {
		threads = threads[:limit]
	}
	return threads, nil
}

func (s *Storage) GetThread(ctx context.Context, threadId domain.ThreadId) (domain.Thread, error) {
	var thread domain.Thread
	found := s.withThread(threadId, func(t *domain.Thread) bool {
		thread = snapshot(t)
		return true
	})
	if !found {
		return domain.Thread{}, internal_errors.NotFound("Thread not found")
	}
	return thread, nil
}

func (s *Storage) ThreadCredentials(ctx context.Context, threadId domain.ThreadId) (domain.Credentials, error) {
	var creds domain.Credentials
	found := s.withThread(threadId, func(t *domain.Thread) bool {
		creds = domain.Credentials{Board: t.Board, SecretHash: t.SecretHash}
		return true
	})
	if !found {
		return domain.Credentials{}, internal_errors.NotFound("Thread not found")
	}
	return creds, nil
}

func (s *Storage) ReplyCredentials(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (domain.Credentials, error) {
	var creds domain.Credentials
	found := s.withThread(threadId, func(t *domain.Thread) bool {
		r := findReply(t, replyId)
		if r == nil {
			return false
		}
		creds = domain.Credentials{Board: t.Board, SecretHash: r.SecretHash}
		return true
	})
	if !found {
		return domain.Credentials{}, internal_errors.NotFound("Reply not found")
	}
	return creds, nil
}

func (s *Storage) lookup(threadId domain.ThreadId) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threads[threadId]
}

// withThread runs fn under the thread's lock. It reports false if the thread
// is gone or fn returns false.
func (s *Storage) withThread(threadId domain.ThreadId, fn func(t *domain.Thread) bool) bool {
	e := s.lookup(threadId)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return false
	}
	return fn(&e.thread)
}

func findReply(t *domain.Thread, replyId domain.ReplyId) *domain.Reply {
	for _, r := range t.Replies {
		if r.Id == replyId {
			return r
		}
	}
	return nil
}

// snapshot copies t deep enough that callers can't race with later writes.
func snapshot(t *domain.Thread) domain.Thread {
	c := *t
	c.Replies = make([]*domain.Reply, len(t.Replies))
	for i, r := range t.Replies {
		reply := *r
		c.Replies[i] = &reply
	}
	return c
}
