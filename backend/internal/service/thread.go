package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"github.com/itchan-dev/msgboard/shared/logger"
)

// to mock service in tests
type ThreadService interface {
	Create(ctx context.Context, board domain.BoardShortName, text domain.MsgText, secret string) (domain.ThreadRef, error)
	Reply(ctx context.Context, threadId domain.ThreadId, text domain.MsgText, secret string) (domain.ThreadRef, error)
	List(ctx context.Context, board domain.BoardShortName) ([]domain.PublicThread, error)
	Get(ctx context.Context, threadId domain.ThreadId) (domain.PublicThread, error)
	Delete(ctx context.Context, threadId domain.ThreadId, secret string) error
	DeleteReply(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId, secret string) error
	Report(ctx context.Context, threadId domain.ThreadId) error
	ReportReply(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) error
}

// ThreadStorage is the set of primitives a storage engine has to provide.
// Every mutation must be atomic for the thread it touches, and concurrent
// appends to one thread must all be kept.
type ThreadStorage interface {
	CreateThread(ctx context.Context, creationData domain.ThreadCreationData) (domain.Thread, error)
	AppendReply(ctx context.Context, creationData domain.ReplyCreationData) (domain.Reply, error)
	SetThreadReported(ctx context.Context, threadId domain.ThreadId) (bool, error)
	SetReplyReported(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (bool, error)
	TombstoneReply(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (bool, error)
	DeleteThread(ctx context.Context, threadId domain.ThreadId) (bool, error)
	ListRecentByBoard(ctx context.Context, board domain.BoardShortName, limit int) ([]domain.Thread, error)
	GetThread(ctx context.Context, threadId domain.ThreadId) (domain.Thread, error)
	ThreadCredentials(ctx context.Context, threadId domain.ThreadId) (domain.Credentials, error)
	ReplyCredentials(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (domain.Credentials, error)
}

// BoardCache holds rendered board listings. Implementations are best effort:
// failures are logged, never returned. Get reports the board's version even
// on a miss; Set must drop the listing if Invalidate ran since that version
// was read.
type BoardCache interface {
	Get(ctx context.Context, board domain.BoardShortName) (threads []domain.PublicThread, version int64, ok bool)
	Set(ctx context.Context, board domain.BoardShortName, version int64, threads []domain.PublicThread)
	Invalidate(ctx context.Context, board domain.BoardShortName)
}

type PostValidator interface {
	Board(board domain.BoardShortName) error
	Text(text domain.MsgText) error
	Secret(secret string) error
}

type TextSanitizer interface {
	Sanitize(text domain.MsgText) domain.MsgText
}

type Thread struct {
	storage   ThreadStorage
	guard     *Guard
	validator PostValidator
	sanitizer TextSanitizer
	cache     BoardCache
}

func NewThread(storage ThreadStorage, guard *Guard, validator PostValidator, sanitizer TextSanitizer, cache BoardCache) ThreadService {
	if cache == nil {
		cache = NopCache{}
	}
	return &Thread{
		storage:   storage,
		guard:     guard,
		validator: validator,
		sanitizer: sanitizer,
		cache:     cache,
	}
}

func (s *Thread) Create(ctx context.Context, board domain.BoardShortName, text domain.MsgText, secret string) (domain.ThreadRef, error) {
	text = s.sanitizer.Sanitize(text)
	if err := s.validator.Board(board); err != nil {
		return domain.ThreadRef{}, err
	}
	if err := s.validatePost(text, secret); err != nil {
		return domain.ThreadRef{}, err
	}

	hash, err := s.guard.Hash(secret)
	if err != nil {
		return domain.ThreadRef{}, fmt.Errorf("failed to hash secret: %w", err)
	}

	thread, err := s.storage.CreateThread(ctx, domain.ThreadCreationData{Board: board, Text: text, SecretHash: hash})
	if err != nil {
		return domain.ThreadRef{}, err
	}
	s.cache.Invalidate(ctx, board)

	logger.Log.Info("thread created", "component", "thread_service", "board", board, "thread_id", thread.Id)
	return domain.ThreadRef{Board: thread.Board, ThreadId: thread.Id}, nil
}

func (s *Thread) Reply(ctx context.Context, threadId domain.ThreadId, text domain.MsgText, secret string) (domain.ThreadRef, error) {
	text = s.sanitizer.Sanitize(text)
	if err := requireId(threadId, "Thread id"); err != nil {
		return domain.ThreadRef{}, err
	}
	if err := s.validatePost(text, secret); err != nil {
		return domain.ThreadRef{}, err
	}
	threadId, ok := canonicalId(threadId)
	if !ok {
		return domain.ThreadRef{}, internal_errors.NotFound("Thread not found")
	}

	hash, err := s.guard.Hash(secret)
	if err != nil {
		return domain.ThreadRef{}, fmt.Errorf("failed to hash secret: %w", err)
	}

	reply, err := s.storage.AppendReply(ctx, domain.ReplyCreationData{ThreadId: threadId, Text: text, SecretHash: hash})
	if err != nil {
		return domain.ThreadRef{}, err
	}
	s.cache.Invalidate(ctx, reply.Board)

	logger.Log.Info("reply created", "component", "thread_service", "board", reply.Board, "thread_id", threadId, "reply_id", reply.Id)
	return domain.ThreadRef{Board: reply.Board, ThreadId: threadId, ReplyId: reply.Id}, nil
}

func (s *Thread) List(ctx context.Context, board domain.BoardShortName) ([]domain.PublicThread, error) {
	if err := s.validator.Board(board); err != nil {
		return nil, err
	}
	cached, version, ok := s.cache.Get(ctx, board)
	if ok {
		return cached, nil
	}

	threads, err := s.storage.ListRecentByBoard(ctx, board, ThreadsPerBoard)
	if err != nil {
		return nil, err
	}
	listing := ProjectListing(threads)
	s.cache.Set(ctx, board, version, listing)
	return listing, nil
}

func (s *Thread) Get(ctx context.Context, threadId domain.ThreadId) (domain.PublicThread, error) {
	if err := requireId(threadId, "Thread id"); err != nil {
		return domain.PublicThread{}, err
	}
	threadId, ok := canonicalId(threadId)
	if !ok {
		return domain.PublicThread{}, internal_errors.NotFound("Thread not found")
	}

	thread, err := s.storage.GetThread(ctx, threadId)
	if err != nil {
		return domain.PublicThread{}, err
	}
	return ProjectFull(thread), nil
}

func (s *Thread) Delete(ctx context.Context, threadId domain.ThreadId, secret string) error {
	if err := requireId(threadId, "Thread id"); err != nil {
		return err
	}
	if err := requireSecret(secret); err != nil {
		return err
	}
	threadId, ok := canonicalId(threadId)
	if !ok {
		return internal_errors.NotFound("Thread not found")
	}

	outcome, creds, err := s.guard.Check(ctx, func(ctx context.Context) (domain.Credentials, error) {
		return s.storage.ThreadCredentials(ctx, threadId)
	}, secret)
	if err != nil {
		return err
	}
	recordModeration("delete_thread", outcome)
	if err := outcomeError(outcome, "Thread not found"); err != nil {
		return err
	}

	deleted, err := s.storage.DeleteThread(ctx, threadId)
	if err != nil {
		return err
	}
	if !deleted { // removed by a concurrent request after the check
		return internal_errors.NotFound("Thread not found")
	}
	s.cache.Invalidate(ctx, creds.Board)

	logger.Log.Info("thread deleted", "component", "thread_service", "board", creds.Board, "thread_id", threadId)
	return nil
}

func (s *Thread) DeleteReply(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId, secret string) error {
	if err := requireId(threadId, "Thread id"); err != nil {
		return err
	}
	if err := requireId(replyId, "Reply id"); err != nil {
		return err
	}
	if err := requireSecret(secret); err != nil {
		return err
	}
	threadId, replyId, ok := canonicalIds(threadId, replyId)
	if !ok {
		return internal_errors.NotFound("Reply not found")
	}

	outcome, creds, err := s.guard.Check(ctx, func(ctx context.Context) (domain.Credentials, error) {
		return s.storage.ReplyCredentials(ctx, threadId, replyId)
	}, secret)
	if err != nil {
		return err
	}
	recordModeration("delete_reply", outcome)
	if err := outcomeError(outcome, "Reply not found"); err != nil {
		return err
	}

	tombstoned, err := s.storage.TombstoneReply(ctx, threadId, replyId)
	if err != nil {
		return err
	}
	if !tombstoned {
		return internal_errors.NotFound("Reply not found")
	}
	s.cache.Invalidate(ctx, creds.Board)

	logger.Log.Info("reply deleted", "component", "thread_service", "board", creds.Board, "thread_id", threadId, "reply_id", replyId)
	return nil
}

// Report needs no secret: anyone may flag a thread.
func (s *Thread) Report(ctx context.Context, threadId domain.ThreadId) error {
	if err := requireId(threadId, "Thread id"); err != nil {
		return err
	}
	threadId, ok := canonicalId(threadId)
	if !ok {
		return internal_errors.NotFound("Thread not found")
	}

	found, err := s.storage.SetThreadReported(ctx, threadId)
	if err != nil {
		return err
	}
	if !found {
		return internal_errors.NotFound("Thread not found")
	}
	recordReport("thread")
	logger.Log.Info("thread reported", "component", "thread_service", "thread_id", threadId)
	return nil
}

func (s *Thread) ReportReply(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) error {
	if err := requireId(threadId, "Thread id"); err != nil {
		return err
	}
	if err := requireId(replyId, "Reply id"); err != nil {
		return err
	}
	threadId, replyId, ok := canonicalIds(threadId, replyId)
	if !ok {
		return internal_errors.NotFound("Reply not found")
	}

	found, err := s.storage.SetReplyReported(ctx, threadId, replyId)
	if err != nil {
		return err
	}
	if !found {
		return internal_errors.NotFound("Reply not found")
	}
	recordReport("reply")
	logger.Log.Info("reply reported", "component", "thread_service", "thread_id", threadId, "reply_id", replyId)
	return nil
}

func (s *Thread) validatePost(text domain.MsgText, secret string) error {
	if err := s.validator.Text(text); err != nil {
		return err
	}
	return s.validator.Secret(secret)
}

func outcomeError(outcome Outcome, notFoundMsg string) error {
	switch outcome {
	case Authorized:
		return nil
	case Forbidden:
		return internal_errors.Forbidden()
	default:
		return internal_errors.NotFound(notFoundMsg)
	}
}

func requireId(id string, name string) error {
	if id == "" {
		return internal_errors.Validation(name + " is required")
	}
	return nil
}

func requireSecret(secret string) error {
	if secret == "" {
		return internal_errors.Validation("Delete password is required")
	}
	return nil
}

// Ids are UUIDs. Anything that doesn't parse can't name a stored entity;
// the rest is brought to canonical form before it reaches storage.
func canonicalId(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func canonicalIds(threadId domain.ThreadId, replyId domain.ReplyId) (domain.ThreadId, domain.ReplyId, bool) {
	threadId, ok := canonicalId(threadId)
	if !ok {
		return "", "", false
	}
	replyId, ok = canonicalId(replyId)
	return threadId, replyId, ok
}

// NopCache is used when no board cache is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, domain.BoardShortName) ([]domain.PublicThread, int64, bool) {
	return nil, 0, false
}
func (NopCache) Set(context.Context, domain.BoardShortName, int64, []domain.PublicThread) {}
func (NopCache) Invalidate(context.Context, domain.BoardShortName) {}
