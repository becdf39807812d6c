package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"github.com/lib/pq"
)

func (s *Storage) CreateThread(ctx context.Context, creationData domain.ThreadCreationData) (domain.Thread, error) {
	ts := s.now()
	thread := domain.Thread{
		Id:         uuid.NewString(),
		Board:      creationData.Board,
		Text:       creationData.Text,
		SecretHash: creationData.SecretHash,
		CreatedOn:  ts,
		BumpedOn:   ts,
		Replies:    []*domain.Reply{},
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO threads (id, board, text, secret_hash, created_on, bumped_on)
        VALUES ($1, $2, $3, $4, $5, $5)
    `, thread.Id, thread.Board, thread.Text, thread.SecretHash, ts)
	if err != nil {
		return domain.Thread{}, unavailable("failed to insert thread", err)
	}
	return thread, nil
}

func (s *Storage) GetThread(ctx context.Context, threadId domain.ThreadId) (domain.Thread, error) {
	var thread domain.Thread
	err := s.db.QueryRowContext(ctx, `
        SELECT id, board, text, secret_hash, created_on, bumped_on, reported
        FROM threads
        WHERE id = $1
    `, threadId).Scan(
		&thread.Id, &thread.Board, &thread.Text, &thread.SecretHash,
		&thread.CreatedOn, &thread.BumpedOn, &thread.Reported,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("Thread not found")
		}
		return domain.Thread{}, unavailable("failed to fetch thread", err)
	}

	replies, err := s.repliesOf(ctx, []domain.ThreadId{thread.Id})
	if err != nil {
		return domain.Thread{}, err
	}
	thread.Replies = replies[thread.Id]
	if thread.Replies == nil {
		thread.Replies = []*domain.Reply{}
	}
	normalize(&thread)
	return thread, nil
}

// ListRecentByBoard reads the threads and their replies in two queries.
// Ordering matches the index: bump time, then creation time, then id.
func (s *Storage) ListRecentByBoard(ctx context.Context, board domain.BoardShortName, limit int) ([]domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, board, text, secret_hash, created_on, bumped_on, reported
        FROM threads
        WHERE board = $1
        ORDER BY bumped_on DESC, created_on DESC, id DESC
        LIMIT $2
    `, board, limit)
	if err != nil {
		return nil, unavailable("failed to list threads", err)
	}
	defer rows.Close()

	threads := make([]domain.Thread, 0, limit)
	ids := make([]domain.ThreadId, 0, limit)
	for rows.Next() {
		var thread domain.Thread
		if err := rows.Scan(
			&thread.Id, &thread.Board, &thread.Text, &thread.SecretHash,
			&thread.CreatedOn, &thread.BumpedOn, &thread.Reported,
		); err != nil {
			return nil, unavailable("failed to scan thread", err)
		}
		threads = append(threads, thread)
		ids = append(ids, thread.Id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("rows iteration error", err)
	}
	if len(threads) == 0 {
		return threads, nil
	}

	replies, err := s.repliesOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range threads {
		threads[i].Replies = replies[threads[i].Id]
		if threads[i].Replies == nil {
			threads[i].Replies = []*domain.Reply{}
		}
		normalize(&threads[i])
	}
	return threads, nil
}

func (s *Storage) SetThreadReported(ctx context.Context, threadId domain.ThreadId) (bool, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE threads SET reported = TRUE WHERE id = $1`, threadId)
	if err != nil {
		return false, unavailable("failed to report thread", err)
	}
	return affected(result)
}

func (s *Storage) DeleteThread(ctx context.Context, threadId domain.ThreadId) (bool, error) {
	// replies go with it through ON DELETE CASCADE
	result, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = $1`, threadId)
	if err != nil {
		return false, unavailable("failed to delete thread", err)
	}
	return affected(result)
}

func (s *Storage) ThreadCredentials(ctx context.Context, threadId domain.ThreadId) (domain.Credentials, error) {
	var creds domain.Credentials
	err := s.db.QueryRowContext(ctx, `SELECT board, secret_hash FROM threads WHERE id = $1`, threadId).
		Scan(&creds.Board, &creds.SecretHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credentials{}, internal_errors.NotFound("Thread not found")
		}
		return domain.Credentials{}, unavailable("failed to fetch thread credentials", err)
	}
	return creds, nil
}

// repliesOf returns the replies of the given threads keyed by thread id, each
// list in insertion order.
func (s *Storage) repliesOf(ctx context.Context, threadIds []domain.ThreadId) (map[domain.ThreadId][]*domain.Reply, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT r.id, r.thread_id, t.board, r.text, r.secret_hash, r.created_on, r.reported
        FROM replies r
        JOIN threads t ON t.id = r.thread_id
        WHERE r.thread_id = ANY($1::uuid[])
        ORDER BY r.thread_id, r.ordinal
    `, pq.Array(threadIds))
	if err != nil {
		return nil, unavailable("failed to fetch replies", err)
	}
	defer rows.Close()

	replies := make(map[domain.ThreadId][]*domain.Reply, len(threadIds))
	for rows.Next() {
		var reply domain.Reply
		if err := rows.Scan(
			&reply.Id, &reply.ThreadId, &reply.Board, &reply.Text,
			&reply.SecretHash, &reply.CreatedOn, &reply.Reported,
		); err != nil {
			return nil, unavailable("failed to scan reply", err)
		}
		reply.CreatedOn = reply.CreatedOn.UTC()
		replies[reply.ThreadId] = append(replies[reply.ThreadId], &reply)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("rows iteration error", err)
	}
	return replies, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, unavailable("failed to read affected rows", err)
	}
	return n > 0, nil
}

// lib/pq hands timestamptz back in the session zone.
func normalize(thread *domain.Thread) {
	thread.CreatedOn = thread.CreatedOn.UTC()
	thread.BumpedOn = thread.BumpedOn.UTC()
}
