package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
)

// AppendReply locks the thread row while it bumps the counter, so concurrent
// replies to one thread get distinct ordinals and none is lost. The reply
// timestamp is the new bumped_on, taken by the database once the lock is
// held, so created_on follows the ordinal order.
func (s *Storage) AppendReply(ctx context.Context, creationData domain.ReplyCreationData) (domain.Reply, error) {
	reply := domain.Reply{
		Id:         uuid.NewString(),
		ThreadId:   creationData.ThreadId,
		Text:       creationData.Text,
		SecretHash: creationData.SecretHash,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var ordinal int
		err := tx.QueryRowContext(ctx, `
            UPDATE threads
            SET bumped_on = GREATEST(bumped_on, clock_timestamp()),
                reply_count = reply_count + 1
            WHERE id = $1
            RETURNING board, reply_count, bumped_on
        `, reply.ThreadId).Scan(&reply.Board, &ordinal, &reply.CreatedOn)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NotFound("Thread not found")
			}
			return unavailable("failed to bump thread", err)
		}
		reply.CreatedOn = reply.CreatedOn.UTC()

		_, err = tx.ExecContext(ctx, `
            INSERT INTO replies (id, thread_id, ordinal, text, secret_hash, created_on)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, reply.Id, reply.ThreadId, ordinal, reply.Text, reply.SecretHash, reply.CreatedOn)
		if err != nil {
			return unavailable("failed to insert reply", err)
		}
		return nil
	})
	if err != nil {
		return domain.Reply{}, err
	}
	return reply, nil
}

func (s *Storage) SetReplyReported(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
        UPDATE replies SET reported = TRUE
        WHERE thread_id = $1 AND id = $2
    `, threadId, replyId)
	if err != nil {
		return false, unavailable("failed to report reply", err)
	}
	return affected(result)
}

// TombstoneReply keeps the row and only swaps the text. The thread is not
// bumped.
func (s *Storage) TombstoneReply(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
        UPDATE replies SET text = $3
        WHERE thread_id = $1 AND id = $2
    `, threadId, replyId, domain.TombstoneText)
	if err != nil {
		return false, unavailable("failed to tombstone reply", err)
	}
	return affected(result)
}

func (s *Storage) ReplyCredentials(ctx context.Context, threadId domain.ThreadId, replyId domain.ReplyId) (domain.Credentials, error) {
	var creds domain.Credentials
	err := s.db.QueryRowContext(ctx, `
        SELECT t.board, r.secret_hash
        FROM replies r
        JOIN threads t ON t.id = r.thread_id
        WHERE r.thread_id = $1 AND r.id = $2
    `, threadId, replyId).Scan(&creds.Board, &creds.SecretHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credentials{}, internal_errors.NotFound("Reply not found")
		}
		return domain.Credentials{}, unavailable("failed to fetch reply credentials", err)
	}
	return creds, nil
}
