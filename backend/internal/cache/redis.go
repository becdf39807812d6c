// Package cache keeps rendered board listings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/itchan-dev/msgboard/shared/domain"
	"github.com/itchan-dev/msgboard/shared/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "msgboard:board:"
	versionPrefix = "msgboard:board_version:"
)

// NoVersion is returned by Get when the version could not be read. Set
// ignores listings carrying it.
const NoVersion int64 = -1

var errStale = errors.New("board changed since listing was read")

var (
	redisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgboard",
			Name:      "redis_errors_total",
			Help:      "Failed Redis commands by command name",
		},
		[]string{"command"},
	)

	lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "msgboard",
			Name:      "board_cache_lookups_total",
			Help:      "Board cache lookups by result",
		},
		[]string{"result"},
	)
)

type metricsHook struct{}

// counted reports whether err is a real failure rather than a miss or a lost
// optimistic transaction.
func counted(err error) bool {
	return err != nil && !errors.Is(err, redis.Nil) && !errors.Is(err, redis.TxFailedErr)
}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if counted(err) {
			redisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if counted(err) {
			redisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// BoardCache stores board listings as JSON under one key per board. Every
// failure is logged and reported as a miss; storage stays the source of
// truth.
//
// Each board also has a version counter bumped by Invalidate. Get hands out
// the version seen before storage is read and Set only stores if it is still
// current, so a listing computed before a concurrent write is dropped instead
// of outliving that write's invalidation.
type BoardCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewClient(addr, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	client.AddHook(metricsHook{})
	return client
}

func NewBoardCache(client *redis.Client, ttl time.Duration) *BoardCache {
	return &BoardCache{client: client, ttl: ttl, log: logger.Component("board_cache")}
}

func (c *BoardCache) Get(ctx context.Context, board domain.BoardShortName) ([]domain.PublicThread, int64, bool) {
	vals, err := c.client.MGet(ctx, key(board), versionKey(board)).Result()
	if err != nil {
		c.log.Warn("cache read failed", "board", board, "error", err)
		lookups.WithLabelValues("miss").Inc()
		return nil, NoVersion, false
	}

	version, err := parseVersion(vals[1])
	if err != nil {
		c.log.Warn("cache version is corrupt", "board", board, "error", err)
		lookups.WithLabelValues("miss").Inc()
		return nil, NoVersion, false
	}

	raw, ok := vals[0].(string)
	if !ok {
		lookups.WithLabelValues("miss").Inc()
		return nil, version, false
	}

	var threads []domain.PublicThread
	if err := json.Unmarshal([]byte(raw), &threads); err != nil {
		c.log.Warn("cache entry is corrupt", "board", board, "error", err)
		c.Invalidate(ctx, board)
		lookups.WithLabelValues("miss").Inc()
		return nil, NoVersion, false
	}
	lookups.WithLabelValues("hit").Inc()
	return threads, version, true
}

// Set stores threads unless the board was invalidated after version was
// read.
func (c *BoardCache) Set(ctx context.Context, board domain.BoardShortName, version int64, threads []domain.PublicThread) {
	if version == NoVersion {
		return
	}
	raw, err := json.Marshal(threads)
	if err != nil {
		c.log.Warn("cache encode failed", "board", board, "error", err)
		return
	}

	vkey := versionKey(board)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(board), raw, c.ttl)
			return nil
		})
		return err
	}, vkey)

	switch {
	case err == nil:
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		c.log.Debug("stale listing not cached", "board", board)
	default:
		c.log.Warn("cache write failed", "board", board, "error", err)
	}
}

func (c *BoardCache) Invalidate(ctx context.Context, board domain.BoardShortName) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(board))
		pipe.Del(ctx, key(board))
		return nil
	})
	if err != nil {
		c.log.Warn("cache invalidation failed", "board", board, "error", err)
	}
}

func (c *BoardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *BoardCache) Close() error {
	return c.client.Close()
}

func key(board domain.BoardShortName) string {
	return keyPrefix + board
}

func versionKey(board domain.BoardShortName) string {
	return versionPrefix + board
}

// A board never invalidated has no counter yet, which reads as version 0.
func parseVersion(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, errors.New("unexpected version type")
	}
	return strconv.ParseInt(s, 10, 64)
}
