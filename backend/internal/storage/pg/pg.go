package pg

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/itchan-dev/msgboard/shared/config"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"github.com/itchan-dev/msgboard/shared/logger"
	sharedpg "github.com/itchan-dev/msgboard/shared/storage/pg"
)

//go:embed migrations/init.sql
var schema string

type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// New connects and applies the schema. The schema is idempotent, so this is
// safe on every start.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	log := logger.Component("pg")
	log.Info("connecting to db", "host", cfg.Private.Pg.Host, "dbname", cfg.Private.Pg.Dbname)
	db, err := sharedpg.Connect(ctx, cfg.Private.Pg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Info("successfully connected to db")
	return &Storage{db: db, now: now}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return internal_errors.Unavailable(err)
	}
	return nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// withTx is sharedpg.WithTx with begin/commit failures reported as
// unavailable storage. Errors from fn pass through unchanged.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var fnErr error
	err := sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		fnErr = fn(tx)
		return fnErr
	})
	if err != nil && fnErr == nil {
		return internal_errors.Unavailable(err)
	}
	return err
}

func unavailable(op string, err error) error {
	return internal_errors.Unavailable(fmt.Errorf("%s: %w", op, err))
}

// Timestamps are taken in Go, at the precision postgres stores.
func now() time.Time {
	return time.Now().UTC().Round(time.Microsecond)
}
