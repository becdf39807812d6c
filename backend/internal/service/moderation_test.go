package service

import (
	"context"
	"errors"
	"testing"

	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGuardHash(t *testing.T) {
	g := NewGuard(bcrypt.MinCost)

	hash, err := g.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	other, err := g.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes must be salted")

	assert.Equal(t, bcrypt.DefaultCost, NewGuard(0).cost)
}

func TestGuardAuthorize(t *testing.T) {
	g := NewGuard(bcrypt.MinCost)
	hash, err := g.Hash("secret")
	require.NoError(t, err)

	assert.Equal(t, Authorized, g.Authorize(hash, "secret"))
	assert.Equal(t, Forbidden, g.Authorize(hash, "wrong"))
	assert.Equal(t, Forbidden, g.Authorize(hash, ""))
	assert.Equal(t, Forbidden, g.Authorize("not a bcrypt hash", "secret"))
}

func TestGuardCheck(t *testing.T) {
	g := NewGuard(bcrypt.MinCost)
	ctx := context.Background()
	hash, err := g.Hash("secret")
	require.NoError(t, err)
	found := func(context.Context) (domain.Credentials, error) {
		return domain.Credentials{Board: "test", SecretHash: hash}, nil
	}

	t.Run("Authorized", func(t *testing.T) {
		outcome, creds, err := g.Check(ctx, found, "secret")
		require.NoError(t, err)
		assert.Equal(t, Authorized, outcome)
		assert.Equal(t, "test", creds.Board)
	})

	t.Run("Forbidden", func(t *testing.T) {
		outcome, _, err := g.Check(ctx, found, "nope")
		require.NoError(t, err)
		assert.Equal(t, Forbidden, outcome)
	})

	t.Run("NotFound", func(t *testing.T) {
		outcome, _, err := g.Check(ctx, func(context.Context) (domain.Credentials, error) {
			return domain.Credentials{}, internal_errors.NotFound("Thread not found")
		}, "secret")
		require.NoError(t, err)
		assert.Equal(t, NotFound, outcome)
	})

	t.Run("Storage error", func(t *testing.T) {
		storageErr := internal_errors.Unavailable(errors.New("connection refused"))
		_, _, err := g.Check(ctx, func(context.Context) (domain.Credentials, error) {
			return domain.Credentials{}, storageErr
		}, "secret")
		assert.ErrorIs(t, err, internal_errors.ErrStorageUnavailable)
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "authorized", Authorized.String())
	assert.Equal(t, "forbidden", Forbidden.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
