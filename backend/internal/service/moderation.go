package service

import (
	"context"
	"errors"

	"github.com/itchan-dev/msgboard/shared/domain"
	internal_errors "github.com/itchan-dev/msgboard/shared/errors"
	"golang.org/x/crypto/bcrypt"
)

// Outcome of a moderation check.
type Outcome int

const (
	Authorized Outcome = iota
	Forbidden
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Guard hashes delete passwords and checks supplied ones against the stored
// hash. It never logs or returns secrets.
type Guard struct {
	cost int
}

// NewGuard returns a Guard hashing with the given bcrypt cost. Zero means
// bcrypt.DefaultCost.
func NewGuard(cost int) *Guard {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Guard{cost: cost}
}

func (g *Guard) Hash(secret string) (domain.SecretHash, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), g.cost)
	if err != nil {
		return "", err
	}
	return domain.SecretHash(hash), nil
}

// Authorize compares in constant time. A malformed stored hash is treated as
// a mismatch.
func (g *Guard) Authorize(stored domain.SecretHash, supplied string) Outcome {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)); err != nil {
		return Forbidden
	}
	return Authorized
}

// Check runs lookup and authorizes supplied against the result. Storage
// failures other than a missing entity are returned as errors.
func (g *Guard) Check(ctx context.Context, lookup func(context.Context) (domain.Credentials, error), supplied string) (Outcome, domain.Credentials, error) {
	creds, err := lookup(ctx)
	if err != nil {
		if errors.Is(err, internal_errors.ErrNotFound) {
			return NotFound, domain.Credentials{}, nil
		}
		return NotFound, domain.Credentials{}, err
	}
	return g.Authorize(creds.SecretHash, supplied), creds, nil
}
