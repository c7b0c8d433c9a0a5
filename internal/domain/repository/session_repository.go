package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps server-side sessions keyed by the cookie value.
type SessionStore interface {
	Create(ctx context.Context, accountID string, role entity.Role, aud entity.Audience, ttl time.Duration) (*entity.Session, error)
	// Get returns ErrSessionNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (*entity.Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, token string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

// TokenLedger records consumed pending-token ids so each token is used once.
type TokenLedger interface {
	// Consume returns false if the id was already consumed.
	Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, tokenID string) error
}
