package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

const (
	ledgerKeyPrefix = "pending:used:"
	minLedgerTTL    = time.Second
)

// TokenLedger marks pending-token ids as consumed. Entries expire with the
// token, after which the signature check alone rejects it.
type TokenLedger struct {
	rdb *redis.Client
}

func NewTokenLedger(rdb *redis.Client) *TokenLedger {
	return &TokenLedger{rdb: rdb}
}

var _ repository.TokenLedger = (*TokenLedger)(nil)

func (l *TokenLedger) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl < minLedgerTTL {
		ttl = minLedgerTTL
	}
	ok, err := l.rdb.SetNX(ctx, ledgerKeyPrefix+tokenID, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("consume token: %w", err)
	}
	return ok, nil
}

// Release undoes Consume so the token can be retried after a failed operation.
func (l *TokenLedger) Release(ctx context.Context, tokenID string) error {
	if err := l.rdb.Del(ctx, ledgerKeyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("release token: %w", err)
	}
	return nil
}
