package redisstore

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

const (
	sessionKeyPrefix         = "session:"
	accountSessionsKeyPrefix = "account:sessions:"
	sessionTokenBytes        = 32
)

// SessionStore keeps sessions in Redis hashes. The cookie value is never
// stored; keys are derived from it with HMAC-SHA256 under the session secret.
type SessionStore struct {
	rdb    *redis.Client
	secret []byte
	now    func() time.Time
}

func NewSessionStore(rdb *redis.Client, secret string) *SessionStore {
	return &SessionStore{rdb: rdb, secret: []byte(secret), now: time.Now}
}

var _ repository.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) key(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return sessionKeyPrefix + hex.EncodeToString(mac.Sum(nil))
}

func accountKey(accountID string) string {
	return accountSessionsKeyPrefix + accountID
}

func newToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *SessionStore) Create(ctx context.Context, accountID string, role entity.Role, aud entity.Audience, ttl time.Duration) (*entity.Session, error) {
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if !aud.Valid() {
		return nil, fmt.Errorf("invalid session audience %q", aud)
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &entity.Session{
		Token:     token,
		AccountID: accountID,
		Role:      role,
		Audience:  aud,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	key := s.key(token)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"account_id", accountID,
			"role", role.String(),
			"audience", string(aud),
			"created_at", now.UnixMilli(),
			"expires_at", sess.ExpiresAt.UnixMilli(),
		)
		pipe.PExpire(ctx, key, ttl)
		pipe.SAdd(ctx, accountKey(accountID), key)
		// all sessions share one ttl, so the newest login bounds the index
		pipe.PExpire(ctx, accountKey(accountID), ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return nil, repository.ErrSessionNotFound
	}
	vals, err := s.rdb.HGetAll(ctx, s.key(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(vals) == 0 || vals["account_id"] == "" {
		return nil, repository.ErrSessionNotFound
	}
	role, err := entity.ParseRole(vals["role"])
	if err != nil {
		return nil, repository.ErrSessionNotFound
	}
	aud := entity.Audience(vals["audience"])
	if !aud.Valid() {
		return nil, repository.ErrSessionNotFound
	}
	createdMs, _ := strconv.ParseInt(vals["created_at"], 10, 64)
	expiresMs, _ := strconv.ParseInt(vals["expires_at"], 10, 64)
	sess := &entity.Session{
		Token:     token,
		AccountID: vals["account_id"],
		Role:      role,
		Audience:  aud,
		CreatedAt: time.UnixMilli(createdMs),
		ExpiresAt: time.UnixMilli(expiresMs),
	}
	if sess.Expired(s.now()) {
		_ = s.Delete(ctx, token)
		return nil, repository.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	key := s.key(token)
	accountID, err := s.rdb.HGet(ctx, key, "account_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if accountID != "" {
			pipe.SRem(ctx, accountKey(accountID), key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByAccount revokes every session of an account.
func (s *SessionStore) DeleteByAccount(ctx context.Context, accountID string) error {
	idx := accountKey(accountID)
	keys, err := s.rdb.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("list account sessions: %w", err)
	}
	keys = append(keys, idx)
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke account sessions: %w", err)
	}
	return nil
}
