package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// TokenPurpose separates registration tokens from reset tokens so one cannot stand in for the other.
type TokenPurpose string

const (
	PurposeRegister TokenPurpose = "register"
	PurposeReset    TokenPurpose = "reset"
)

// PendingClaims is the signed envelope of a pending token.
type PendingClaims struct {
	Purpose TokenPurpose    `json:"pur"`
	Payload json.RawMessage `json:"dat"`
	jwt.RegisteredClaims
}

// PendingToken is a verified token: its id, expiry and raw payload.
type PendingToken struct {
	ID        string
	Purpose   TokenPurpose
	IssuedAt  time.Time
	ExpiresAt time.Time
	Payload   json.RawMessage
}

// Decode unmarshals the payload into dest.
func (t *PendingToken) Decode(dest any) error {
	if err := json.Unmarshal(t.Payload, dest); err != nil {
		return fmt.Errorf("%w: payload: %v", ErrTokenInvalid, err)
	}
	return nil
}

// TokenManager issues and verifies stateless, HMAC-signed pending tokens.
type TokenManager struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

// Issue signs payload for purpose. ttl <= 0 uses the manager default.
func (m *TokenManager) Issue(purpose TokenPurpose, payload any, ttl time.Duration) (string, *PendingToken, error) {
	if ttl <= 0 {
		ttl = m.TTL
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode token payload: %w", err)
	}
	now := m.clock()
	pt := &PendingToken{
		ID:        uuid.NewString(),
		Purpose:   purpose,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		Payload:   raw,
	}
	claims := &PendingClaims{
		Purpose: purpose,
		Payload: raw,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        pt.ID,
			IssuedAt:  jwt.NewNumericDate(pt.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(pt.ExpiresAt),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return s, pt, nil
}

// Verify checks signature, expiry and purpose. It returns ErrTokenExpired or ErrTokenInvalid.
func (m *TokenManager) Verify(tokenStr string, purpose TokenPurpose) (*PendingToken, error) {
	claims := &PendingClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !tkn.Valid || claims.Purpose != purpose || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	pt := &PendingToken{
		ID:      claims.ID,
		Purpose: claims.Purpose,
		Payload: claims.Payload,
	}
	if claims.IssuedAt != nil {
		pt.IssuedAt = claims.IssuedAt.Time
	}
	pt.ExpiresAt = claims.ExpiresAt.Time
	return pt, nil
}

// Remaining is how long the token stays valid from now.
func (m *TokenManager) Remaining(t *PendingToken) time.Duration {
	return t.ExpiresAt.Sub(m.clock())
}

func (m *TokenManager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
