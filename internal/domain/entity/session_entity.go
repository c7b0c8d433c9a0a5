package entity

import "time"

// Audience is the surface a session was opened for. A session only
// authenticates requests on its own surface.
type Audience string

const (
	AudienceUser  Audience = "user"
	AudienceAdmin Audience = "admin"
)

func (a Audience) Valid() bool {
	return a == AudienceUser || a == AudienceAdmin
}

// Session binds an opaque cookie value to an account for a bounded lifetime.
type Session struct {
	Token     string
	AccountID string
	Role      Role
	Audience  Audience
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// TTL is the remaining lifetime relative to now; zero once expired.
func (s *Session) TTL(now time.Time) time.Duration {
	if s.Expired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
