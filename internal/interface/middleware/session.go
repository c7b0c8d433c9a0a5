package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/apperror"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/response"
)

const (
	accountKey = "account"
	sessionKey = "session"
)

// SessionGuard resolves the session cookie of one audience into an account.
type SessionGuard struct {
	Cookie   *helpers.Manager
	Audience entity.Audience
	Sessions repo.SessionStore
	Accounts repo.AccountRepository
	Logger   *logrus.Logger
}

func NewSessionGuard(cookie *helpers.Manager, aud entity.Audience, sessions repo.SessionStore, accounts repo.AccountRepository, logger *logrus.Logger) *SessionGuard {
	return &SessionGuard{Cookie: cookie, Audience: aud, Sessions: sessions, Accounts: accounts, Logger: logger}
}

// resolve returns the session and its account, or (nil, nil, nil) when the
// request carries no usable session. Stale sessions are removed; sessions
// of another audience are ignored.
func (g *SessionGuard) resolve(c *gin.Context) (*entity.Session, *entity.Account, error) {
	token := g.Cookie.Read(c)
	if token == "" {
		return nil, nil, nil
	}
	ctx := c.Request.Context()
	sess, err := g.Sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrSessionNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if sess.Audience != g.Audience {
		return nil, nil, nil
	}
	a, err := g.Accounts.FindByID(ctx, sess.AccountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if derr := g.Sessions.Delete(ctx, token); derr != nil && g.Logger != nil {
				g.Logger.WithError(derr).Warn("delete orphaned session failed")
			}
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return sess, a, nil
}

// RequireAuthenticated rejects requests without a valid session with 401.
func (g *SessionGuard) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, a, err := g.resolve(c)
		if err != nil {
			response.Fail(c, apperror.Internal("could not resolve session", err))
			return
		}
		if sess == nil {
			g.Cookie.Clear(c)
			response.Fail(c, apperror.Auth("please login", nil))
			return
		}
		if a.IsBanned {
			_ = g.Sessions.Delete(c.Request.Context(), sess.Token)
			g.Cookie.Clear(c)
			response.Fail(c, apperror.Forbidden("account is banned"))
			return
		}
		c.Set(sessionKey, sess)
		c.Set(accountKey, a)
		c.Next()
	}
}

// RequireAnonymous rejects requests that already carry a valid session.
func (g *SessionGuard) RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, _, err := g.resolve(c)
		if err != nil {
			response.Fail(c, apperror.Internal("could not resolve session", err))
			return
		}
		if sess != nil {
			response.Fail(c, apperror.Validation("already logged in, please logout first"))
			return
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuthenticated.
func RequireRole(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := CurrentAccount(c)
		if !ok {
			response.Fail(c, apperror.Auth("please login", nil))
			return
		}
		if a.Role != role {
			response.Fail(c, apperror.Forbidden("requires "+role.String()+" role"))
			return
		}
		c.Next()
	}
}

func RequireAdminRole() gin.HandlerFunc { return RequireRole(entity.RoleAdmin) }

func CurrentAccount(c *gin.Context) (*entity.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil, false
	}
	a, ok := v.(*entity.Account)
	return a, ok && a != nil
}

func CurrentSession(c *gin.Context) (*entity.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*entity.Session)
	return s, ok && s != nil
}

func CurrentAccountID(c *gin.Context) string {
	if a, ok := CurrentAccount(c); ok {
		return a.ID
	}
	return ""
}
