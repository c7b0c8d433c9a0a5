package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/apperror"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminService implements the admin dashboard. Admins manage role=user accounts only.
type AdminService struct {
	*Deps
	auth *AuthService
}

func NewAdminService(d *Deps) *AdminService {
	return &AdminService{Deps: d, auth: NewAuthService(d)}
}

// Login is the user login restricted to admin accounts.
func (s *AdminService) Login(ctx context.Context, email, password string) (*entity.Session, *entity.Account, error) {
	a, err := s.auth.authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if !a.IsAdmin() {
		return nil, nil, apperror.Forbidden("not an admin")
	}
	sess, err := s.Sessions.Create(ctx, a.ID, a.Role, entity.AudienceAdmin, s.Cfg.SessionTTL)
	if err != nil {
		return nil, nil, apperror.Internal("could not create session", err)
	}
	return sess, a, nil
}

type ListUsersInput struct {
	Query  string
	Limit  int
	Offset int
}

// ListUsers returns user accounts, newest first. A query goes through the
// search index when one is configured and falls back to the database otherwise.
func (s *AdminService) ListUsers(ctx context.Context, in ListUsersInput) ([]*entity.Account, error) {
	if in.Limit <= 0 {
		in.Limit = defaultPageSize
	}
	if in.Limit > maxPageSize {
		in.Limit = maxPageSize
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	in.Query = strings.TrimSpace(in.Query)

	filter := repo.AccountFilter{Role: entity.RoleUser, Query: in.Query, Limit: in.Limit, Offset: in.Offset}
	if in.Query != "" && s.Index != nil && s.Index.Enabled() {
		ids, err := s.Index.Search(ctx, entity.RoleUser, in.Query, in.Limit, in.Offset)
		if err == nil {
			return s.listByIDs(ctx, ids)
		}
		s.log().WithError(err).Warn("account search failed, using database")
	}

	accounts, err := s.Accounts.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("could not list accounts", err)
	}
	return accounts, nil
}

// listByIDs loads accounts in the order the index returned them.
func (s *AdminService) listByIDs(ctx context.Context, ids []string) ([]*entity.Account, error) {
	if len(ids) == 0 {
		return []*entity.Account{}, nil
	}
	found, err := s.Accounts.List(ctx, repo.AccountFilter{Role: entity.RoleUser, IDs: ids, Limit: len(ids)})
	if err != nil {
		return nil, apperror.Internal("could not list accounts", err)
	}
	byID := make(map[string]*entity.Account, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	out := make([]*entity.Account, 0, len(found))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// target loads an account an admin may act on.
func (s *AdminService) target(ctx context.Context, adminID, id string) (*entity.Account, error) {
	a, err := s.findAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ID != adminID && a.IsAdmin() {
		return nil, apperror.Forbidden("cannot manage admin accounts")
	}
	return a, nil
}

func (s *AdminService) GetUser(ctx context.Context, adminID, id string) (*entity.Account, error) {
	return s.target(ctx, adminID, id)
}

type CreateAccountInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// CreateAccount stores a verified user account immediately, without a token.
func (s *AdminService) CreateAccount(ctx context.Context, in CreateAccountInput) (*entity.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = entity.NormalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return nil, apperror.Validation("name, email, phone or password is missing")
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	a := &entity.Account{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         entity.RoleUser,
		IsVerified:   true,
	}
	if err := s.Accounts.Insert(ctx, a); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, apperror.Conflict("user with this email already exists", err)
		}
		return nil, apperror.Internal("could not create account", err)
	}
	s.index(ctx, a)
	return a, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, adminID, id string, in UpdateProfileInput) (*entity.Account, error) {
	a, err := s.target(ctx, adminID, id)
	if err != nil {
		return nil, err
	}
	changes, err := s.profileChanges(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.saveProfile(ctx, a, changes)
}

// SetBanned bans or unbans a user. Banning ends the user's sessions.
func (s *AdminService) SetBanned(ctx context.Context, adminID, id string, banned bool) (*entity.Account, error) {
	if adminID == id {
		return nil, apperror.Validation("cannot ban your own account")
	}
	a, err := s.target(ctx, adminID, id)
	if err != nil {
		return nil, err
	}
	a, err = s.Accounts.SetBanned(ctx, a.ID, banned)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, apperror.Internal("could not update account", err)
	}
	s.index(ctx, a)
	if banned {
		s.revokeSessions(ctx, a.ID)
	}
	s.log().WithFields(logrus.Fields{"admin_id": adminID, "account_id": a.ID, "banned": banned}).Info("account ban changed")
	return a, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, adminID, id string) error {
	if adminID == id {
		return apperror.Validation("cannot delete your own account")
	}
	a, err := s.target(ctx, adminID, id)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, a); err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{"admin_id": adminID, "account_id": a.ID}).Info("account deleted by admin")
	return nil
}
