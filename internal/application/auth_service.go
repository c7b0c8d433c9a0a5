package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/apperror"
	"github.com/oksasatya/go-account-service/pkg/helpers"
	"github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

// AuthService implements registration, login and password reset.
type AuthService struct {
	*Deps
}

func NewAuthService(d *Deps) *AuthService {
	return &AuthService{Deps: d}
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Image    *ImageUpload
}

// Register validates the input and issues a verification token. Nothing is
// stored until VerifyEmail succeeds.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = entity.NormalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		return "", apperror.Validation("name, email, phone or password is missing")
	}
	if err := checkPassword(in.Password); err != nil {
		return "", err
	}
	if in.Image != nil && in.Image.Size > MaxImageBytes {
		return "", apperror.Validation("maximum size for image is 1mb")
	}

	_, err := s.Accounts.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return "", apperror.Conflict("user with this email already exists", nil)
	case !errors.Is(err, repo.ErrNotFound):
		return "", apperror.Internal("could not look up account", err)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return "", err
	}
	imageURL, imageType, err := s.uploadImage(ctx, in.Image)
	if err != nil {
		return "", err
	}

	token, pt, err := s.Tokens.Issue(helpers.PurposeRegister, entity.PendingRegistration{
		Name:             in.Name,
		Email:            in.Email,
		Phone:            in.Phone,
		PasswordHash:     hash,
		ImageURL:         imageURL,
		ImageContentType: imageType,
	}, 0)
	if err != nil {
		return "", apperror.Internal("could not issue token", err)
	}

	s.sendEmail(ctx, templates.VerifyEmail, templates.EmailData{
		Name:      in.Name,
		Email:     in.Email,
		ActionURL: s.Cfg.VerifyEmailLink(token),
		ExpiresAt: pt.ExpiresAt,
	})
	return token, nil
}

// VerifyEmail consumes a registration token and persists the account.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*entity.Account, error) {
	pt, err := s.consume(ctx, token, helpers.PurposeRegister)
	if err != nil {
		return nil, err
	}
	var p entity.PendingRegistration
	if err := pt.Decode(&p); err != nil {
		return nil, apperror.Auth("token is invalid", err)
	}

	_, err = s.Accounts.FindByEmail(ctx, p.Email)
	switch {
	case err == nil:
		return nil, apperror.Conflict("user with this email already exists", nil)
	case !errors.Is(err, repo.ErrNotFound):
		s.release(ctx, pt)
		return nil, apperror.Internal("could not look up account", err)
	}

	a := &entity.Account{
		Email:            p.Email,
		PasswordHash:     p.PasswordHash,
		Name:             p.Name,
		Phone:            p.Phone,
		Role:             entity.RoleUser,
		IsVerified:       true,
		ImageURL:         p.ImageURL,
		ImageContentType: p.ImageContentType,
	}
	if err := s.Accounts.Insert(ctx, a); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, apperror.Conflict("user with this email already exists", err)
		}
		s.release(ctx, pt)
		return nil, apperror.Internal("could not create account", err)
	}
	s.index(ctx, a)
	s.log().WithFields(logrus.Fields{"account_id": a.ID}).Info("account verified")
	return a, nil
}

// Login checks credentials and opens a session for the account.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.Session, *entity.Account, error) {
	a, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.Sessions.Create(ctx, a.ID, a.Role, entity.AudienceUser, s.Cfg.SessionTTL)
	if err != nil {
		return nil, nil, apperror.Internal("could not create session", err)
	}
	return sess, a, nil
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	email = entity.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("email or password is missing")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	a, err := s.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.NotFound("user with this email does not exist")
		}
		return nil, apperror.Internal("could not look up account", err)
	}
	if a.IsBanned {
		return nil, apperror.Forbidden("account is banned")
	}
	if !s.Hasher.Verify(password, a.PasswordHash) {
		return nil, apperror.Auth("email/password mismatched", nil)
	}
	return a, nil
}

// Logout ends the session if it belongs to aud. An unknown, empty or
// foreign token is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionToken string, aud entity.Audience) error {
	if sessionToken == "" {
		return nil
	}
	sess, err := s.Sessions.Get(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, repo.ErrSessionNotFound) {
			return nil
		}
		return apperror.Internal("could not load session", err)
	}
	if sess.Audience != aud {
		return nil
	}
	if err := s.Sessions.Delete(ctx, sessionToken); err != nil {
		return apperror.Internal("could not end session", err)
	}
	return nil
}

// ForgetPassword hashes the new password now and mails a token carrying it.
func (s *AuthService) ForgetPassword(ctx context.Context, email, newPassword string) (string, error) {
	email = entity.NormalizeEmail(email)
	if email == "" || newPassword == "" {
		return "", apperror.Validation("email or password is missing")
	}
	if err := checkPassword(newPassword); err != nil {
		return "", err
	}
	a, err := s.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", apperror.NotFound("user was not found with this email address")
		}
		return "", apperror.Internal("could not look up account", err)
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return "", err
	}
	token, pt, err := s.Tokens.Issue(helpers.PurposeReset, entity.PendingReset{Email: a.Email, PasswordHash: hash}, 0)
	if err != nil {
		return "", apperror.Internal("could not issue token", err)
	}

	s.sendEmail(ctx, templates.ResetPassword, templates.EmailData{
		Name:      a.Name,
		Email:     a.Email,
		ActionURL: s.Cfg.ResetPasswordLink(token),
		ExpiresAt: pt.ExpiresAt,
	})
	return token, nil
}

// ResetPassword consumes a reset token and applies its password hash.
// The account must still exist.
func (s *AuthService) ResetPassword(ctx context.Context, token string) error {
	pt, err := s.consume(ctx, token, helpers.PurposeReset)
	if err != nil {
		return err
	}
	var p entity.PendingReset
	if err := pt.Decode(&p); err != nil {
		return apperror.Auth("token is invalid", err)
	}

	a, err := s.Accounts.FindByEmail(ctx, p.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperror.NotFound("user was not found with this email address")
		}
		s.release(ctx, pt)
		return apperror.Internal("could not look up account", err)
	}
	if err := s.Accounts.UpdatePasswordByEmail(ctx, a.Email, p.PasswordHash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperror.NotFound("user was not found with this email address")
		}
		s.release(ctx, pt)
		return apperror.Internal("could not reset password", err)
	}
	// existing sessions were opened with the old password
	s.revokeSessions(ctx, a.ID)
	return nil
}
