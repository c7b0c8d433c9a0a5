package application

import (
	"context"
	"errors"
	"strings"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	repo "github.com/oksasatya/go-account-service/internal/domain/repository"
	"github.com/oksasatya/go-account-service/pkg/apperror"
	"github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

// AccountService serves the signed-in account's own profile.
type AccountService struct {
	*Deps
}

func NewAccountService(d *Deps) *AccountService {
	return &AccountService{Deps: d}
}

// UpdateProfileInput holds the fields to change; empty fields are left as they are.
type UpdateProfileInput struct {
	Name     string
	Phone    string
	Password string
	Image    *ImageUpload
}

func (s *AccountService) Profile(ctx context.Context, accountID string) (*entity.Account, error) {
	return s.findAccount(ctx, accountID)
}

func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, in UpdateProfileInput) (*entity.Account, error) {
	a, err := s.findAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	changes, err := s.profileChanges(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.saveProfile(ctx, a, changes)
}

// profileChanges turns the input into column writes. The password is hashed
// and the image uploaded only when given.
func (d *Deps) profileChanges(ctx context.Context, in UpdateProfileInput) (repo.ProfileChanges, error) {
	c := repo.ProfileChanges{
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
	}
	if in.Password != "" {
		if err := checkPassword(in.Password); err != nil {
			return c, err
		}
		hash, err := d.hash(in.Password)
		if err != nil {
			return c, err
		}
		c.PasswordHash = hash
	}
	if in.Image != nil {
		url, ct, err := d.uploadImage(ctx, in.Image)
		if err != nil {
			return c, err
		}
		c.ImageURL, c.ImageContentType = url, ct
	}
	return c, nil
}

// saveProfile writes only the changed profile columns, so flags such as
// is_banned set concurrently by an admin survive.
func (d *Deps) saveProfile(ctx context.Context, a *entity.Account, c repo.ProfileChanges) (*entity.Account, error) {
	if c.Empty() {
		return a, nil
	}
	updated, err := d.Accounts.UpdateProfile(ctx, a.ID, c)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.NotFound("account not found")
		}
		return nil, apperror.Internal("could not update account", err)
	}
	d.index(ctx, updated)
	return updated, nil
}

// DeleteSelf removes the account and ends all of its sessions.
func (s *AccountService) DeleteSelf(ctx context.Context, accountID string) error {
	a, err := s.findAccount(ctx, accountID)
	if err != nil {
		return err
	}
	return s.remove(ctx, a)
}

func (d *Deps) remove(ctx context.Context, a *entity.Account) error {
	if err := d.Accounts.DeleteByID(ctx, a.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return apperror.NotFound("account not found")
		}
		return apperror.Internal("could not delete account", err)
	}
	d.revokeSessions(ctx, a.ID)
	d.unindex(ctx, a.ID)
	d.sendEmail(ctx, templates.AccountDeleted, templates.EmailData{Name: a.Name, Email: a.Email})
	return nil
}
