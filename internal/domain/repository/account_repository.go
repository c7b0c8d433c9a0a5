package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// AccountFilter narrows List. Query matches name or email, case-insensitive.
// A non-nil IDs restricts the result to those accounts.
type AccountFilter struct {
	Role   entity.Role
	Query  string
	IDs    []string
	Limit  int
	Offset int
}

// ProfileChanges lists profile columns to write. Empty fields keep the stored
// value, so a write never touches columns it did not mean to change.
type ProfileChanges struct {
	Name             string
	Phone            string
	PasswordHash     string
	ImageURL         string
	ImageContentType string
}

func (c ProfileChanges) Empty() bool {
	return c == ProfileChanges{}
}

// AccountRepository defines persistence for accounts. Implementations must
// enforce email uniqueness atomically and report violations as ErrEmailTaken.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	FindByID(ctx context.Context, id string) (*entity.Account, error)
	Insert(ctx context.Context, a *entity.Account) error
	// UpdateProfile applies c and returns the stored account.
	UpdateProfile(ctx context.Context, id string, c ProfileChanges) (*entity.Account, error)
	SetBanned(ctx context.Context, id string, banned bool) (*entity.Account, error)
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
	DeleteByID(ctx context.Context, id string) error
	List(ctx context.Context, f AccountFilter) ([]*entity.Account, error)
}
