package repository

import (
	"context"
	"io"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
)

// ImageStore persists profile images and returns a URL that can be stored on the account.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
}

// AccountIndex mirrors accounts into a search index for the admin dashboard.
type AccountIndex interface {
	Index(ctx context.Context, a *entity.Account) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, role entity.Role, q string, limit, offset int) ([]string, error)
	Enabled() bool
}
