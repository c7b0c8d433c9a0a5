package entity

import (
	"strings"
	"time"
)

// Account is the aggregate root for the account domain.
// PasswordHash holds a bcrypt hash, never the plaintext.
type Account struct {
	ID               string
	Email            string
	PasswordHash     string
	Name             string
	Phone            string
	Role             Role
	IsVerified       bool
	IsBanned         bool
	ImageURL         string
	ImageContentType string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }

// AccountView is the outward representation of an Account. It has no password field.
type AccountView struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"is_verified"`
	IsBanned   bool      `json:"is_banned"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Account) Public() AccountView {
	return AccountView{
		ID:         a.ID,
		Email:      a.Email,
		Name:       a.Name,
		Phone:      a.Phone,
		Role:       a.Role,
		IsVerified: a.IsVerified,
		IsBanned:   a.IsBanned,
		ImageURL:   a.ImageURL,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// NormalizeEmail is the canonical form used for lookups and the uniqueness constraint.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
