package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/apperror"
	"github.com/oksasatya/go-account-service/pkg/mailer/templates"
)

func TestProfile(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.deps)
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	a, err := svc.Profile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", a.Email)

	_, err = svc.Profile(context.Background(), "missing")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestUpdateProfileKeepsPasswordWhenEmpty(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.deps)
	ctx := context.Background()
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	a, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Name: "Alice B", Phone: " 555-2222 "})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", a.Name)
	assert.Equal(t, "555-2222", a.Phone)
	assert.Equal(t, alice.PasswordHash, a.PasswordHash)
	assert.True(t, h.deps.Hasher.Verify("secret1", a.PasswordHash))
	assert.Equal(t, "Alice B", h.index.docs[alice.ID].Name)
}

func TestUpdateProfileChangesPassword(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.deps)
	ctx := context.Background()
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	_, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Password: "abc"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	a, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Password: "newsecret"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", a.Name)
	assert.True(t, h.deps.Hasher.Verify("newsecret", a.PasswordHash))
}

func TestUpdateProfileKeepsBanSetDuringWrite(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.deps)
	admin := NewAdminService(h.deps)
	ctx := context.Background()
	root := h.seed(t, "Root", "root@x.com", "rootpass", entity.RoleAdmin)
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	// the ban lands after the profile was loaded and hashed, before it is written
	h.accounts.beforeProfileWrite = func() {
		_, err := admin.SetBanned(ctx, root.ID, alice.ID, true)
		require.NoError(t, err)
	}

	a, err := svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Name: "Alice B", Password: "newsecret"})
	require.NoError(t, err)
	assert.True(t, a.IsBanned)
	assert.Equal(t, "Alice B", a.Name)

	stored, err := h.accounts.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsBanned)
	assert.True(t, h.deps.Hasher.Verify("newsecret", stored.PasswordHash))
}

func TestUpdateProfileKeepsPasswordResetDuringWrite(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.deps)
	ctx := context.Background()
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	resetHash, err := h.deps.Hasher.Hash("resetsecret")
	require.NoError(t, err)
	h.accounts.beforeProfileWrite = func() {
		require.NoError(t, h.accounts.UpdatePasswordByEmail(ctx, alice.Email, resetHash))
	}

	_, err = svc.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Phone: "555-9999"})
	require.NoError(t, err)

	stored, err := h.accounts.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-9999", stored.Phone)
	assert.Equal(t, resetHash, stored.PasswordHash)
}

func TestUpdateProfileImage(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.deps)
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	a, err := svc.UpdateProfile(context.Background(), alice.ID, UpdateProfileInput{
		Image: &ImageUpload{Filename: "me.jpg", ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("jpg")},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://images.test/me.jpg", a.ImageURL)
	assert.Equal(t, []byte("jpg"), h.images.uploads[a.ImageURL])
}

func TestDeleteSelf(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.deps)
	ctx := context.Background()
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	sess, _, err := NewAuthService(h.deps).Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSelf(ctx, alice.ID))

	_, err = h.accounts.FindByID(ctx, alice.ID)
	assert.Error(t, err)
	_, err = h.deps.Sessions.Get(ctx, sess.Token)
	assert.Error(t, err)
	assert.Contains(t, h.index.removed, alice.ID)

	subject, _, _, err := templates.Render(templates.AccountDeleted, templates.EmailData{AppName: h.deps.Cfg.AppName})
	require.NoError(t, err)
	assert.Equal(t, subject, h.mail.last().Subject)

	err = svc.DeleteSelf(ctx, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
