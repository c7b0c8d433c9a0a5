package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/pkg/apperror"
)

func TestAdminLogin(t *testing.T) {
	h := newHarness(t)
	svc := NewAdminService(h.deps)
	ctx := context.Background()
	root := h.seed(t, "Root", "root@x.com", "rootpass", entity.RoleAdmin)
	h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	sess, a, err := svc.Login(ctx, "root@x.com", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, root.ID, a.ID)
	assert.Equal(t, entity.RoleAdmin, sess.Role)
	assert.Equal(t, entity.AudienceAdmin, sess.Audience)

	_, _, err = svc.Login(ctx, "alice@x.com", "secret1")
	assert.True(t, apperror.Is(err, apperror.KindForbidden), "got %v", err)

	_, _, err = svc.Login(ctx, "root@x.com", "wrongpass")
	assert.True(t, apperror.Is(err, apperror.KindAuth), "got %v", err)
}

func TestListUsersOnlyUsers(t *testing.T) {
	h := newHarness(t)
	svc := NewAdminService(h.deps)
	h.seed(t, "Root", "root@x.com", "rootpass", entity.RoleAdmin)
	h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)
	h.seed(t, "Bob", "bob@x.com", "secret1", entity.RoleUser)

	users, err := svc.ListUsers(context.Background(), ListUsersInput{})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bob", users[0].Name, "newest first")
	for _, u := range users {
		assert.Equal(t, entity.RoleUser, u.Role)
	}
}

func TestListUsersSearchUsesIndex(t *testing.T) {
	h := newHarness(t)
	svc := NewAdminService(h.deps)
	ctx := context.Background()
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)
	bob := h.seed(t, "Bob", "bob@x.com", "secret1", entity.RoleUser)
	for _, a := range []*entity.Account{alice, bob} {
		require.NoError(t, h.index.Index(ctx, a))
	}

	users, err := svc.ListUsers(ctx, ListUsersInput{Query: "ali"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)
}

func TestListUsersSearchFallsBackToDatabase(t *testing.T) {
	h := newHarness(t)
	svc := NewAdminService(h.deps)
	h.index.err = errors.New("cluster red")
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)
	h.seed(t, "Bob", "bob@x.com", "secret1", entity.RoleUser)

	users, err := svc.ListUsers(context.Background(), ListUsersInput{Query: "ALI"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)
}

func TestAdminCreateAccount(t *testing.T) {
	h := newHarness(t)
	svc := NewAdminService(h.deps)
	ctx := context.Background()

	a, err := svc.CreateAccount(ctx, CreateAccountInput{Name: "Carol", Email: "Carol@X.com", Phone: "555-3333", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, a.IsVerified)
	assert.Equal(t, entity.RoleUser, a.Role)
	assert.Equal(t, "carol@x.com", a.Email)

	_, err = svc.CreateAccount(ctx, CreateAccountInput{Name: "Carol", Email: "carol@x.com", Phone: "555-3333", Password: "secret1"})
	assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)

	_, err = svc.CreateAccount(ctx, CreateAccountInput{Name: "Dan", Email: "dan@x.com", Phone: "1", Password: "123"})
	assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
}

func TestAdminBanEndsSessionsAndBlocksLogin(t *testing.T) {
	h := newHarness(t)
	admin := NewAdminService(h.deps)
	auth := NewAuthService(h.deps)
	ctx := context.Background()
	root := h.seed(t, "Root", "root@x.com", "rootpass", entity.RoleAdmin)
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	sess, _, err := auth.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)

	a, err := admin.SetBanned(ctx, root.ID, alice.ID, true)
	require.NoError(t, err)
	assert.True(t, a.IsBanned)

	_, err = h.deps.Sessions.Get(ctx, sess.Token)
	assert.Error(t, err)
	_, _, err = auth.Login(ctx, "alice@x.com", "secret1")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = admin.SetBanned(ctx, root.ID, alice.ID, false)
	require.NoError(t, err)
	_, _, err = auth.Login(ctx, "alice@x.com", "secret1")
	assert.NoError(t, err)
}

func TestAdminCannotTargetSelfOrAdmins(t *testing.T) {
	h := newHarness(t)
	svc := NewAdminService(h.deps)
	ctx := context.Background()
	root := h.seed(t, "Root", "root@x.com", "rootpass", entity.RoleAdmin)
	other := h.seed(t, "Other", "other@x.com", "rootpass", entity.RoleAdmin)

	_, err := svc.SetBanned(ctx, root.ID, root.ID, true)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	err = svc.DeleteUser(ctx, root.ID, root.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	err = svc.DeleteUser(ctx, root.ID, other.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = svc.GetUser(ctx, root.ID, other.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestAdminUpdateAndDeleteUser(t *testing.T) {
	h := newHarness(t)
	svc := NewAdminService(h.deps)
	ctx := context.Background()
	root := h.seed(t, "Root", "root@x.com", "rootpass", entity.RoleAdmin)
	alice := h.seed(t, "Alice", "alice@x.com", "secret1", entity.RoleUser)

	a, err := svc.UpdateUser(ctx, root.ID, alice.ID, UpdateProfileInput{Phone: "555-9999"})
	require.NoError(t, err)
	assert.Equal(t, "555-9999", a.Phone)

	got, err := svc.GetUser(ctx, root.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "555-9999", got.Phone)

	require.NoError(t, svc.DeleteUser(ctx, root.ID, alice.ID))
	_, err = svc.GetUser(ctx, root.ID, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	err = svc.DeleteUser(ctx, root.ID, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
