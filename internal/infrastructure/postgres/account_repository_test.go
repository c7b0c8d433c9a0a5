package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

type fakeDB struct {
	rowErr  error
	execTag pgconn.CommandTag
	execErr error

	lastSQL  string
	lastArgs []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastSQL, f.lastArgs = sql, args
	return f.execTag, f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	return errRow{err: f.rowErr}
}

func TestInsertUniqueViolationIsEmailTaken(t *testing.T) {
	db := &fakeDB{rowErr: &pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"}}
	repo := NewAccountRepository(db)

	err := repo.Insert(context.Background(), &entity.Account{Email: " Alice@X.com ", Role: entity.RoleUser})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
	assert.Equal(t, "alice@x.com", db.lastArgs[0])
}

func TestInsertRejectsInvalidRole(t *testing.T) {
	repo := NewAccountRepository(&fakeDB{})
	err := repo.Insert(context.Background(), &entity.Account{Email: "a@x.com", Role: "root"})
	assert.Error(t, err)
}

func TestFindMissingIsNotFound(t *testing.T) {
	repo := NewAccountRepository(&fakeDB{rowErr: pgx.ErrNoRows})

	_, err := repo.FindByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.FindByID(context.Background(), "0b8f6f52-3b9f-4d1a-9d1e-4d0b6d1f2a11")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByMalformedIDIsNotFound(t *testing.T) {
	repo := NewAccountRepository(&fakeDB{rowErr: &pgconn.PgError{Code: "22P02"}})
	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestOtherErrorsPassThrough(t *testing.T) {
	boom := errors.New("connection reset")
	repo := NewAccountRepository(&fakeDB{rowErr: boom})
	_, err := repo.FindByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, boom)
}

func TestUpdatePasswordByEmailNoRows(t *testing.T) {
	db := &fakeDB{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewAccountRepository(db)

	err := repo.UpdatePasswordByEmail(context.Background(), "Gone@X.com", "hash")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []any{"gone@x.com", "hash"}, db.lastArgs)

	db.execTag = pgconn.NewCommandTag("UPDATE 1")
	assert.NoError(t, repo.UpdatePasswordByEmail(context.Background(), "a@x.com", "hash"))
}

func TestUpdateProfileWritesOnlyProfileColumns(t *testing.T) {
	db := &fakeDB{rowErr: pgx.ErrNoRows}
	repo := NewAccountRepository(db)

	_, err := repo.UpdateProfile(context.Background(), "acc-1", repository.ProfileChanges{Name: "Alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []any{"acc-1", "Alice", "", "h", "", ""}, db.lastArgs)
	assert.NotContains(t, db.lastSQL, "is_banned")
	assert.NotContains(t, db.lastSQL, "role =")
	assert.NotContains(t, db.lastSQL, "email =")
}

func TestSetBannedTouchesOnlyBanFlag(t *testing.T) {
	db := &fakeDB{rowErr: pgx.ErrNoRows}
	repo := NewAccountRepository(db)

	_, err := repo.SetBanned(context.Background(), "acc-1", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, db.lastSQL, "SET is_banned = $2, updated_at = now() WHERE id = $1")
	assert.Equal(t, []any{"acc-1", true}, db.lastArgs)
}

func TestUpsertAdminForcesAdminFlags(t *testing.T) {
	boom := errors.New("connection reset")
	db := &fakeDB{rowErr: boom}
	repo := NewAccountRepository(db)

	a := &entity.Account{Email: " Root@X.com", Name: "Root", PasswordHash: "h", Role: entity.RoleUser, IsBanned: true}
	assert.ErrorIs(t, repo.UpsertAdmin(context.Background(), a), boom)
	assert.Equal(t, []any{"root@x.com", "h", "Root"}, db.lastArgs)
	assert.Contains(t, db.lastSQL, "ON CONFLICT ON CONSTRAINT accounts_email_key")
	assert.Equal(t, entity.RoleAdmin, a.Role)
	assert.True(t, a.IsVerified)
	assert.False(t, a.IsBanned)
}

func TestDeleteByIDNoRows(t *testing.T) {
	repo := NewAccountRepository(&fakeDB{execTag: pgconn.NewCommandTag("DELETE 0")})
	assert.ErrorIs(t, repo.DeleteByID(context.Background(), "x"), repository.ErrNotFound)
}

func TestBuildListQuery(t *testing.T) {
	sql, args := buildListQuery(repository.AccountFilter{
		Role:   entity.RoleUser,
		Query:  "al_ice",
		Limit:  1000,
		Offset: -5,
	})
	assert.Equal(t,
		`SELECT `+accountColumns+` FROM accounts WHERE role = $1 AND (name ILIKE $2 OR email ILIKE $2) ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		sql)
	require.Len(t, args, 4)
	assert.Equal(t, "user", args[0])
	assert.Equal(t, `%al\_ice%`, args[1])
	assert.Equal(t, maxListLimit, args[2])
	assert.Equal(t, 0, args[3])
}

func TestBuildListQueryIDs(t *testing.T) {
	sql, args := buildListQuery(repository.AccountFilter{IDs: []string{"a", "b"}})
	assert.Contains(t, sql, "WHERE id::text = ANY($1)")
	assert.Equal(t, []string{"a", "b"}, args[0])
	assert.Equal(t, defaultListLimit, args[1])
}
