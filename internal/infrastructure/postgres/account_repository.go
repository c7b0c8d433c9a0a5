package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

const (
	pgUniqueViolation = "23505"
	pgInvalidTextRepr = "22P02"
	accountColumns    = `id, email, password_hash, name, phone, role, is_verified, is_banned, image_url, image_content_type, created_at, updated_at`
	defaultListLimit  = 50
	maxListLimit      = 200
)

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

var _ repository.AccountRepository = (*AccountRepository)(nil)

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	var role string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &a.Phone, &role,
		&a.IsVerified, &a.IsBanned, &a.ImageURL, &a.ImageContentType,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	r, err := entity.ParseRole(role)
	if err != nil {
		return nil, err
	}
	a.Role = r
	return a, nil
}

// mapErr translates driver errors into repository sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return repository.ErrEmailTaken
		case pgInvalidTextRepr:
			// malformed uuid in a lookup
			return repository.ErrNotFound
		}
	}
	return err
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, entity.NormalizeEmail(email)))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// Insert relies on the unique constraint on email, so two concurrent inserts
// for the same address cannot both succeed.
func (r *AccountRepository) Insert(ctx context.Context, a *entity.Account) error {
	if !a.Role.Valid() {
		return fmt.Errorf("insert account: invalid role %q", a.Role)
	}
	a.Email = entity.NormalizeEmail(a.Email)
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash, name, phone, role, is_verified, is_banned, image_url, image_content_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, a.Email, a.PasswordHash, a.Name, a.Phone, a.Role.String(), a.IsVerified, a.IsBanned, a.ImageURL, a.ImageContentType)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, c repository.ProfileChanges) (*entity.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `
		UPDATE accounts
		SET name = COALESCE(NULLIF($2, ''), name),
		    phone = COALESCE(NULLIF($3, ''), phone),
		    password_hash = COALESCE(NULLIF($4, ''), password_hash),
		    image_url = COALESCE(NULLIF($5, ''), image_url),
		    image_content_type = COALESCE(NULLIF($6, ''), image_content_type),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, c.Name, c.Phone, c.PasswordHash, c.ImageURL, c.ImageContentType))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (r *AccountRepository) SetBanned(ctx context.Context, id string, banned bool) (*entity.Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx,
		`UPDATE accounts SET is_banned = $2, updated_at = now() WHERE id = $1 RETURNING `+accountColumns,
		id, banned))
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// UpsertAdmin creates the bootstrap admin, or resets name, password and
// access flags of the account holding that email.
func (r *AccountRepository) UpsertAdmin(ctx context.Context, a *entity.Account) error {
	a.Email = entity.NormalizeEmail(a.Email)
	a.Role, a.IsVerified, a.IsBanned = entity.RoleAdmin, true, false
	row := r.db.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash, name, phone, role, is_verified, is_banned)
		VALUES ($1, $2, $3, '', 'admin', true, false)
		ON CONFLICT ON CONSTRAINT accounts_email_key DO UPDATE
		SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash,
		    role = 'admin', is_verified = true, is_banned = false, updated_at = now()
		RETURNING id, created_at, updated_at
	`, a.Email, a.PasswordHash, a.Name)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *AccountRepository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET password_hash = $2, updated_at = now() WHERE email = $1`,
		entity.NormalizeEmail(email), passwordHash)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, f repository.AccountFilter) ([]*entity.Account, error) {
	sql, args := buildListQuery(f)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]*entity.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func buildListQuery(f repository.AccountFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Role != "" {
		where = append(where, "role = "+arg(f.Role.String()))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		where = append(where, "(name ILIKE "+p+" OR email ILIKE "+p+")")
	}
	if f.IDs != nil {
		where = append(where, "id::text = ANY("+arg(f.IDs)+")")
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + accountColumns + ` FROM accounts`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	b.WriteString(" ORDER BY created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(offset))
	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
