package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/observability"
	"github.com/storefront/catalogapi/internal/store"
)

const userColumns = `id, name, email, password_hash, role, is_active, last_login, created_at, updated_at`

type UsersRepo struct {
	base
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{base{pool: pool, prom: prom}}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func mapUserError(err error) error {
	err = MapError(err, user.ErrNotFound)
	if errors.Is(err, store.ErrDuplicate) {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var u user.User

	err := r.observe("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (name, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING `+userColumns,
			nu.Name, user.NormalizeEmail(nu.Email), nu.PasswordHash, nu.Role,
		))
		return err
	})

	if err != nil {
		return user.User{}, mapUserError(err)
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})

	if err != nil {
		return user.User{}, mapUserError(err)
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = $1`,
			user.NormalizeEmail(email),
		))
		return err
	})

	if err != nil {
		return user.User{}, mapUserError(err)
	}
	return u, nil
}

// List returns active users newest first plus the total number of active users.
func (r *UsersRepo) List(ctx context.Context, limit, offset int) ([]user.User, int, error) {
	var total int

	err := r.observe("users.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active`).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]user.User, 0, limit)

	err = r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE is_active
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2`,
			limit, offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *UsersRepo) Update(ctx context.Context, id int64, ch user.Changes) (user.User, error) {
	if ch.Empty() {
		return r.GetByID(ctx, id)
	}

	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if ch.Name != nil {
		add("name", *ch.Name)
	}
	if ch.Email != nil {
		add("email", user.NormalizeEmail(*ch.Email))
	}
	if ch.PasswordHash != nil {
		add("password_hash", *ch.PasswordHash)
	}

	var u user.User
	err := r.observe("users.update", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+userColumns,
			args...,
		))
		return err
	})

	if err != nil {
		return user.User{}, mapUserError(err)
	}
	return u, nil
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.observe("users.touch_last_login", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users SET last_login = NOW() WHERE id = $1 RETURNING `+userColumns,
			id,
		))
		return err
	})

	if err != nil {
		return user.User{}, mapUserError(err)
	}
	return u, nil
}

// Delete removes the row. Users still referenced by products fail with store.ErrForeignKey.
func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.observe("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return mapUserError(err)
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}
