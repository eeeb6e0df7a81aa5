package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wisdomhub/filekeep/internal/domain/user"
	"github.com/wisdomhub/filekeep/internal/observability"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, files, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// NewUsersRepo builds the repo; prom may be nil.
func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		return scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE email = $1`,
			email,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// Create inserts u. The unique index on email is the authority on duplicates,
// so concurrent registrations for one email cannot both succeed.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if u.Files == nil {
		u.Files = []string{}
	}

	var out user.User

	err := r.prom.ObserveDB("users.create", func() error {
		return scanUser(r.pool.QueryRow(
			ctx,
			`INSERT INTO users (id, username, email, password_hash, files, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING `+userColumns,
			u.ID, u.Username, u.Email, u.PasswordHash, u.Files, u.CreatedAt, u.UpdatedAt,
		), &out)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return out, nil
}

// AppendFile pushes fileID onto the user's files in a single statement.
func (r *UsersRepo) AppendFile(ctx context.Context, email, fileID string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.append_file", func() error {
		return scanUser(r.pool.QueryRow(
			ctx,
			`UPDATE users
			SET files = array_append(files, $2), updated_at = NOW()
			WHERE email = $1
			RETURNING `+userColumns,
			email, fileID,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, fmt.Errorf("append file: %w", err)
	}

	return u, nil
}

func scanUser(row pgx.Row, u *user.User) error {
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Files,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if u.Files == nil {
		u.Files = []string{}
	}
	return nil
}
