package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkuznetsov/storefront/internal/domain/identity"
)

const (
	getUserByIDSQL = `SELECT u.id, u.username, u.email, r.name
		FROM users u JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`

	listUsersSQL = `SELECT u.id, u.username, u.email, r.name
		FROM users u JOIN roles r ON r.id = u.role_id
		ORDER BY u.id`
)

// ErrUserNotFound is returned when a user lookup fails.
var ErrUserNotFound = errors.New("user not found")

var _ identity.UserRepository = (*UserRepository)(nil)

// UserRepository implements identity.UserRepository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns a user with its role resolved.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*identity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, getUserByIDSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, storageErr("getting user", err)
	}
	return u, nil
}

// List returns all users. Super-admin reporting only.
func (r *UserRepository) List(ctx context.Context) ([]identity.User, error) {
	rows, err := r.pool.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, storageErr("listing users", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (identity.User, error) {
		u, err := scanUser(row)
		if err != nil {
			return identity.User{}, err
		}
		return *u, nil
	})
}

func scanUser(row pgx.Row) (*identity.User, error) {
	var (
		u        identity.User
		roleName string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &roleName); err != nil {
		return nil, err
	}
	role, err := identity.ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	u.Role = role
	return &u, nil
}
