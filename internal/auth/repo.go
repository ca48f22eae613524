package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workbridge/workbridge/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u NewUser) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, name, surname, email, password_hash, role, created_at`

// FindByEmail fetches a user by email. Emails compare case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	return user, nil
}

// Create inserts a new account.
func (r *PGRepository) Create(ctx context.Context, u NewUser) (*User, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (name, surname, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns, u.Name, u.Surname, u.Email, u.PasswordHash, u.Role)
	user, err := scanUser(row)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", shared.ErrDuplicate)
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var _ Repository = (*PGRepository)(nil)
