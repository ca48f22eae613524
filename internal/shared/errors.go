package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNoToken indicates the request carried no bearer token.
	ErrNoToken = errors.New("no token provided")
	// ErrTokenInvalid indicates a bad signature, malformed payload or expired token.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrUserNotFound indicates a valid token whose account no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden indicates a failed role or ownership rule.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a malformed locator, body or value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entry")
)

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// IsForeignKeyViolation reports whether err is a postgres foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
