// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/workbridge/workbridge/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch status := StatusOf(err); {
	case errors.As(err, &verrs):
		Problem(w, status, "Validation Failed", validationDetail(verrs))
	case status == http.StatusInternalServerError:
		Problem(w, status, "Internal Error", "")
	default:
		Problem(w, status, http.StatusText(status), err.Error())
	}
}

// StatusOf returns the HTTP status RespondError uses for err.
func StatusOf(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, shared.ErrNoToken),
		errors.Is(err, shared.ErrTokenInvalid),
		errors.Is(err, shared.ErrUserNotFound),
		errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicate):
		return http.StatusConflict
	case errors.As(err, &verrs), errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Fail logs server-side failures before responding.
func Fail(logger *slog.Logger, w http.ResponseWriter, r *http.Request, msg string, err error) {
	if logger != nil && StatusOf(err) >= http.StatusInternalServerError {
		logger.Error(msg, slog.Any("error", err), slog.String("path", r.URL.Path))
	}
	RespondError(w, err)
}

func validationDetail(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

// Reply writes body with status, or the mapped problem when err is set.
func Reply(logger *slog.Logger, w http.ResponseWriter, r *http.Request, msg string, status int, body any, err error) {
	if err != nil {
		Fail(logger, w, r, msg, err)
		return
	}
	JSON(w, status, body)
}
