// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workbridge/workbridge/internal/shared"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: malformed json body", shared.ErrInvalidInput)
	}
	return nil
}

// Bind decodes the JSON body into target and validates its struct tags.
func Bind(r *http.Request, v *validator.Validate, target any) error {
	if err := DecodeJSON(r, target); err != nil {
		return err
	}
	return v.Struct(target)
}

// IDParam parses a positive int64 path parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", shared.ErrInvalidInput, name)
	}
	return id, nil
}
