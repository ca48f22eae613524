package rating

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/platform/httpx"
)

// Rater applies a rating.
type Rater interface {
	Rate(ctx context.Context, userID int64, value float64) (float64, error)
}

// Handler serves POST /users/{id}/rating.
type Handler struct {
	logger    *slog.Logger
	service   Rater
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service Rater, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers the rating route on the users router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authz.Require(authz.Policy{Ownership: authz.NotSelf{}})).Post("/{id}/rating", h.rate)
}

type rateRequest struct {
	Rating *float64 `json:"rating" validate:"required"`
}

type rateResponse struct {
	ID     int64   `json:"id"`
	Rating float64 `json:"rating"`
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req rateRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	stored, err := h.service.Rate(r.Context(), id, *req.Rating)
	if err != nil {
		httpx.Fail(h.logger, w, r, "rate user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rateResponse{ID: id, Rating: stored})
}
