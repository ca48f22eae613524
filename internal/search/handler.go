package search

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/platform/httpx"
)

// Handler serves /api/search.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw}
}

// MountRoutes registers the search routes; both need a session.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.Get("/users", h.users)
		r.Get("/orders", h.orders)
	})
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	q, err := ParseUserQuery(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Users(r.Context(), q)
	httpx.Reply(h.logger, w, r, "search users", http.StatusOK, out, err)
}

func (h *Handler) orders(w http.ResponseWriter, r *http.Request) {
	q, err := ParseOrderQuery(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Orders(r.Context(), q)
	httpx.Reply(h.logger, w, r, "search orders", http.StatusOK, out, err)
}
