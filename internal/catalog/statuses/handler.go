package statuses

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/catalog"
	"github.com/workbridge/workbridge/internal/platform/httpx"
	"github.com/workbridge/workbridge/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

// MountRoutes registers /api/statuses. Every route needs a session; writes
// need the admin role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Group(func(r chi.Router) {
			r.Use(h.authz.Require(authz.Policy{Role: shared.RoleAdmin}))
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), catalog.FiltersFromQuery(r))
	httpx.Reply(h.logger, w, r, "list statuses", http.StatusOK, out, err)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Get(r.Context(), id)
	httpx.Reply(h.logger, w, r, "get status", http.StatusOK, out, err)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Create(r.Context(), req)
	httpx.Reply(h.logger, w, r, "create status", http.StatusCreated, out, err)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req Request
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Update(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update status", http.StatusOK, out, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(h.logger, w, r, "delete status", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
