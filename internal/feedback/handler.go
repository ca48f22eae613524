package feedback

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/platform/httpx"
	"github.com/workbridge/workbridge/internal/shared"
)

// Handler manages complaint and comment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

var (
	adminOnly = authz.Policy{Role: shared.RoleAdmin}
	selfBody  = authz.Policy{Ownership: authz.SelfByBodyField{Field: authz.FieldUserID}}
)

// MountComplaints registers /api/complaints routes.
func (h *Handler) MountComplaints(r chi.Router) {
	r.Get("/", h.listComplaints)
	r.Get("/{id}", h.getComplaint)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.Post("/", h.fileComplaint)
		r.With(h.authz.Require(adminOnly)).Patch("/{id}", h.updateComplaint)
		r.With(h.authz.Require(adminOnly)).Delete("/{id}", h.remove("delete complaint", h.service.DeleteComplaint))
	})
}

// MountUserComplaints registers /api/user-complaints routes.
func (h *Handler) MountUserComplaints(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.Get("/", h.listUserComplaints)
		r.Get("/{id}", h.getUserComplaint)
		r.With(h.authz.Require(selfBody)).Post("/", h.createUserComplaint)
		r.With(h.authz.Require(adminOnly)).Patch("/{id}", h.updateUserComplaint)
		r.With(h.authz.Require(adminOnly)).Delete("/{id}", h.remove("delete user complaint", h.service.DeleteUserComplaint))
	})
}

// MountComments registers /api/comments routes.
func (h *Handler) MountComments(r chi.Router) {
	r.Get("/", h.listComments)
	r.Get("/{id}", h.getComment)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.With(h.authz.Require(selfBody)).Post("/", h.postComment)
		r.With(h.authz.Require(adminOnly)).Patch("/{id}", h.updateComment)
		r.With(h.authz.Require(adminOnly)).Delete("/{id}", h.remove("delete comment", h.service.DeleteComment))
	})
}

func (h *Handler) listComplaints(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListComplaints(r.Context())
	httpx.Reply(h.logger, w, r, "list complaints", http.StatusOK, out, err)
}

func (h *Handler) getComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.GetComplaint(r.Context(), id)
	httpx.Reply(h.logger, w, r, "get complaint", http.StatusOK, out, err)
}

func (h *Handler) fileComplaint(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrNoToken)
		return
	}
	var req ComplaintRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.FileComplaint(r.Context(), p, req)
	httpx.Reply(h.logger, w, r, "file complaint", http.StatusCreated, out, err)
}

func (h *Handler) updateComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ComplaintRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.UpdateComplaint(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update complaint", http.StatusOK, out, err)
}

func (h *Handler) listUserComplaints(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListUserComplaints(r.Context())
	httpx.Reply(h.logger, w, r, "list user complaints", http.StatusOK, out, err)
}

func (h *Handler) getUserComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.GetUserComplaint(r.Context(), id)
	httpx.Reply(h.logger, w, r, "get user complaint", http.StatusOK, out, err)
}

func (h *Handler) createUserComplaint(w http.ResponseWriter, r *http.Request) {
	var req CreateUserComplaintRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.CreateUserComplaint(r.Context(), req)
	httpx.Reply(h.logger, w, r, "create user complaint", http.StatusCreated, out, err)
}

func (h *Handler) updateUserComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateUserComplaintRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.UpdateUserComplaint(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update user complaint", http.StatusOK, out, err)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListComments(r.Context())
	httpx.Reply(h.logger, w, r, "list comments", http.StatusOK, out, err)
}

func (h *Handler) getComment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.GetComment(r.Context(), id)
	httpx.Reply(h.logger, w, r, "get comment", http.StatusOK, out, err)
}

func (h *Handler) postComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.PostComment(r.Context(), req)
	httpx.Reply(h.logger, w, r, "post comment", http.StatusCreated, out, err)
}

func (h *Handler) updateComment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateCommentRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.UpdateComment(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update comment", http.StatusOK, out, err)
}

func (h *Handler) remove(msg string, del func(ctx context.Context, id int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := del(r.Context(), id); err != nil {
			httpx.Fail(h.logger, w, r, msg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
