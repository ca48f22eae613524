package users

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

// Handler manages user endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	register  http.HandlerFunc
	validator *validator.Validate
}

// NewHandler builds Handler instance. register serves account creation at
// POST /api/users and may be nil.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware, register http.HandlerFunc) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, register: register, validator: validator.New()}
}

var (
	self      = authz.Policy{Ownership: authz.SelfByID{}}
	linkOwner = authz.Policy{Ownership: authz.SelfByBodyField{Field: authz.FieldUserID}}
	linkSelf  = authz.Policy{Ownership: authz.SelfByBodyField{Field: authz.FieldUserID, Of: authz.KindUsersSkill}}
)

// MountRoutes registers /api/users routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.register != nil {
		r.Post("/", h.register)
	}
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.Get("/", h.listUsers)
		r.Get("/me", h.me)
		r.Get("/{id}", h.getUser)
		r.Group(func(r chi.Router) {
			r.Use(h.authz.Require(self))
			r.Patch("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
			r.Post("/{id}/skills/{skillId}", h.linkSkill)
			r.Delete("/{id}/skills/{skillId}", h.unlinkSkill)
			r.Post("/{id}/image", h.uploadImage)
			r.Delete("/{id}/image", h.deleteImage)
			r.Post("/{id}/pdf", h.uploadPDF)
			r.Delete("/{id}/pdf", h.deletePDF)
		})
	})
}

// MountUsersSkills registers /api/users-skills routes.
func (h *Handler) MountUsersSkills(r chi.Router) {
	r.Get("/", h.listUsersSkills)
	r.Get("/{id}", h.getUsersSkill)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.With(h.authz.Require(linkOwner)).Post("/", h.createUsersSkill)
		r.With(h.authz.Require(linkSelf)).Patch("/{id}", h.updateUsersSkill)
		r.With(h.authz.Require(linkSelf)).Delete("/{id}", h.deleteUsersSkill)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrNoToken)
		return
	}
	me, err := h.service.Me(r.Context(), p)
	if err != nil {
		httpx.Fail(h.logger, w, r, "load me", err)
		return
	}
	httpx.JSON(w, http.StatusOK, me)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	u, err := h.service.UpdateUser(r.Context(), id, req)
	if err != nil {
		httpx.Fail(h.logger, w, r, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httpx.Fail(h.logger, w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) linkSkill(w http.ResponseWriter, r *http.Request) {
	id, skillID, err := h.userSkillParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	link, err := h.service.LinkSkill(r.Context(), id, skillID)
	if err != nil {
		httpx.Fail(h.logger, w, r, "link skill", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, link)
}

func (h *Handler) unlinkSkill(w http.ResponseWriter, r *http.Request) {
	id, skillID, err := h.userSkillParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.UnlinkSkill(r.Context(), id, skillID); err != nil {
		httpx.Fail(h.logger, w, r, "unlink skill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userSkillParams(r *http.Request) (int64, int64, error) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		return 0, 0, err
	}
	skillID, err := httpx.IDParam(r, "skillId")
	if err != nil {
		return 0, 0, err
	}
	return id, skillID, nil
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.service.SetImage)
}

func (h *Handler) uploadPDF(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.service.SetPDF)
}

func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	h.clear(w, r, h.service.ClearImage)
}

func (h *Handler) deletePDF(w http.ResponseWriter, r *http.Request) {
	h.clear(w, r, h.service.ClearPDF)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, r *http.Request, id int64) (string, error)) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	url, err := set(r.Context(), r, id)
	if err != nil {
		httpx.Fail(h.logger, w, r, "upload user file", err)
		return
	}
	httpx.JSON(w, http.StatusOK, UploadResponse{URL: url})
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request, clear func(ctx context.Context, id int64) error) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := clear(r.Context(), id); err != nil {
		httpx.Fail(h.logger, w, r, "clear user file", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUsersSkills(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.ListUsersSkills(r.Context())
	if err != nil {
		httpx.Fail(h.logger, w, r, "list users skills", err)
		return
	}
	httpx.JSON(w, http.StatusOK, links)
}

func (h *Handler) getUsersSkill(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	link, err := h.service.GetUsersSkill(r.Context(), id)
	if err != nil {
		httpx.Fail(h.logger, w, r, "get users skill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, link)
}

func (h *Handler) createUsersSkill(w http.ResponseWriter, r *http.Request) {
	var req CreateUsersSkillRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	link, err := h.service.CreateUsersSkill(r.Context(), req)
	if err != nil {
		httpx.Fail(h.logger, w, r, "create users skill", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, link)
}

func (h *Handler) updateUsersSkill(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateUsersSkillRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	link, err := h.service.UpdateUsersSkill(r.Context(), id, req)
	if err != nil {
		httpx.Fail(h.logger, w, r, "update users skill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, link)
}

func (h *Handler) deleteUsersSkill(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteUsersSkill(r.Context(), id); err != nil {
		httpx.Fail(h.logger, w, r, "delete users skill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
