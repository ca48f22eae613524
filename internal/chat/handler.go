package chat

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

// Handler manages room and message endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

var (
	roomCreator   = authz.Policy{Ownership: authz.RoomParticipant{OnCreate: true}}
	messageAuthor = authz.Policy{Ownership: authz.SelfByBodyField{Field: authz.FieldUserID}}
	messageOwner  = authz.Policy{Ownership: authz.SelfByBodyField{Field: authz.FieldUserID, Of: authz.KindMessage}}
)

// MountRooms registers /api/rooms routes.
func (h *Handler) MountRooms(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.Get("/", h.listRooms)
		r.With(h.authz.Require(roomCreator)).Post("/", h.createRoom)
		r.Group(func(r chi.Router) {
			r.Use(h.authz.Require(participant))
			r.Get("/{id}", h.getRoom)
			r.Patch("/{id}", h.updateRoom)
			r.Delete("/{id}", h.deleteRoom)
			r.Get("/{id}/messages", h.listMessages)
		})
	})
}

// MountMessages registers /api/messages routes.
func (h *Handler) MountMessages(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.With(h.authz.Require(messageAuthor)).Post("/", h.createMessage)
		r.With(h.authz.Require(messageOwner)).Patch("/{id}", h.updateMessage)
		r.With(h.authz.Require(messageOwner)).Delete("/{id}", h.deleteMessage)
	})
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrNoToken)
		return
	}
	out, err := h.service.ListRooms(r.Context(), p)
	httpx.Reply(h.logger, w, r, "list rooms", http.StatusOK, out, err)
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.GetRoom(r.Context(), id)
	httpx.Reply(h.logger, w, r, "get room", http.StatusOK, out, err)
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.CreateRoom(r.Context(), req)
	httpx.Reply(h.logger, w, r, "create room", http.StatusCreated, out, err)
}

func (h *Handler) updateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRoomRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.UpdateRoom(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update room", http.StatusOK, out, err)
}

func (h *Handler) deleteRoom(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "delete room", h.service.DeleteRoom)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.ListMessages(r.Context(), id)
	httpx.Reply(h.logger, w, r, "list messages", http.StatusOK, out, err)
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrNoToken)
		return
	}
	var req CreateMessageRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.PostMessage(r.Context(), p, req)
	httpx.Reply(h.logger, w, r, "post message", http.StatusCreated, out, err)
}

func (h *Handler) updateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateMessageRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.EditMessage(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update message", http.StatusOK, out, err)
}

func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "delete message", h.service.DeleteMessage)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, msg string, del func(ctx context.Context, id int64) error) {
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
