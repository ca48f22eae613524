package orders

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/platform/httpx"
	"github.com/workbridge/workbridge/internal/shared"
)

// Handler manages order endpoints.
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
	orderOwner   = authz.Policy{Ownership: authz.OrderOwner{}}
	skillOwner   = authz.Policy{Ownership: authz.OrderOwnerViaChild{Child: authz.KindOrdersSkill}}
	historyOwner = authz.Policy{Ownership: authz.OrderOwnerViaChild{Child: authz.KindOrderHistory}}
)

// MountRoutes registers /api/orders routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOrders)
	r.Get("/{id}", h.getOrder)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.Post("/", h.createOrder)
		r.With(h.authz.Require(orderOwner)).Patch("/{id}", h.updateOrder)
		r.With(h.authz.Require(orderOwner)).Delete("/{id}", h.deleteOrder)
	})
}

// MountOrdersSkills registers /api/orders-skills routes.
func (h *Handler) MountOrdersSkills(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.Get("/", h.listOrdersSkills)
		r.Get("/{id}", h.getOrdersSkill)
		r.With(h.authz.Require(orderOwner)).Post("/", h.createOrdersSkill)
		r.With(h.authz.Require(skillOwner)).Patch("/{id}", h.updateOrdersSkill)
		r.With(h.authz.Require(skillOwner)).Delete("/{id}", h.deleteOrdersSkill)
	})
}

// MountHistory registers /api/order-history routes.
func (h *Handler) MountHistory(r chi.Router) {
	r.Get("/", h.listHistory)
	r.Get("/{id}", h.getHistory)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate)
		r.With(h.authz.Require(orderOwner)).Post("/", h.createHistory)
		r.With(h.authz.Require(historyOwner)).Patch("/{id}", h.updateHistory)
		r.With(h.authz.Require(historyOwner)).Delete("/{id}", h.deleteHistory)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListOrders(r.Context())
	httpx.Reply(h.logger, w, r, "list orders", http.StatusOK, out, err)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.GetOrder(r.Context(), id)
	httpx.Reply(h.logger, w, r, "get order", http.StatusOK, out, err)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrNoToken)
		return
	}
	var req CreateOrderRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.CreateOrder(r.Context(), p, req)
	httpx.Reply(h.logger, w, r, "create order", http.StatusCreated, out, err)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateOrderRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.UpdateOrder(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update order", http.StatusOK, out, err)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "delete order", h.service.DeleteOrder)
}

func (h *Handler) listOrdersSkills(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListOrdersSkills(r.Context())
	httpx.Reply(h.logger, w, r, "list orders skills", http.StatusOK, out, err)
}

func (h *Handler) getOrdersSkill(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.GetOrdersSkill(r.Context(), id)
	httpx.Reply(h.logger, w, r, "get orders skill", http.StatusOK, out, err)
}

func (h *Handler) createOrdersSkill(w http.ResponseWriter, r *http.Request) {
	var req CreateOrdersSkillRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.AddSkill(r.Context(), req)
	httpx.Reply(h.logger, w, r, "create orders skill", http.StatusCreated, out, err)
}

func (h *Handler) updateOrdersSkill(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateOrdersSkillRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.ChangeSkill(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update orders skill", http.StatusOK, out, err)
}

func (h *Handler) deleteOrdersSkill(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "delete orders skill", h.service.RemoveSkill)
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	var orderID int64
	if raw := r.URL.Query().Get("order_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order_id")
			return
		}
		orderID = v
	}
	out, err := h.service.ListHistory(r.Context(), orderID)
	httpx.Reply(h.logger, w, r, "list order history", http.StatusOK, out, err)
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.GetHistory(r.Context(), id)
	httpx.Reply(h.logger, w, r, "get order history", http.StatusOK, out, err)
}

func (h *Handler) createHistory(w http.ResponseWriter, r *http.Request) {
	var req CreateHistoryRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.RecordStatus(r.Context(), req)
	httpx.Reply(h.logger, w, r, "record order status", http.StatusCreated, out, err)
}

func (h *Handler) updateHistory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateHistoryRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.UpdateHistory(r.Context(), id, req)
	httpx.Reply(h.logger, w, r, "update order history", http.StatusOK, out, err)
}

func (h *Handler) deleteHistory(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, "delete order history", h.service.DeleteHistory)
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
