package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/workbridge/workbridge/internal/platform/httpx"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.HandleLogin)
}

// HandleLogin exchanges credentials for a token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		httpx.Fail(h.logger, w, r, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, TokenResponse{Token: token})
}

// HandleRegister creates an account. It is mounted by the users module at
// POST /api/users.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.Bind(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, token, err := h.service.Register(r.Context(), req)
	if err != nil {
		httpx.Fail(h.logger, w, r, "register", err)
		return
	}
	h.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	httpx.JSON(w, http.StatusCreated, TokenResponse{Success: true, Token: token})
}
