package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/workbridge/workbridge/internal/audit/http"
	"github.com/workbridge/workbridge/internal/auth"
	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/catalog/regions"
	"github.com/workbridge/workbridge/internal/catalog/skills"
	"github.com/workbridge/workbridge/internal/catalog/statuses"
	"github.com/workbridge/workbridge/internal/chat"
	"github.com/workbridge/workbridge/internal/feedback"
	"github.com/workbridge/workbridge/internal/observability"
	"github.com/workbridge/workbridge/internal/orders"
	"github.com/workbridge/workbridge/internal/rating"
	"github.com/workbridge/workbridge/internal/search"
	"github.com/workbridge/workbridge/internal/shared"
	"github.com/workbridge/workbridge/internal/users"
	"github.com/workbridge/workbridge/jobs"
)

// RouterParams groups dependencies for building the HTTP router. Nil handlers
// are skipped.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config
	Authz  authz.Middleware

	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	RatingHandler   *rating.Handler
	OrdersHandler   *orders.Handler
	ChatHandler     *chat.Handler
	Hub             http.Handler
	SkillsHandler   *skills.Handler
	StatusesHandler *statuses.Handler
	RegionsHandler  *regions.Handler
	FeedbackHandler *feedback.Handler
	SearchHandler   *search.Handler
	AuditHandler    *audithttp.Handler
	JobHandler      *jobs.Handler
	Files           http.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with workbridge defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	mwCfg := MiddlewareConfig{Logger: params.Logger, Config: params.Config, Metrics: params.Metrics}

	for _, mw := range MiddlewareStack(mwCfg) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.Files != nil {
		r.Handle("/files/*", http.StripPrefix("/files", params.Files))
	}
	if params.Hub != nil {
		r.Handle("/api/ws", params.Hub)
	}

	r.Route("/api", func(r chi.Router) {
		for _, mw := range APIMiddleware(mwCfg) {
			r.Use(mw)
		}

		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		r.Route("/users", func(r chi.Router) {
			if params.UsersHandler != nil {
				params.UsersHandler.MountRoutes(r)
			}
			if params.RatingHandler != nil {
				r.Group(func(r chi.Router) {
					r.Use(params.Authz.Authenticate)
					params.RatingHandler.MountRoutes(r)
				})
			}
		})
		if params.UsersHandler != nil {
			r.Route("/users-skills", params.UsersHandler.MountUsersSkills)
		}
		if params.OrdersHandler != nil {
			r.Route("/orders", params.OrdersHandler.MountRoutes)
			r.Route("/orders-skills", params.OrdersHandler.MountOrdersSkills)
			r.Route("/order-history", params.OrdersHandler.MountHistory)
		}
		if params.ChatHandler != nil {
			r.Route("/rooms", params.ChatHandler.MountRooms)
			r.Route("/messages", params.ChatHandler.MountMessages)
		}
		if params.SkillsHandler != nil {
			r.Route("/skills", params.SkillsHandler.MountRoutes)
		}
		if params.StatusesHandler != nil {
			r.Route("/statuses", params.StatusesHandler.MountRoutes)
		}
		if params.RegionsHandler != nil {
			r.Route("/regions", params.RegionsHandler.MountRoutes)
		}
		if params.FeedbackHandler != nil {
			r.Route("/complaints", params.FeedbackHandler.MountComplaints)
			r.Route("/user-complaints", params.FeedbackHandler.MountUserComplaints)
			r.Route("/comments", params.FeedbackHandler.MountComments)
		}
		if params.SearchHandler != nil {
			r.Route("/search", params.SearchHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.Authz.Authenticate, params.Authz.Require(authz.Policy{Role: shared.RoleAdmin}))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	return r
}
