// Package audithttp exposes the audit timeline to administrators.
package audithttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/platform/httpx"
	"github.com/workbridge/workbridge/internal/shared"
)

const rateLimit = 10
const rateWindow = time.Minute

// MountRoutes registers the timeline and its CSV export.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded")
		}),
	)
	r.Group(func(r chi.Router) {
		r.Use(h.authz.Authenticate, h.authz.Require(authz.Policy{Role: shared.RoleAdmin}))
		r.Get("/", h.handleTimeline)
		r.With(limiter).Get("/export.csv", h.handleExport)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if p, ok := shared.PrincipalFromContext(r.Context()); ok && p.ID > 0 {
		return "user:" + strconv.FormatInt(p.ID, 10), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
