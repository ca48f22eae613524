package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/workbridge/workbridge/internal/observability"
	"github.com/workbridge/workbridge/internal/platform/httpx"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
}

// MiddlewareStack installs the chain every route passes through, websocket
// upgrades included.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=()",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         cfg.Config == nil || !cfg.Config.IsProduction(),
	})

	var origins []string
	if cfg.Config != nil {
		origins = cfg.Config.CORSAllowedOrigins
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	return middlewares
}

// APIMiddleware bounds request duration and rate for the REST surface.
func APIMiddleware(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	timeout := 30 * time.Second
	perMinute := 120
	if cfg.Config != nil {
		if cfg.Config.AppRequestTimeout > 0 {
			timeout = cfg.Config.AppRequestTimeout
		}
		if cfg.Config.RateLimitPerMinute > 0 {
			perMinute = cfg.Config.RateLimitPerMinute
		}
	}
	return []func(http.Handler) http.Handler{
		middleware.Timeout(timeout),
		middleware.Compress(5),
		httprate.Limit(perMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "rate limit exceeded")
			}),
		),
	}
}
