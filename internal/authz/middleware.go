package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/workbridge/workbridge/internal/platform/httpx"
	"github.com/workbridge/workbridge/internal/shared"
)

const maxPeekBytes = 1 << 20

// PrincipalResolver turns an Authorization header into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, authorization string) (shared.Principal, error)
}

// Middleware wires authentication and policy checks into chi routes.
type Middleware struct {
	Resolver  PrincipalResolver
	Evaluator *Evaluator
	Recorder  Recorder
	Logger    *slog.Logger
}

// Authenticate resolves the bearer token and stores the principal in the
// request context. Failures stop the chain with 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.Resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			d := DecisionFromAuthError(err)
			if m.Recorder != nil {
				m.Recorder.ObserveDecision("authenticate", string(d.Reason))
			}
			if !IsAuthError(err) {
				httpx.Fail(m.Logger, w, r, "resolve principal", err)
				return
			}
			httpx.RespondError(w, d.Err())
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
	})
}

// IsAuthError reports whether err is a credential failure rather than an
// infrastructure error.
func IsAuthError(err error) bool {
	return errors.Is(err, shared.ErrNoToken) || errors.Is(err, shared.ErrTokenInvalid) || errors.Is(err, shared.ErrUserNotFound)
}

// Require enforces policy for the wrapped handler. It must run after
// Authenticate. An invalid policy panics at route registration.
func (m Middleware) Require(policy Policy) func(http.Handler) http.Handler {
	if err := policy.Validate(); err != nil {
		panic(err)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrNoToken)
				return
			}
			req, err := buildRequest(r, policy)
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			d, err := m.Evaluator.Authorize(r.Context(), p, policy, req)
			if err != nil {
				httpx.Fail(m.Logger, w, r, "authorize", err)
				return
			}
			if !d.Allowed {
				if m.Logger != nil {
					m.Logger.Info("authorization denied",
						slog.String("policy", policy.Name()),
						slog.String("reason", string(d.Reason)),
						slog.Int64("principal_id", p.ID),
						slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, d.Err())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// buildRequest extracts the locator inputs. The body is read only when the
// rule needs it and is restored for the handler.
func buildRequest(r *http.Request, policy Policy) (Request, error) {
	var req Request
	if raw := chi.URLParam(r, "id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Request{}, fmt.Errorf("%w: invalid id", shared.ErrInvalidInput)
		}
		req.PathID = id
	}
	if policy.Ownership == nil || !policy.Ownership.needsBody() || r.Body == nil {
		return req, nil
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes+1))
	if err != nil {
		return Request{}, fmt.Errorf("%w: read body", shared.ErrInvalidInput)
	}
	if len(buf) > maxPeekBytes {
		return Request{}, fmt.Errorf("%w: body too large", shared.ErrInvalidInput)
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	req.Body = map[string]json.RawMessage{}
	if len(bytes.TrimSpace(buf)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(buf, &req.Body); err != nil {
		return Request{}, fmt.Errorf("%w: malformed json body", shared.ErrInvalidInput)
	}
	return req, nil
}
