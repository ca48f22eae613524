package statuses

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/catalog"
	"github.com/workbridge/workbridge/internal/shared"
)

type memRepo struct {
	rows map[int64]Status
	// inUse marks statuses referenced by order history.
	inUse map[int64]bool
}

func (m *memRepo) List(context.Context, catalog.ListFilters) ([]Status, error) {
	return []Status{m.rows[1]}, nil
}

func (m *memRepo) Get(_ context.Context, id int64) (Status, error) {
	s, ok := m.rows[id]
	if !ok {
		return Status{}, fmt.Errorf("%w: status %d not found", shared.ErrNotFound, id)
	}
	return s, nil
}

func (m *memRepo) Create(_ context.Context, req Request) (Status, error) {
	s := Status{ID: int64(len(m.rows) + 1), Title: req.Title}
	m.rows[s.ID] = s
	return s, nil
}

func (m *memRepo) Update(ctx context.Context, id int64, req Request) (Status, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return Status{}, err
	}
	m.rows[id] = Status{ID: id, Title: req.Title, Description: req.Description}
	return m.rows[id], nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if m.inUse[id] {
		return fmt.Errorf("%w: status is still referenced", shared.ErrInvalidInput)
	}
	delete(m.rows, id)
	return nil
}

type auditLog struct{ entries []shared.AuditLog }

func (a *auditLog) Record(_ context.Context, l shared.AuditLog) error {
	a.entries = append(a.entries, l)
	return nil
}

type tokenResolver map[string]shared.Principal

func (t tokenResolver) Resolve(_ context.Context, header string) (shared.Principal, error) {
	p, ok := t[strings.TrimPrefix(header, "Bearer ")]
	if !ok {
		return shared.Principal{}, shared.ErrNoToken
	}
	return p, nil
}

func newTestServer(t *testing.T) (http.Handler, *auditLog) {
	t.Helper()
	repo := &memRepo{rows: map[int64]Status{1: {ID: 1, Title: "open"}, 2: {ID: 2, Title: "done"}}, inUse: map[int64]bool{2: true}}
	audit := &auditLog{}
	mw := authz.Middleware{
		Resolver: tokenResolver{
			"wes":   {ID: 8, Role: shared.RoleCreator},
			"admin": {ID: 1, Role: shared.RoleAdmin},
		},
		Evaluator: authz.NewEvaluator(nil, nil),
	}
	r := chi.NewRouter()
	r.Route("/statuses", NewHandler(nil, NewService(repo, audit), mw).MountRoutes)
	return r, audit
}

func TestStatusRoutes(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{name: "list needs auth", method: http.MethodGet, path: "/statuses", status: http.StatusUnauthorized},
		{name: "list", method: http.MethodGet, path: "/statuses", token: "wes", status: http.StatusOK},
		{name: "show", method: http.MethodGet, path: "/statuses/1", token: "wes", status: http.StatusOK},
		{name: "creator create", method: http.MethodPost, path: "/statuses", token: "wes", body: `{"title":"paused"}`, status: http.StatusForbidden},
		{name: "admin create", method: http.MethodPost, path: "/statuses", token: "admin", body: `{"title":"paused"}`, status: http.StatusCreated},
		{name: "admin create empty", method: http.MethodPost, path: "/statuses", token: "admin", body: `{}`, status: http.StatusBadRequest},
		{name: "admin update missing", method: http.MethodPatch, path: "/statuses/9", token: "admin", body: `{"title":"x"}`, status: http.StatusNotFound},
		{name: "admin delete referenced", method: http.MethodDelete, path: "/statuses/2", token: "admin", status: http.StatusBadRequest},
		{name: "admin delete", method: http.MethodDelete, path: "/statuses/1", token: "admin", status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestServer(t)
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			res := httptest.NewRecorder()
			h.ServeHTTP(res, req)
			assert.Equal(t, tc.status, res.Code, res.Body.String())
		})
	}
}

func TestStatusMutationsAreAudited(t *testing.T) {
	h, audit := newTestServer(t)
	for _, step := range []struct{ method, path, body string }{
		{http.MethodPost, "/statuses", `{"title":"paused"}`},
		{http.MethodPatch, "/statuses/1", `{"title":"new"}`},
		{http.MethodDelete, "/statuses/1", ""},
	} {
		req := httptest.NewRequest(step.method, step.path, strings.NewReader(step.body))
		req.Header.Set("Authorization", "Bearer admin")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Len(t, audit.entries, 3)
	assert.Equal(t, "create", audit.entries[0].Action)
	assert.Equal(t, "3", audit.entries[0].EntityID)
	assert.Equal(t, "delete", audit.entries[2].Action)
	assert.Equal(t, int64(1), audit.entries[2].ActorID)
}
