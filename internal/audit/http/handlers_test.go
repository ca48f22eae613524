package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbridge/workbridge/internal/audit"
	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/shared"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []audit.TimelineRow
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(_ context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, nil
}

func (s *stubTimelineService) Export(_ context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error) {
	s.lastFilters = filters
	return s.exportRows, nil
}

type tokenResolver map[string]shared.Principal

func (t tokenResolver) Resolve(_ context.Context, header string) (shared.Principal, error) {
	p, ok := t[strings.TrimPrefix(header, "Bearer ")]
	if !ok {
		return shared.Principal{}, shared.ErrNoToken
	}
	return p, nil
}

func newRouter(svc TimelineService) http.Handler {
	mw := authz.Middleware{
		Resolver: tokenResolver{
			"cara":  {ID: 7, Role: shared.RoleCustomer},
			"admin": {ID: 1, Role: shared.RoleAdmin},
		},
		Evaluator: authz.NewEvaluator(nil, nil),
	}
	h := NewHandler(nil, svc, mw)
	h.now = func() time.Time { return time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/audit", h.MountRoutes)
	return r
}

func get(h http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestTimelineAccess(t *testing.T) {
	h := newRouter(&stubTimelineService{})
	assert.Equal(t, http.StatusUnauthorized, get(h, "/audit", "").Code)
	assert.Equal(t, http.StatusForbidden, get(h, "/audit", "cara").Code)
	assert.Equal(t, http.StatusOK, get(h, "/audit", "admin").Code)
}

func TestTimelineDefaultsAndFilters(t *testing.T) {
	svc := &stubTimelineService{result: audit.Result{
		Rows:   []audit.TimelineRow{{ID: 9, ActorID: 7, Action: "delete", Entity: "order", EntityID: "42"}},
		Paging: audit.PagingInfo{Page: 1, PageSize: 20},
	}}
	h := newRouter(svc)

	rr := get(h, "/audit", "admin")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), svc.lastFilters.To)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), svc.lastFilters.From)

	var body audit.Result
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "order", body.Rows[0].Entity)

	rr = get(h, "/audit?from=2024-01-01&to=2024-01-31&actor_id=7&entity=order&action=delete&page=2&page_size=5", "admin")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, audit.TimelineFilters{
		From:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		ActorID:  7,
		Entity:   "order",
		Action:   "delete",
		Page:     2,
		PageSize: 5,
	}, svc.lastFilters)
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	h := newRouter(&stubTimelineService{})
	for _, q := range []string{
		"to=yesterday",
		"from=2024-03-10&to=2024-03-01",
		"from=2023-01-01&to=2024-03-01",
		"actor_id=x",
		"page=0",
		"page_size=-1",
	} {
		assert.Equal(t, http.StatusBadRequest, get(h, "/audit?"+q, "admin").Code, q)
	}
}

func TestExportCSV(t *testing.T) {
	svc := &stubTimelineService{exportRows: []audit.TimelineRow{
		{ID: 1, At: time.Date(2024, 3, 19, 8, 0, 0, 0, time.UTC), ActorID: 1, Action: "create", Entity: "skill", EntityID: "5"},
	}}
	h := newRouter(svc)

	rr := get(h, "/audit/export.csv", "admin")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "id,at,actor_id,action,entity,entity_id,meta\n1,2024-03-19T08:00:00Z,1,create,skill,5,\n", rr.Body.String())
}

func TestExportRateLimitedPerUser(t *testing.T) {
	h := newRouter(&stubTimelineService{})
	for i := 0; i < rateLimit; i++ {
		require.Equal(t, http.StatusOK, get(h, "/audit/export.csv", "admin").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/audit/export.csv", "admin").Code)
}
