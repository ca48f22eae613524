package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbridge/workbridge/internal/authz"
	"github.com/workbridge/workbridge/internal/catalog"
	"github.com/workbridge/workbridge/internal/files"
	"github.com/workbridge/workbridge/internal/platform/storage"
	"github.com/workbridge/workbridge/internal/shared"
)

type memRepo struct {
	skills  map[int64]Skill
	nextID  int64
	filters []catalog.ListFilters
}

func (m *memRepo) List(_ context.Context, f catalog.ListFilters) ([]Skill, error) {
	m.filters = append(m.filters, f)
	out := []Skill{}
	for id := int64(1); id <= m.nextID; id++ {
		if s, ok := m.skills[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) Get(_ context.Context, id int64) (Skill, error) {
	s, ok := m.skills[id]
	if !ok {
		return Skill{}, fmt.Errorf("%w: skill %d not found", shared.ErrNotFound, id)
	}
	return s, nil
}

func (m *memRepo) Create(_ context.Context, req CreateRequest) (Skill, error) {
	m.nextID++
	s := Skill{ID: m.nextID, Title: req.Title, Description: req.Description}
	m.skills[s.ID] = s
	return s, nil
}

func (m *memRepo) Update(ctx context.Context, id int64, req UpdateRequest) (Skill, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return Skill{}, err
	}
	if req.Title != nil {
		s.Title = *req.Title
	}
	m.skills[id] = s
	return s, nil
}

func (m *memRepo) Delete(ctx context.Context, id int64) (string, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	delete(m.skills, id)
	return s.Image, nil
}

func (m *memRepo) SwapImage(ctx context.Context, id int64, key string) (string, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return "", err
	}
	old := s.Image
	s.Image = key
	m.skills[id] = s
	return old, nil
}

type tokenResolver map[string]shared.Principal

func (t tokenResolver) Resolve(_ context.Context, header string) (shared.Principal, error) {
	if header == "" {
		return shared.Principal{}, shared.ErrNoToken
	}
	p, ok := t[strings.TrimPrefix(header, "Bearer ")]
	if !ok {
		return shared.Principal{}, shared.ErrTokenInvalid
	}
	return p, nil
}

type noLoads struct{}

func (noLoads) Load(context.Context, authz.ResourceRef) (authz.Resource, error) {
	return authz.Resource{}, fmt.Errorf("unexpected load")
}

func newTestServer(t *testing.T) (http.Handler, *memRepo, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewLocal(root, "/files")
	require.NoError(t, err)

	repo := &memRepo{skills: map[int64]Skill{1: {ID: 1, Title: "Go"}}, nextID: 1}
	mw := authz.Middleware{
		Resolver: tokenResolver{
			"cara":  {ID: 7, Role: shared.RoleCustomer},
			"admin": {ID: 1, Role: shared.RoleAdmin},
		},
		Evaluator: authz.NewEvaluator(noLoads{}, nil),
	}
	h := NewHandler(nil, NewService(repo, files.NewService(store, nil), nil), mw)
	r := chi.NewRouter()
	r.Route("/skills", h.MountRoutes)
	return r, repo, root
}

func call(h http.Handler, req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func jsonRequest(method, path, body string) *http.Request {
	return httptest.NewRequest(method, path, strings.NewReader(body))
}

func imageRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(files.FormField, "logo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSkillRoutes(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{name: "public list", method: http.MethodGet, path: "/skills", status: http.StatusOK},
		{name: "public show", method: http.MethodGet, path: "/skills/1", status: http.StatusOK},
		{name: "missing", method: http.MethodGet, path: "/skills/9", status: http.StatusNotFound},
		{name: "anonymous create", method: http.MethodPost, path: "/skills", body: `{"title":"Rust"}`, status: http.StatusUnauthorized},
		{name: "customer create", method: http.MethodPost, path: "/skills", token: "cara", body: `{"title":"Rust"}`, status: http.StatusForbidden},
		{name: "admin create", method: http.MethodPost, path: "/skills", token: "admin", body: `{"title":"Rust"}`, status: http.StatusCreated},
		{name: "admin create invalid", method: http.MethodPost, path: "/skills", token: "admin", body: `{"title":"Rust","rating":6}`, status: http.StatusBadRequest},
		{name: "admin update", method: http.MethodPatch, path: "/skills/1", token: "admin", body: `{"title":"Golang"}`, status: http.StatusOK},
		{name: "customer delete", method: http.MethodDelete, path: "/skills/1", token: "cara", status: http.StatusForbidden},
		{name: "admin delete", method: http.MethodDelete, path: "/skills/1", token: "admin", status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _, _ := newTestServer(t)
			res := call(h, jsonRequest(tc.method, tc.path, tc.body), tc.token)
			assert.Equal(t, tc.status, res.Code, res.Body.String())
		})
	}
}

func TestSkillListPassesFilters(t *testing.T) {
	h, repo, _ := newTestServer(t)
	res := call(h, jsonRequest(http.MethodGet, "/skills?search=go&sort=title&dir=desc", ""), "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Len(t, repo.filters, 1)
	assert.Equal(t, "go", repo.filters[0].Search)
	assert.Equal(t, catalog.SortDesc, repo.filters[0].SortDir)
}

func TestSkillImageLifecycle(t *testing.T) {
	h, repo, root := newTestServer(t)

	res := call(h, imageRequest(t, "/skills/1/image"), "cara")
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = call(h, imageRequest(t, "/skills/1/image"), "admin")
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var out UploadResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	key := repo.skills[1].Image
	assert.True(t, strings.HasPrefix(key, "skillImage/skill_1_"))
	assert.Equal(t, "/files/"+key, out.URL)
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)

	res = call(h, jsonRequest(http.MethodGet, "/skills/1", ""), "")
	var sk Skill
	require.NoError(t, json.NewDecoder(res.Body).Decode(&sk))
	assert.Equal(t, out.URL, sk.Image)

	res = call(h, jsonRequest(http.MethodDelete, "/skills/1", ""), "admin")
	require.Equal(t, http.StatusNoContent, res.Code)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}
