package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/workbridge/workbridge/internal/auth"
	"github.com/workbridge/workbridge/internal/platform/mail"
	"github.com/workbridge/workbridge/internal/shared"
	_ "github.com/workbridge/workbridge/testing"
)

type stubRepo struct {
	user    *auth.User
	created []auth.NewUser
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) Create(ctx context.Context, u auth.NewUser) (*auth.User, error) {
	if s.user != nil && s.user.Email == u.Email {
		return nil, shared.ErrDuplicate
	}
	s.created = append(s.created, u)
	return &auth.User{ID: 11, Name: u.Name, Surname: u.Surname, Email: u.Email, PasswordHash: u.PasswordHash, Role: u.Role}, nil
}

type stubQueue struct {
	sent []mail.Message
}

func (q *stubQueue) EnqueueMail(ctx context.Context, msg mail.Message) error {
	q.sent = append(q.sent, msg)
	return nil
}

func newAuthRouter(t *testing.T, repo auth.Repository, queue auth.MailQueue) (http.Handler, *auth.Codec) {
	t.Helper()
	codec, err := auth.NewCodec("handler-secret", time.Hour)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo, codec, queue, logger))

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	r.Post("/users", handler.HandleRegister)
	return r, codec
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestLoginIssuesToken(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{ID: 1, Email: "user@test.local", PasswordHash: string(hashed), Role: shared.RoleCreator}}
	h, codec := newAuthRouter(t, repo, nil)

	res := post(h, "/auth/login", `{"email":"user@test.local","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var out auth.TokenResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	p, err := codec.Decode(out.Token)
	require.NoError(t, err)
	assert.Equal(t, shared.Principal{ID: 1, Email: "user@test.local", Role: shared.RoleCreator}, p)
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{user: &auth.User{ID: 1, Email: "user@test.local", PasswordHash: string(hashed), Role: shared.RoleCustomer}}
	h, _ := newAuthRouter(t, repo, nil)

	res := post(h, "/auth/login", `{"email":"user@test.local","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = post(h, "/auth/login", `{"email":"nobody@test.local","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = post(h, "/auth/login", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRegister(t *testing.T) {
	repo := &stubRepo{}
	queue := &stubQueue{}
	h, codec := newAuthRouter(t, repo, queue)

	res := post(h, "/users", `{"name":"Ann","surname":"Lee","email":"Ann@Example.com","password":"s3cret","role":"creator"}`)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	var out auth.TokenResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.True(t, out.Success)
	p, err := codec.Decode(out.Token)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleCreator, p.Role)
	assert.Equal(t, "ann@example.com", p.Email)

	require.Len(t, repo.created, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("s3cret")))
	require.Len(t, queue.sent, 1)
	assert.Equal(t, "ann@example.com", queue.sent[0].To)
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newAuthRouter(t, &stubRepo{}, nil)

	cases := map[string]string{
		"admin role":     `{"name":"A","surname":"B","email":"a@b.io","password":"s3cret","role":"admin"}`,
		"short password": `{"name":"A","surname":"B","email":"a@b.io","password":"abc","role":"customer"}`,
		"long password":  `{"name":"A","surname":"B","email":"a@b.io","password":"` + strings.Repeat("x", 73) + `","role":"customer"}`,
		"bad email":      `{"name":"A","surname":"B","email":"ab","password":"s3cret","role":"customer"}`,
		"malformed":      `{"name":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res := post(h, "/users", body)
			assert.Equal(t, http.StatusBadRequest, res.Code, res.Body.String())
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 1, Email: "a@b.io", Role: shared.RoleCustomer}}
	h, _ := newAuthRouter(t, repo, nil)
	res := post(h, "/users", `{"name":"A","surname":"B","email":"a@b.io","password":"s3cret","role":"customer"}`)
	assert.Equal(t, http.StatusConflict, res.Code)
}
