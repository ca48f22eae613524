package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/workbridge/workbridge/internal/auth"
	"github.com/workbridge/workbridge/internal/shared"
)

func newService(t *testing.T, repo auth.Repository) (*auth.Service, *auth.Codec) {
	t.Helper()
	codec, err := auth.NewCodec("service-secret", time.Hour)
	require.NoError(t, err)
	return auth.NewService(repo, codec, nil, slog.New(slog.NewTextHandler(io.Discard, nil))), codec
}

func TestSeedAdminCreatesOnce(t *testing.T) {
	repo := &stubRepo{}
	svc, _ := newService(t, repo)

	user, created, err := svc.SeedAdmin(context.Background(), " Admin@Gmail.com ", "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, shared.RoleAdmin, user.Role)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "admin@gmail.com", repo.created[0].Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created[0].PasswordHash), []byte("s3cret-pass")))

	repo.user = user
	again, created, err := svc.SeedAdmin(context.Background(), "admin@gmail.com", "other")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Len(t, repo.created, 1)
}

func TestSeedAdminRequiresCredentials(t *testing.T) {
	svc, _ := newService(t, &stubRepo{})
	_, _, err := svc.SeedAdmin(context.Background(), "", "x")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestIssueFor(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 3, Email: "wes@example.com", Role: shared.RoleCreator}}
	svc, codec := newService(t, repo)

	token, err := svc.IssueFor(context.Background(), "wes@example.com")
	require.NoError(t, err)
	p, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, shared.Principal{ID: 3, Email: "wes@example.com", Role: shared.RoleCreator}, p)

	_, err = svc.IssueFor(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
