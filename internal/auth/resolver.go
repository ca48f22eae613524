package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/workbridge/workbridge/internal/shared"
)

const lookupTimeout = 5 * time.Second

// TokenDecoder verifies bearer tokens.
type TokenDecoder interface {
	Decode(token string) (shared.Principal, error)
}

// UserLookup fetches the current account row for a token's email.
type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Resolver turns an Authorization header into the caller's principal. The
// role stored on the account wins over the role inside the token.
type Resolver struct {
	tokens TokenDecoder
	users  UserLookup
	group  singleflight.Group
}

// NewResolver constructs a Resolver.
func NewResolver(tokens TokenDecoder, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Resolve authenticates the header value.
func (r *Resolver) Resolve(ctx context.Context, header string) (shared.Principal, error) {
	token, ok := BearerToken(header)
	if !ok {
		return shared.Principal{}, shared.ErrNoToken
	}
	return r.ResolveToken(ctx, token)
}

// ResolveToken authenticates a raw token, as passed in websocket query strings.
func (r *Resolver) ResolveToken(ctx context.Context, token string) (shared.Principal, error) {
	if token == "" {
		return shared.Principal{}, shared.ErrNoToken
	}
	claimed, err := r.tokens.Decode(token)
	if err != nil {
		return shared.Principal{}, err
	}
	// The shared lookup must outlive any single caller; each caller still
	// stops waiting when its own request goes away.
	ch := r.group.DoChan(claimed.Email, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return r.users.FindByEmail(lookupCtx, claimed.Email)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return shared.Principal{}, ctx.Err()
	case res = <-ch:
	}
	v, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Principal{}, shared.ErrUserNotFound
		}
		return shared.Principal{}, fmt.Errorf("auth: lookup principal: %w", err)
	}
	user := v.(*User)
	return shared.Principal{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}
