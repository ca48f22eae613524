package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workbridge/workbridge/internal/shared"
)

// Claims is the signed token payload.
type Claims struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  shared.Role `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 bearer tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

// NewCodec constructs a Codec. The secret must be non-empty and ttl positive.
func NewCodec(secret string, ttl time.Duration, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}
	c := &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL reports how long issued tokens stay valid.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Encode issues a token for p that expires after the configured TTL.
func (c *Codec) Encode(p shared.Principal) (string, error) {
	now := c.now()
	claims := Claims{
		ID:    p.ID,
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies token and returns the principal it was issued for. Every
// failure is reported as shared.ErrTokenInvalid.
func (c *Codec) Decode(token string) (shared.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return shared.Principal{}, fmt.Errorf("%w: %v", shared.ErrTokenInvalid, err)
	}
	if claims.ID <= 0 || claims.Email == "" || !claims.Role.Valid() {
		return shared.Principal{}, fmt.Errorf("%w: incomplete claims", shared.ErrTokenInvalid)
	}
	return shared.Principal{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}
