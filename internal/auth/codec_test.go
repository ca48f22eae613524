package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbridge/workbridge/internal/shared"
)

const testSecret = "test-secret-32-bytes-long-xxxxx"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCodec(t *testing.T, c *clock) *Codec {
	t.Helper()
	codec, err := NewCodec(testSecret, time.Hour, WithClock(c.now))
	require.NoError(t, err)
	return codec
}

func TestCodecRoundTrip(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, c)

	p := shared.Principal{ID: 7, Email: "c@example.com", Role: shared.RoleCustomer}
	token, err := codec.Encode(p)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	got, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestCodecExpiry(t *testing.T) {
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, c)
	token, err := codec.Encode(shared.Principal{ID: 7, Email: "c@example.com", Role: shared.RoleCustomer})
	require.NoError(t, err)

	c.t = c.t.Add(59 * time.Minute)
	_, err = codec.Decode(token)
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Minute)
	_, err = codec.Decode(token)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestCodecRejectsTampering(t *testing.T) {
	c := &clock{t: time.Now()}
	codec := newTestCodec(t, c)
	token, err := codec.Encode(shared.Principal{ID: 7, Email: "c@example.com", Role: shared.RoleCustomer})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	_, err = codec.Decode(parts[0] + "." + parts[1] + "." + string(sig))
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	other, err := NewCodec("another-secret", time.Hour, WithClock(c.now))
	require.NoError(t, err)
	_, err = other.Decode(token)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	_, err = codec.Decode("not-a-token")
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestCodecRejectsEditedClaims(t *testing.T) {
	c := &clock{t: time.Now()}
	codec := newTestCodec(t, c)
	token, err := codec.Encode(shared.Principal{ID: 7, Email: "c@example.com", Role: shared.RoleCustomer})
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	escalated := strings.Replace(string(payload), `"role":"customer"`, `"role":"admin"`, 1)
	require.NotEqual(t, string(payload), escalated)
	forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(escalated)) + "." + parts[2]
	_, err = codec.Decode(forged)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	for i := range payload {
		flipped := append([]byte(nil), payload...)
		flipped[i] ^= 0x01
		_, err := codec.Decode(parts[0] + "." + base64.RawURLEncoding.EncodeToString(flipped) + "." + parts[2])
		assert.ErrorIs(t, err, shared.ErrTokenInvalid, "byte %d", i)
	}
}

func TestCodecRejectsOtherAlgorithms(t *testing.T) {
	c := &clock{t: time.Now()}
	codec := newTestCodec(t, c)
	claims := Claims{
		ID: 7, Email: "c@example.com", Role: shared.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(c.t.Add(time.Hour))},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = codec.Decode(hs512)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Decode(none)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestCodecRequiresClaims(t *testing.T) {
	c := &clock{t: time.Now()}
	codec := newTestCodec(t, c)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{ID: 7, Email: "c@example.com", Role: shared.RoleCustomer}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = codec.Decode(noExp)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID: 7, Email: "c@example.com", Role: "root",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(c.t.Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = codec.Decode(badRole)
	assert.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestNewCodecValidates(t *testing.T) {
	_, err := NewCodec("", time.Hour)
	assert.Error(t, err)
	_, err = NewCodec("s", 0)
	assert.Error(t, err)
}
