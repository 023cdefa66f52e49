package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "pose-mock-test-secret-0123456789"

// newTestTokenService uses a fixed secret so tokens are reproducible across
// services in the same test.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret)
	require.NoError(t, err)
	return ts
}

// signRaw builds a token with arbitrary claims and method, bypassing
// TokenService, to feed the validator inputs it would never mint itself.
func signRaw(t *testing.T, method jwt.SigningMethod, key any, c claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, c).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestNewTokenService_SecretLength(t *testing.T) {
	_, err := NewTokenService("too-short")
	assert.Error(t, err)

	_, err = NewTokenService("exactly-16-chars")
	assert.NoError(t, err)
}

func TestGenerate_AccessAndRefreshRoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	access, err := ts.Generate("1")
	require.NoError(t, err)
	refresh, err := ts.GenerateRefresh("1")
	require.NoError(t, err)

	assert.Len(t, strings.Split(access, "."), 3, "header.payload.signature")

	sub, err := ts.Validate(access)
	require.NoError(t, err)
	assert.Equal(t, "1", sub)

	sub, err = ts.ValidateRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "1", sub)
}

func TestGenerate_EveryTokenIsUnique(t *testing.T) {
	ts := newTestTokenService(t)
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		tok, err := ts.Generate("1")
		require.NoError(t, err)
		assert.False(t, seen[tok], "token %d repeated", i)
		seen[tok] = true
	}
}

func TestValidate_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("a-different-secret-for-tests!!")
	require.NoError(t, err)

	expired, err := ts.GenerateWithDuration("1", KindAccess, -time.Second)
	require.NoError(t, err)
	refresh, err := ts.GenerateRefresh("1")
	require.NoError(t, err)
	foreign, err := other.Generate("1")
	require.NoError(t, err)
	good, err := ts.Generate("1")
	require.NoError(t, err)

	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	wrongIssuer := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: "pose-api", ExpiresAt: future},
		Kind:             KindAccess,
	})
	noSubject := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: future},
		Kind:             KindAccess,
	})
	noExpiry := signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: issuer},
		Kind:             KindAccess,
	})
	unsigned := signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: issuer, ExpiresAt: future},
		Kind:             KindAccess,
	})

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt.token"},
		{"expired", expired},
		{"tampered signature", good[:len(good)-3] + "xxx"},
		{"signed with another secret", foreign},
		{"refresh token used as access", refresh},
		{"wrong issuer", wrongIssuer},
		{"no subject", noSubject},
		{"no expiry", noExpiry},
		{"alg none", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestValidateRefresh_RejectsAccessToken(t *testing.T) {
	ts := newTestTokenService(t)
	access, err := ts.Generate("1")
	require.NoError(t, err)

	_, err = ts.ValidateRefresh(access)

	assert.ErrorContains(t, err, "expected refresh token")
}

func TestValidate_ExpiredMessage(t *testing.T) {
	ts := newTestTokenService(t)
	tok, err := ts.GenerateWithDuration("1", KindAccess, -time.Minute)
	require.NoError(t, err)

	_, err = ts.Validate(tok)

	assert.EqualError(t, err, "auth: token expired")
}

func TestWithAccessTTL(t *testing.T) {
	ts := newTestTokenService(t)
	assert.Equal(t, DefaultAccessTTL, ts.AccessTTL())

	ts.WithAccessTTL(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, ts.AccessTTL())

	ts.WithAccessTTL(0)
	assert.Equal(t, 5*time.Minute, ts.AccessTTL(), "non-positive keeps the current TTL")
}

func TestWithAccessTTL_ShortLivedTokenExpires(t *testing.T) {
	ts := newTestTokenService(t).WithAccessTTL(time.Nanosecond)

	tok, err := ts.Generate("1")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = ts.Validate(tok)
	assert.Error(t, err)
}
