package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pose-mock/internal/model"
)

// =========================================================================
// STUB MODE TESTS
// =========================================================================

func TestStubLogin_PrefixesToken(t *testing.T) {
	a := StubAuthenticator{ExpiresIn: 3600}

	tokens, err := a.Login("abc")

	require.NoError(t, err)
	assert.Equal(t, "access-abc", tokens.AccessToken)
	assert.Equal(t, "refresh-abc", tokens.RefreshToken)
	assert.Equal(t, 3600, tokens.ExpiresIn)
}

func TestStubLogin_EmptyTokenStillSucceeds(t *testing.T) {
	a := StubAuthenticator{}

	for _, in := range []string{"", "   "} {
		tokens, err := a.Login(in)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(tokens.AccessToken, AccessPrefix))
		assert.Greater(t, len(tokens.AccessToken), len(AccessPrefix), "generated token must not be empty")
		assert.Equal(t,
			strings.TrimPrefix(tokens.AccessToken, AccessPrefix),
			strings.TrimPrefix(tokens.RefreshToken, RefreshPrefix),
		)
	}
}

func TestStubRefresh(t *testing.T) {
	a := StubAuthenticator{}

	tokens, err := a.Refresh("refresh-abc")
	require.NoError(t, err)
	assert.Equal(t, "access-abc", tokens.AccessToken)
	assert.Equal(t, "refresh-abc", tokens.RefreshToken)

	_, err = a.Refresh("")
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}

func TestStubResolve_AnyTokenIsTheTestUser(t *testing.T) {
	user, err := StubAuthenticator{}.Resolve("whatever")

	require.NoError(t, err)
	assert.Equal(t, &model.User{ID: 1, Token: "whatever", Name: model.TestUserName}, user)
}

// =========================================================================
// JWT MODE TESTS
// =========================================================================

func TestJWTAuthenticator_LoginThenResolve(t *testing.T) {
	a := NewJWTAuthenticator(newTestTokenService(t))

	tokens, err := a.Login("ignored")
	require.NoError(t, err)
	assert.Equal(t, int(DefaultAccessTTL.Seconds()), tokens.ExpiresIn)

	user, err := a.Resolve(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.TestUserID, user.ID)
	assert.Equal(t, tokens.AccessToken, user.Token)
}

func TestJWTAuthenticator_RejectsStubTokens(t *testing.T) {
	a := NewJWTAuthenticator(newTestTokenService(t))

	_, err := a.Resolve("access-abc")
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}

func TestJWTAuthenticator_RejectsOtherSubject(t *testing.T) {
	ts := newTestTokenService(t)
	a := NewJWTAuthenticator(ts)

	token, _ := ts.Generate("2")

	_, err := a.Resolve(token)
	assert.True(t, errors.Is(err, ErrInvalidCredential))
}

func TestJWTAuthenticator_Refresh(t *testing.T) {
	a := NewJWTAuthenticator(newTestTokenService(t))
	tokens, _ := a.Login("")

	fresh, err := a.Refresh(tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.AccessToken, fresh.AccessToken)

	_, err = a.Refresh(tokens.AccessToken)
	assert.True(t, errors.Is(err, ErrInvalidCredential), "an access token is not a refresh token")
}
