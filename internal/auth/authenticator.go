package auth

import (
	"errors"
	"strconv"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/pose-mock/internal/model"
)

// Stub token prefixes. Login with token "abc" yields "access-abc" and
// "refresh-abc".
const (
	AccessPrefix  = "access-"
	RefreshPrefix = "refresh-"
)

// ErrInvalidCredential is returned for any token the authenticator refuses.
var ErrInvalidCredential = errors.New("auth: invalid credential")

// Tokens is a freshly issued credential pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int
}

// Authenticator issues credentials and resolves them back to the caller.
type Authenticator interface {
	// Login issues a pair for the supplied login token. An empty token is
	// replaced by a random one, so login always succeeds.
	Login(token string) (Tokens, error)
	// Refresh issues a new pair from a refresh token.
	Refresh(refreshToken string) (Tokens, error)
	// Resolve maps an access token (without the "Bearer " prefix) to a user.
	Resolve(accessToken string) (*model.User, error)
}

// testUser is the only identity either mode ever resolves to.
func testUser(token string) *model.User {
	return &model.User{ID: model.TestUserID, Token: token, Name: model.TestUserName}
}

// loginToken returns token, or a fresh xid when token is blank.
func loginToken(token string) string {
	if strings.TrimSpace(token) == "" {
		return xid.New().String()
	}
	return token
}

// =========================================================================
// STUB MODE
// =========================================================================

// StubAuthenticator performs no verification at all.
type StubAuthenticator struct {
	// ExpiresIn is reported to clients; nothing enforces it.
	ExpiresIn int
}

var _ Authenticator = StubAuthenticator{}

func (a StubAuthenticator) Login(token string) (Tokens, error) {
	token = loginToken(token)
	return Tokens{
		AccessToken:  AccessPrefix + token,
		RefreshToken: RefreshPrefix + token,
		ExpiresIn:    a.ExpiresIn,
	}, nil
}

// Refresh strips the refresh prefix, when present, and logs in again with
// what remains.
func (a StubAuthenticator) Refresh(refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, ErrInvalidCredential
	}
	return a.Login(strings.TrimPrefix(refreshToken, RefreshPrefix))
}

// Resolve accepts any access token.
func (a StubAuthenticator) Resolve(accessToken string) (*model.User, error) {
	return testUser(accessToken), nil
}

// =========================================================================
// JWT MODE
// =========================================================================

// JWTAuthenticator signs real tokens but still has only the test user.
type JWTAuthenticator struct {
	tokens *TokenService
}

var _ Authenticator = (*JWTAuthenticator)(nil)

func NewJWTAuthenticator(tokens *TokenService) *JWTAuthenticator {
	return &JWTAuthenticator{tokens: tokens}
}

// Login ignores the supplied token beyond requiring the call to be made.
func (a *JWTAuthenticator) Login(_ string) (Tokens, error) {
	return a.issue()
}

func (a *JWTAuthenticator) Refresh(refreshToken string) (Tokens, error) {
	if _, err := a.tokens.ValidateRefresh(refreshToken); err != nil {
		return Tokens{}, errors.Join(ErrInvalidCredential, err)
	}
	return a.issue()
}

func (a *JWTAuthenticator) Resolve(accessToken string) (*model.User, error) {
	sub, err := a.tokens.Validate(accessToken)
	if err != nil {
		return nil, errors.Join(ErrInvalidCredential, err)
	}
	if id, err := strconv.ParseInt(sub, 10, 64); err != nil || id != model.TestUserID {
		return nil, ErrInvalidCredential
	}
	return testUser(accessToken), nil
}

func (a *JWTAuthenticator) issue() (Tokens, error) {
	sub := strconv.FormatInt(model.TestUserID, 10)
	access, err := a.tokens.Generate(sub)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := a.tokens.GenerateRefresh(sub)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(a.tokens.AccessTTL().Seconds()),
	}, nil
}
