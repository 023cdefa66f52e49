// Package auth resolves callers from bearer credentials.
//
// Two modes exist, chosen by auth.mode in the config:
//
//   - stub (default): login echoes the supplied token back as
//     "access-<token>" / "refresh-<token>", and any "Bearer <anything>"
//     header resolves to the single test user. There is no security at all;
//     this mode exists so browser tests can log in without a real backend.
//   - jwt: access and refresh tokens are HS256 JWTs signed with the
//     configured secret. RequireAuth still resolves to the test user but
//     rejects tokens that fail signature, issuer, kind or expiry checks.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"1","kind":"access","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const issuer = "pose-mock"

// TokenKind separates access tokens from refresh tokens so one can never be
// presented in place of the other.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Default lifetimes used by Generate and GenerateRefresh.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given secret.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
	}, nil
}

// WithAccessTTL returns s with a different access token lifetime.
// Non-positive values keep the current one.
func (s *TokenService) WithAccessTTL(d time.Duration) *TokenService {
	if d > 0 {
		s.accessTTL = d
	}
	return s
}

// AccessTTL is the lifetime of tokens from Generate.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// claims is the JWT payload. "sub" carries the user id; Kind is private to
// this service.
type claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// Generate signs an access token for userID.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, KindAccess, s.accessTTL)
}

// GenerateRefresh signs a refresh token for userID.
func (s *TokenService) GenerateRefresh(userID string) (string, error) {
	return s.GenerateWithDuration(userID, KindRefresh, s.refreshTTL)
}

// GenerateWithDuration creates a token of the given kind and lifetime.
// Every token gets a fresh xid as its "jti", so two tokens minted in the
// same second for the same user still differ.
func (s *TokenService) GenerateWithDuration(userID string, kind TokenKind, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
		Kind: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate verifies an access token and returns its subject.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	return s.validate(tokenStr, KindAccess)
}

// ValidateRefresh verifies a refresh token and returns its subject.
func (s *TokenService) ValidateRefresh(tokenStr string) (string, error) {
	return s.validate(tokenStr, KindRefresh)
}

// validate checks signature, algorithm, issuer, expiry and kind.
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. jwt.WithValidMethods prevents this.
func (s *TokenService) validate(tokenStr string, want TokenKind) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Kind != want {
		return "", fmt.Errorf("auth: expected %s token, got %q", want, c.Kind)
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return c.Subject, nil
}
