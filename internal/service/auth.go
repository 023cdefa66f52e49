package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/auth"
	"github.com/sakif/pose-mock/internal/model"
)

// TokenType is reported in every login response.
const TokenType = "bearer"

// LoginResult is the body of a login or refresh response.
type LoginResult struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	User         model.User `json:"user"`
}

// AuthService wraps whichever auth.Authenticator the config selected.
type AuthService struct {
	authn  auth.Authenticator
	logger *slog.Logger
}

func NewAuthService(authn auth.Authenticator, logger *slog.Logger) *AuthService {
	return &AuthService{authn: authn, logger: logger}
}

// Login always succeeds in stub mode; an empty token gets a generated one.
func (s *AuthService) Login(_ context.Context, token string) (*LoginResult, error) {
	tokens, err := s.authn.Login(token)
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	s.logger.Info("login", slog.Int64("user_id", model.TestUserID))
	return s.result(tokens), nil
}

// Refresh exchanges a refresh token for a new pair. A missing or rejected
// token is apperror.ErrUnauthorized.
func (s *AuthService) Refresh(_ context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, apperror.Unauthorized()
	}

	tokens, err := s.authn.Refresh(refreshToken)
	if errors.Is(err, auth.ErrInvalidCredential) {
		s.logger.Debug("refresh rejected", slog.String("error", err.Error()))
		return nil, apperror.Unauthorized()
	}
	if err != nil {
		return nil, fmt.Errorf("refreshing tokens: %w", err)
	}

	return s.result(tokens), nil
}

func (s *AuthService) result(tokens auth.Tokens) *LoginResult {
	return &LoginResult{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    TokenType,
		ExpiresIn:    tokens.ExpiresIn,
		User: model.User{
			ID:    model.TestUserID,
			Token: tokens.AccessToken,
			Name:  model.TestUserName,
		},
	}
}
