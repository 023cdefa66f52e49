package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/auth"
	"github.com/sakif/pose-mock/internal/model"
	"github.com/sakif/pose-mock/internal/service"
)

// RefreshCookie holds the refresh token between login and refresh.
const RefreshCookie = "refresh_token"

// AuthHandler serves login, refresh, logout and the current user.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Token string `json:"token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// HandleLogin issues a token pair and sets the refresh cookie.
//
// HTTP: POST /api/v1/auth/login
// REQUEST BODY: {"token": "abc"}  (optional; a missing token is generated)
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	setRefreshCookie(w, res.RefreshToken)
	writeJSON(w, h.logger, http.StatusOK, res)
}

// HandleRefresh exchanges the refresh cookie (or a refresh_token in the
// body) for a new pair.
//
// HTTP: POST /api/v1/auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	token := req.RefreshToken
	if token == "" {
		if c, err := r.Cookie(RefreshCookie); err == nil {
			token = c.Value
		}
	}

	res, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	setRefreshCookie(w, res.RefreshToken)
	writeJSON(w, h.logger, http.StatusOK, res)
}

// HandleLogout clears the refresh cookie. Access tokens are not tracked,
// so there is nothing else to revoke.
//
// HTTP: POST /api/v1/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the caller resolved by RequireAuth.
//
// HTTP: GET /api/v1/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, user)
}

func setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireUser fetches the caller set by auth.RequireAuth. Protected routes
// always have one; the 401 covers a handler mounted without the middleware.
func requireUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*model.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, logger, apperror.Unauthorized())
		return nil, false
	}
	return user, true
}
