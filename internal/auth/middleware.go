package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/pose-mock/internal/model"
)

// contextKey is unexported so only this package can read or write the
// caller stored in a request context.
type contextKey string

const userKey contextKey = "user"

const bearerPrefix = "Bearer "

// unauthorizedBody matches the {detail} envelope every other error uses.
const unauthorizedBody = `{"detail":"Unauthorized"}`

// RequireAuth rejects requests without a usable bearer credential with
// 401 {"detail":"Unauthorized"} and otherwise stores the resolved user in
// the request context.
//
// The header must start with exactly "Bearer " (capital B, one space). Any
// other scheme, or none, is a 401 before the authenticator is consulted.
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			user, err := authn.Resolve(token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns what follows "Bearer " in the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(h, bearerPrefix), true
}

// UserFromContext returns the caller stored by RequireAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// WithUser returns ctx carrying user. Handler tests use it to skip the
// middleware.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(unauthorizedBody))
}
