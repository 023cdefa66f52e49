package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover turns a handler panic into a 500 with the JSON error envelope.
// The panic value becomes the detail, matching how unexpected errors are
// reported everywhere else in the API.
//
// chi ships middleware.Recoverer, but it answers with a plain-text body.
//
// http.ErrAbortHandler is re-panicked so net/http can abort the connection
// quietly.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := NewResponseWriter(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				detail := fmt.Sprint(rec)
				logger.Error("panic recovered",
					slog.String("request_id", chimw.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("panic", detail),
					slog.String("stack", string(debug.Stack())),
				)

				// Too late for a status line once the handler has written.
				if wrapped.WroteHeader() {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"detail": detail})
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}
