package handler

// RESPONSE HELPERS:
// Every JSON response goes through writeJSON, every failure through
// writeError, so all errors share one shape:
//
//	{"detail": "Pose not found"}
//
// The one exception is the storage route, which serves raw bytes and
// answers a miss with an empty 404.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/pose-mock/internal/apperror"
)

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// discardLogger serves the package-level handlers, whose bodies are fixed
// literals.
var discardLogger = slog.New(slog.DiscardHandler)

// writeJSON sends a JSON response with the given status code. Encode
// failures go to logger.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body is written; once Encode
// writes, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeDetail(w http.ResponseWriter, logger *slog.Logger, status int, detail string) {
	writeJSON(w, logger, status, ErrorResponse{Detail: detail})
}

// writeError maps a domain error to its HTTP status.
//
// ERROR MAPPING:
//
//	ErrValidation   → 400
//	ErrUnauthorized → 401
//	ErrForbidden    → 403
//	ErrNotFound     → 404
//	ErrConflict     → 409
//	anything else   → 500
//
// A 500 carries the error text verbatim. This server is a test fixture and
// the text is what a failing test needs to see. It is also logged at error
// level; the mapped statuses are expected outcomes and are not.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	detail := err.Error()
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		detail = appErr.Message
	}

	writeDetail(w, logger, status, detail)
}

// errInvalidJSON is returned by decodeJSON for any body that does not parse.
var errInvalidJSON = apperror.ValidationFailed("body", "Invalid JSON body")

// decodeJSON reads the request body into v. An empty body is an error
// unless allowEmpty is set, in which case v is left untouched.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		return errInvalidJSON
	}
	return nil
}
