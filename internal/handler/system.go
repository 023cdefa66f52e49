package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// HandleHealth answers GET /health without authentication.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, discardLogger, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleNotFound is the router fallback for unknown paths and methods.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeDetail(w, discardLogger, http.StatusNotFound, "Not found")
}

// Resetter empties a store.
type Resetter interface {
	Reset(ctx context.Context) error
}

// ResetHandler wipes all state between test runs. It is only routed when
// test.reset_enabled is set.
type ResetHandler struct {
	store  Resetter
	logger *slog.Logger
}

func NewResetHandler(store Resetter, logger *slog.Logger) *ResetHandler {
	return &ResetHandler{store: store, logger: logger}
}

// HTTP: POST /__test__/reset
func (h *ResetHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reset(r.Context()); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logger.Info("store reset")
	w.WriteHeader(http.StatusNoContent)
}
