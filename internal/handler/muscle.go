package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/pose-mock/internal/service"
)

type MuscleHandler struct {
	svc    *service.MuscleService
	logger *slog.Logger
}

func NewMuscleHandler(svc *service.MuscleService, logger *slog.Logger) *MuscleHandler {
	return &MuscleHandler{svc: svc, logger: logger}
}

// HandleSeed inserts the default muscles once and returns the full list.
//
// HTTP: POST /api/v1/muscles/seed
func (h *MuscleHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	muscles, err := h.svc.Seed(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, muscles)
}

// HTTP: GET /api/v1/muscles
func (h *MuscleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	muscles, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, muscles)
}
