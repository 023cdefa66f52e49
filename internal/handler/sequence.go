package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/pose-mock/internal/service"
)

// SequenceHandler is mounted under both /api/sequences and
// /api/v1/sequences.
type SequenceHandler struct {
	svc    *service.SequenceService
	logger *slog.Logger
}

func NewSequenceHandler(svc *service.SequenceService, logger *slog.Logger) *SequenceHandler {
	return &SequenceHandler{svc: svc, logger: logger}
}

// HTTP: GET /api/v1/sequences?skip=0&limit=20
func (h *SequenceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	page, err := h.svc.List(r.Context(), user.ID, queryInt(r, "skip"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, page)
}

// HandleCreate creates a sequence from existing poses.
//
// HTTP: POST /api/v1/sequences
// REQUEST BODY:
//
//	{"name": "Morning", "difficulty": "beginner",
//	 "poses": [{"pose_id": 1, "duration_seconds": 30}]}
func (h *SequenceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var in service.SequenceInput
	if err := decodeJSON(r, &in, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	seq, err := h.svc.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, seq)
}

// HTTP: GET /api/v1/sequences/{id}
func (h *SequenceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r, "Sequence")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	seq, err := h.svc.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, seq)
}

// HandleUpdate changes name, description or difficulty.
//
// HTTP: PUT /api/v1/sequences/{id}
func (h *SequenceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r, "Sequence")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var in service.SequenceUpdate
	if err := decodeJSON(r, &in, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	seq, err := h.svc.Update(r.Context(), user.ID, id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, seq)
}

// HTTP: DELETE /api/v1/sequences/{id}
func (h *SequenceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r, "Sequence")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
