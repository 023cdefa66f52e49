package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/pose-mock/internal/apperror"
	"github.com/sakif/pose-mock/internal/service"
	"github.com/sakif/pose-mock/internal/upload"
)

// DefaultMaxUploadBytes caps schema upload bodies when no limit is configured.
const DefaultMaxUploadBytes int64 = 20 << 20

type PoseHandler struct {
	svc            *service.PoseService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewPoseHandler builds the pose handler. maxUploadBytes <= 0 selects
// DefaultMaxUploadBytes.
func NewPoseHandler(svc *service.PoseService, maxUploadBytes int64, logger *slog.Logger) *PoseHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &PoseHandler{svc: svc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// HandleList returns one page of the caller's poses.
//
// HTTP: GET /api/v1/poses?skip=0&limit=100&category_id=3
func (h *PoseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	page, err := h.svc.List(r.Context(), user.ID, service.PoseListParams{
		CategoryID: queryInt64Ptr(r, "category_id"),
		Skip:       queryInt(r, "skip"),
		Limit:      queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, page)
}

// HandleCreate creates a pose at version 1.
//
// HTTP: POST /api/v1/poses
// REQUEST BODY: {"code": "X1", "name": "Test", "category_id": 3, "muscles": [...]}
func (h *PoseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var in service.PoseInput
	if err := decodeJSON(r, &in, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pose, err := h.svc.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, pose)
}

// HTTP: GET /api/v1/poses/{id}
func (h *PoseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r, "Pose")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	pose, err := h.svc.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, pose)
}

// HTTP: DELETE /api/v1/poses/{id}
func (h *PoseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r, "Pose")
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

// HandleUploadSchema stores the multipart "file" part as the pose's schema
// image and returns the updated pose.
//
// HTTP: POST /api/v1/poses/{id}/schema
//
// Ownership is checked before the body is read: a foreign pose is a 404
// even when the body has no file.
func (h *PoseHandler) HandleUploadSchema(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, err := pathID(r, "Pose")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.svc.Get(r.Context(), user.ID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, h.logger, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, r, h.logger, apperror.ValidationFailed("file", "Missing file"))
		return
	}

	data, ok := upload.ExtractFile(body, r.Header.Get("Content-Type"))
	if !ok {
		writeDetail(w, h.logger, http.StatusBadRequest, "Missing file")
		return
	}

	pose, err := h.svc.UploadSchema(r.Context(), user.ID, id, data)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, pose)
}

// HandleServeSchema serves an uploaded schema image. It is public and is
// not an API route: a miss is an empty 404, not a JSON envelope.
//
// HTTP: GET /storage/uploads/{id}/schema.png
func (h *PoseHandler) HandleServeSchema(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Upload")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	data, err := h.svc.SchemaImage(r.Context(), id)
	if errors.Is(err, apperror.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
