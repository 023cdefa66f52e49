package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/pose-mock/internal/service"
)

type CategoryHandler struct {
	svc    *service.CategoryService
	logger *slog.Logger
}

func NewCategoryHandler(svc *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, logger: logger}
}

// HandleList returns the caller's categories with pose_count.
//
// HTTP: GET /api/v1/categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	categories, err := h.svc.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, categories)
}

// HandleCreate creates a category.
//
// HTTP: POST /api/v1/categories
// REQUEST BODY: {"name": "Standing", "description": "optional"}
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var in service.CategoryInput
	if err := decodeJSON(r, &in, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	category, err := h.svc.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, category)
}

// HandleDelete always answers 204, whether or not the category existed.
//
// HTTP: DELETE /api/v1/categories/{id}
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	id, err := pathID(r, "Category")
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.svc.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
