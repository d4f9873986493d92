package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"catatbuku/internal/annotation/model"
	"catatbuku/internal/annotation/service"
	"catatbuku/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type AnnotationHandler struct {
	Service *service.AnnotationService
}

func NewAnnotationHandler(service *service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{Service: service}
}

func (h *AnnotationHandler) GetIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.Service.ListIdeas(r.Context(), r.URL.Query().Get("post"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

func (h *AnnotationHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var req model.IdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	idea, err := h.Service.AddIdea(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (h *AnnotationHandler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateIdeaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	idea, err := h.Service.EditIdea(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (h *AnnotationHandler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveIdea(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AnnotationHandler) GetUnderlines(w http.ResponseWriter, r *http.Request) {
	underlines, err := h.Service.ListUnderlines(r.Context(), r.URL.Query().Get("post"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, underlines)
}

func (h *AnnotationHandler) CreateUnderline(w http.ResponseWriter, r *http.Request) {
	var req model.UnderlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.Service.AddUnderline(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AnnotationHandler) DeleteUnderline(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveUnderline(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrParagraphNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidRange), errors.Is(err, service.ErrMissingDocument), errors.Is(err, service.ErrEmptyQuoteOrNote):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Sugar.Errorf("Handler: annotation request failed: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
	}
}
