package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"catatbuku/internal/document/model"
	"catatbuku/internal/document/service"
	"catatbuku/middleware"
	"catatbuku/pkg/logger"

	"github.com/go-chi/chi/v5"
)

const analysisFailed = "Could not analyze image. Please try again or fill details manually."

type DocumentHandler struct {
	Service *service.DocumentService
}

func NewDocumentHandler(service *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Service: service}
}

func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req model.CreateDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	docID, err := h.Service.CreateDocument(userID, req)
	if errors.Is(err, service.ErrEmptyDocument) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to create document: %v", err)
		http.Error(w, "Failed to create document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(model.CreateDocResponse{DocID: docID})
}

func (h *DocumentHandler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	var req model.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	docID, err := h.Service.ImportDocument(r.Context(), userID, req)
	switch {
	case errors.Is(err, service.ErrBadImage), errors.Is(err, service.ErrEmptyDocument):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logger.Sugar.Errorf("Handler: Failed to import document: %v", err)
		http.Error(w, analysisFailed, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(model.CreateDocResponse{DocID: docID})
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	docs, err := h.Service.GetDocuments(userID)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")

	doc, err := h.Service.GetDocument(docID)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "id")
	userID := middleware.UserID(r.Context())

	err := h.Service.DeleteDocument(docID, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrNotOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) AnalyzePage(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.Service.AnalyzePage(r.Context(), req)
	if errors.Is(err, service.ErrBadImage) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, analysisFailed, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (h *DocumentHandler) ExtractText(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	text, err := h.Service.ExtractText(r.Context(), req)
	if errors.Is(err, service.ErrBadImage) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, analysisFailed, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.ExtractResponse{Text: text})
}
