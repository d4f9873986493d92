package handler

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catatbuku/internal/analysis"
	"catatbuku/internal/document/repository"
	"catatbuku/internal/document/service"
	"catatbuku/middleware"
	"catatbuku/socket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	summary *analysis.PageSummary
	text    string
	err     error
}

func (s stubAnalyzer) ExtractText(context.Context, []byte, string) (string, error) {
	return s.text, s.err
}

func (s stubAnalyzer) AnalyzePage(context.Context, []byte, string) (*analysis.PageSummary, error) {
	return s.summary, s.err
}

func setup(t *testing.T, a analysis.Analyzer) (http.Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hub := socket.NewHub(nil)
	go hub.Run()
	h := NewDocumentHandler(service.NewDocumentService(repository.NewDocumentRepository(db), hub, a))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), "user-1")))
		})
	})
	r.Get("/api/documents", h.GetDocuments)
	r.Post("/api/documents/create", h.CreateDocument)
	r.Post("/api/documents/import", h.ImportDocument)
	r.Get("/api/documents/{id}", h.GetDocument)
	r.Delete("/api/documents/{id}", h.DeleteDocument)
	r.Post("/api/analysis/page", h.AnalyzePage)
	r.Post("/api/analysis/extract", h.ExtractText)
	return r, mock
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rr
}

var pageImage = base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

func TestCreateDocument(t *testing.T) {
	h, mock := setup(t, nil)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO paragraphs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO paragraphs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rr := do(h, http.MethodPost, "/api/documents/create", `{"title":"Dawn","text":"One.\n\nTwo."}`)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "document_id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDocumentWithoutText(t *testing.T) {
	h, _ := setup(t, nil)

	rr := do(h, http.MethodPost, "/api/documents/create", `{"title":"Dawn"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetDocumentNotFound(t *testing.T) {
	h, mock := setup(t, nil)
	mock.ExpectQuery("FROM documents WHERE id").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	rr := do(h, http.MethodGet, "/api/documents/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetDocument(t *testing.T) {
	h, mock := setup(t, nil)
	published := time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM documents WHERE id").WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author", "image_url", "owner_id", "published_at"}).
			AddRow("doc-1", "Dawn", "A. Writer", "", "user-1", published))
	mock.ExpectQuery("SELECT id, text FROM paragraphs").WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "text"}).AddRow(1, "One."))

	rr := do(h, http.MethodGet, "/api/documents/doc-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":"doc-1","title":"Dawn","author":"A. Writer","image_url":"","owner_id":"user-1",
		"published_at":"2024-08-16T00:00:00Z","content":[{"id":1,"text":"One."}]}`, rr.Body.String())
}

func TestDeleteDocumentForbidden(t *testing.T) {
	h, mock := setup(t, nil)
	mock.ExpectQuery("SELECT owner_id FROM documents").WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("someone-else"))

	rr := do(h, http.MethodDelete, "/api/documents/doc-1", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAnalyzePage(t *testing.T) {
	h, _ := setup(t, stubAnalyzer{summary: &analysis.PageSummary{Title: "Dawn", Description: "A morning."}})

	rr := do(h, http.MethodPost, "/api/analysis/page", `{"image":"`+pageImage+`","mime_type":"image/jpeg"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"title":"Dawn","description":"A morning."}`, rr.Body.String())
}

func TestAnalyzePageFailure(t *testing.T) {
	h, _ := setup(t, stubAnalyzer{err: errors.New("quota")})

	rr := do(h, http.MethodPost, "/api/analysis/page", `{"image":"`+pageImage+`","mime_type":"image/jpeg"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not analyze image. Please try again or fill details manually.")
}

func TestAnalyzeWithoutKey(t *testing.T) {
	h, _ := setup(t, analysis.Unavailable{Err: analysis.ErrNoAPIKey})

	rr := do(h, http.MethodPost, "/api/analysis/extract", `{"image":"`+pageImage+`","mime_type":"image/jpeg"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestExtractText(t *testing.T) {
	h, _ := setup(t, stubAnalyzer{text: "# Title\n\nBody."})

	rr := do(h, http.MethodPost, "/api/analysis/extract", `{"image":"`+pageImage+`","mime_type":"image/jpeg"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"text":"# Title\n\nBody."}`, rr.Body.String())
}

func TestImportDocumentBadImage(t *testing.T) {
	h, _ := setup(t, stubAnalyzer{text: "Body."})

	rr := do(h, http.MethodPost, "/api/documents/import", `{"image":"***","mime_type":"image/jpeg"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
