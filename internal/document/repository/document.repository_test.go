package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	annotation "catatbuku/internal/annotation/model"
	"catatbuku/internal/document/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentRepository(db), mock
}

func TestCreateStoresParagraphs(t *testing.T) {
	repo, mock := newMockRepo(t)
	published := time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC)
	doc := model.Document{
		ID: "doc-1", Title: "Dawn", Author: "A. Writer", OwnerID: "user-1", PublishedAt: published,
		Content: []annotation.Paragraph{{ID: 1, Text: "First."}, {ID: 2, Text: "Second."}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "Dawn", "A. Writer", "", "user-1", published).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO paragraphs").WithArgs("doc-1", 1, "First.").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO paragraphs").WithArgs("doc-1", 2, "Second.").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(doc))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRollsBackOnParagraphError(t *testing.T) {
	repo, mock := newMockRepo(t)
	doc := model.Document{ID: "doc-1", Title: "Dawn", OwnerID: "user-1", Content: []annotation.Paragraph{{ID: 1, Text: "First."}}}
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO paragraphs").WillReturnError(boom)
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Create(doc), boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDocument(t *testing.T) {
	repo, mock := newMockRepo(t)
	published := time.Date(2024, 8, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM documents WHERE id").WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author", "image_url", "owner_id", "published_at"}).
			AddRow("doc-1", "Dawn", "A. Writer", "https://example.com/p.jpg", "user-1", published))
	mock.ExpectQuery("SELECT id, text FROM paragraphs").WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "text"}).AddRow(1, "First.").AddRow(2, "Second."))

	doc, err := repo.GetDocument("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Dawn", doc.Title)
	assert.Equal(t, []annotation.Paragraph{{ID: 1, Text: "First."}, {ID: 2, Text: "Second."}}, doc.Content)
}

func TestGetDocumentNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM documents WHERE id").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetDocument("nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM documents WHERE id").WithArgs("doc-1").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Delete("doc-1"))
}
