package repository

import (
	"database/sql"

	annotation "catatbuku/internal/annotation/model"
	"catatbuku/internal/document/model"
	"catatbuku/pkg/logger"
)

type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

// Create stores a document and its paragraphs in one transaction.
func (r *DocumentRepository) Create(doc model.Document) error {
	tx, err := r.DB.Begin()
	if err != nil {
		logger.Sugar.Errorf("Failed to begin transaction for doc %s: %v", doc.ID, err)
		return err
	}

	_, err = tx.Exec(`INSERT INTO documents (id, title, author, image_url, owner_id, published_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		doc.ID, doc.Title, doc.Author, doc.ImageURL, doc.OwnerID, doc.PublishedAt)
	if err != nil {
		tx.Rollback()
		logger.Sugar.Errorf("Failed to create document: %v", err)
		return err
	}

	for _, p := range doc.Content {
		if _, err := tx.Exec(`INSERT INTO paragraphs (document_id, id, text) VALUES ($1, $2, $3)`, doc.ID, p.ID, p.Text); err != nil {
			tx.Rollback()
			logger.Sugar.Errorf("Failed to add paragraph %d to doc %s: %v", p.ID, doc.ID, err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Sugar.Errorf("Failed to commit doc %s: %v", doc.ID, err)
		return err
	}
	return nil
}

func (r *DocumentRepository) GetOwnerID(docID string) (string, error) {
	var ownerID string
	err := r.DB.QueryRow("SELECT owner_id FROM documents WHERE id = $1", docID).Scan(&ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get owner ID for doc %s: %v", docID, err)
	}
	return ownerID, err
}

// GetDocument loads a document with its paragraphs in reading order.
func (r *DocumentRepository) GetDocument(docID string) (*model.Document, error) {
	var doc model.Document
	err := r.DB.QueryRow(`SELECT id, title, author, image_url, owner_id, published_at FROM documents WHERE id = $1`, docID).
		Scan(&doc.ID, &doc.Title, &doc.Author, &doc.ImageURL, &doc.OwnerID, &doc.PublishedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Sugar.Errorf("Failed to get doc %s: %v", docID, err)
		}
		return nil, err
	}

	doc.Content, err = r.GetParagraphs(docID)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) GetParagraphs(docID string) ([]annotation.Paragraph, error) {
	rows, err := r.DB.Query(`SELECT id, text FROM paragraphs WHERE document_id = $1 ORDER BY id ASC`, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get paragraphs for doc %s: %v", docID, err)
		return nil, err
	}
	defer rows.Close()

	paragraphs := []annotation.Paragraph{}
	for rows.Next() {
		var p annotation.Paragraph
		if err := rows.Scan(&p.ID, &p.Text); err != nil {
			logger.Sugar.Errorf("Failed to scan paragraph for doc %s: %v", docID, err)
			return nil, err
		}
		paragraphs = append(paragraphs, p)
	}
	return paragraphs, rows.Err()
}

func (r *DocumentRepository) Delete(docID string) error {
	_, err := r.DB.Exec("DELETE FROM documents WHERE id = $1", docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete doc %s: %v", docID, err)
	}
	return err
}

// GetDocuments lists every document, newest first, with the text of its first
// paragraph for the snippet.
func (r *DocumentRepository) GetDocuments() (*sql.Rows, error) {
	query := `
		SELECT d.id, d.title, d.author, d.image_url, d.published_at, d.updated_at, d.owner_id, COALESCE(p.text, '')
		FROM documents d
		LEFT JOIN paragraphs p ON p.document_id = d.id AND p.id = 1
		ORDER BY d.published_at DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		logger.Sugar.Errorf("Failed to get documents: %v", err)
	}
	return rows, err
}
