package repository

import (
	"context"
	"database/sql"

	"catatbuku/internal/annotation/model"
	"catatbuku/pkg/logger"
)

type AnnotationRepository struct {
	DB *sql.DB
}

func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{DB: db}
}

func (r *AnnotationRepository) GetParagraphText(ctx context.Context, docID string, paragraphID int) (string, error) {
	var text string
	err := r.DB.QueryRowContext(ctx, "SELECT text FROM paragraphs WHERE document_id = $1 AND id = $2", docID, paragraphID).Scan(&text)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to get paragraph %d of doc %s: %v", paragraphID, docID, err)
	}
	return text, err
}

func (r *AnnotationRepository) CreateIdea(ctx context.Context, docID string, paragraphID int, quote, note, userID string) (*model.IdeaResponse, error) {
	idea := model.IdeaResponse{Post: docID, Paragraph: paragraphID, Quote: quote, Note: note}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO ideas (document_id, paragraph_id, quote, note, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		docID, paragraphID, quote, note, userID,
	).Scan(&idea.ID, &idea.CreatedAt, &idea.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to add idea to doc %s: %v", docID, err)
		return nil, err
	}
	return &idea, nil
}

func (r *AnnotationRepository) GetIdeas(ctx context.Context, docID string) ([]model.IdeaResponse, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, document_id, paragraph_id, quote, note, created_at, updated_at
		FROM ideas WHERE document_id = $1 ORDER BY created_at ASC`, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get ideas for doc %s: %v", docID, err)
		return nil, err
	}
	defer rows.Close()

	ideas := []model.IdeaResponse{}
	for rows.Next() {
		var i model.IdeaResponse
		if err := rows.Scan(&i.ID, &i.Post, &i.Paragraph, &i.Quote, &i.Note, &i.CreatedAt, &i.UpdatedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan idea for doc %s: %v", docID, err)
			continue
		}
		ideas = append(ideas, i)
	}
	return ideas, rows.Err()
}

// UpdateIdea edits an idea owned by userID. sql.ErrNoRows means it does not
// exist or belongs to someone else.
func (r *AnnotationRepository) UpdateIdea(ctx context.Context, id, quote, note, userID string) (*model.IdeaResponse, error) {
	idea := model.IdeaResponse{ID: id, Quote: quote, Note: note}
	err := r.DB.QueryRowContext(ctx, `
		UPDATE ideas SET quote = $1, note = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING document_id, paragraph_id, created_at, updated_at`,
		quote, note, id, userID,
	).Scan(&idea.Post, &idea.Paragraph, &idea.CreatedAt, &idea.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to update idea %s: %v", id, err)
		return nil, err
	}
	return &idea, nil
}

func (r *AnnotationRepository) DeleteIdea(ctx context.Context, id, userID string) (string, int, error) {
	var docID string
	var paragraphID int
	err := r.DB.QueryRowContext(ctx, `
		DELETE FROM ideas
		WHERE id = $1 AND (user_id = $2 OR document_id IN (SELECT id FROM documents WHERE owner_id = $2))
		RETURNING document_id, paragraph_id`, id, userID).Scan(&docID, &paragraphID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete idea %s: %v", id, err)
	}
	return docID, paragraphID, err
}

func (r *AnnotationRepository) CreateUnderline(ctx context.Context, docID string, paragraphID int, text string, start, end int, userID string) (*model.UnderlineResponse, error) {
	u := model.UnderlineResponse{Post: docID, Paragraph: paragraphID, Text: text, StartOffset: start, EndOffset: end}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO underlines (document_id, paragraph_id, text, start_offset, end_offset, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`,
		docID, paragraphID, text, start, end, userID,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to add underline to doc %s: %v", docID, err)
		return nil, err
	}
	return &u, nil
}

func (r *AnnotationRepository) GetUnderlines(ctx context.Context, docID string) ([]model.UnderlineResponse, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, document_id, paragraph_id, text, start_offset, end_offset, created_at
		FROM underlines WHERE document_id = $1 ORDER BY created_at ASC`, docID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get underlines for doc %s: %v", docID, err)
		return nil, err
	}
	defer rows.Close()

	underlines := []model.UnderlineResponse{}
	for rows.Next() {
		var u model.UnderlineResponse
		if err := rows.Scan(&u.ID, &u.Post, &u.Paragraph, &u.Text, &u.StartOffset, &u.EndOffset, &u.CreatedAt); err != nil {
			logger.Sugar.Errorf("Failed to scan underline for doc %s: %v", docID, err)
			continue
		}
		underlines = append(underlines, u)
	}
	return underlines, rows.Err()
}

func (r *AnnotationRepository) DeleteUnderline(ctx context.Context, id, userID string) (string, int, error) {
	var docID string
	var paragraphID int
	err := r.DB.QueryRowContext(ctx, `
		DELETE FROM underlines
		WHERE id = $1 AND (user_id = $2 OR document_id IN (SELECT id FROM documents WHERE owner_id = $2))
		RETURNING document_id, paragraph_id`, id, userID).Scan(&docID, &paragraphID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete underline %s: %v", id, err)
	}
	return docID, paragraphID, err
}
