package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"catatbuku/internal/annotation/model"
	"catatbuku/internal/annotation/repository"
	"catatbuku/internal/annotation/textrange"
	"catatbuku/middleware"
	"catatbuku/pkg/logger"
	"catatbuku/socket"
)

var (
	ErrUnauthorized      = errors.New("unauthorized: no user in request")
	ErrNotFound          = errors.New("annotation not found or not yours")
	ErrParagraphNotFound = errors.New("paragraph not found")
	ErrInvalidRange      = errors.New("offsets do not match the paragraph text")
	ErrMissingDocument   = errors.New("post_id is required")
	ErrEmptyQuoteOrNote  = errors.New("quote and note cannot be empty")
)

// AnnotationService stores underlines and ideas and announces every change to
// the other sessions reading the same document. It is the in-process
// persistence backend of the interaction controller.
type AnnotationService struct {
	Repo *repository.AnnotationRepository
	Hub  *socket.Hub
}

func NewAnnotationService(repo *repository.AnnotationRepository, hub *socket.Hub) *AnnotationService {
	return &AnnotationService{Repo: repo, Hub: hub}
}

func (s *AnnotationService) ListIdeas(ctx context.Context, docID string) ([]model.IdeaResponse, error) {
	if docID == "" {
		return nil, ErrMissingDocument
	}
	return s.Repo.GetIdeas(ctx, docID)
}

func (s *AnnotationService) AddIdea(ctx context.Context, req model.IdeaRequest) (*model.IdeaResponse, error) {
	userID := middleware.UserID(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if req.PostID == "" {
		return nil, ErrMissingDocument
	}
	quote, note := strings.TrimSpace(req.Quote), strings.TrimSpace(req.Note)
	if quote == "" || note == "" {
		return nil, ErrEmptyQuoteOrNote
	}
	if _, err := s.paragraph(ctx, req.PostID, req.ParagraphID); err != nil {
		return nil, err
	}

	idea, err := s.Repo.CreateIdea(ctx, req.PostID, req.ParagraphID, quote, note, userID)
	if err != nil {
		return nil, err
	}
	s.broadcast(ctx, socket.IdeaAddedType, idea.Post, idea.Idea())
	return idea, nil
}

func (s *AnnotationService) EditIdea(ctx context.Context, id string, req model.UpdateIdeaRequest) (*model.IdeaResponse, error) {
	userID := middleware.UserID(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	quote, note := strings.TrimSpace(req.Quote), strings.TrimSpace(req.Note)
	if quote == "" || note == "" {
		return nil, ErrEmptyQuoteOrNote
	}

	idea, err := s.Repo.UpdateIdea(ctx, id, quote, note, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.broadcast(ctx, socket.IdeaUpdatedType, idea.Post, idea.Idea())
	return idea, nil
}

func (s *AnnotationService) RemoveIdea(ctx context.Context, id string) error {
	userID := middleware.UserID(ctx)
	if userID == "" {
		return ErrUnauthorized
	}
	docID, paragraphID, err := s.Repo.DeleteIdea(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.broadcast(ctx, socket.IdeaDeletedType, docID, model.Removal{ID: id, ParagraphID: paragraphID})
	return nil
}

func (s *AnnotationService) ListUnderlines(ctx context.Context, docID string) ([]model.UnderlineResponse, error) {
	if docID == "" {
		return nil, ErrMissingDocument
	}
	return s.Repo.GetUnderlines(ctx, docID)
}

// AddUnderline stores an underline after checking that its offsets select
// exactly its text in the paragraph.
func (s *AnnotationService) AddUnderline(ctx context.Context, req model.UnderlineRequest) (*model.UnderlineResponse, error) {
	userID := middleware.UserID(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if req.PostID == "" {
		return nil, ErrMissingDocument
	}
	text, err := s.paragraph(ctx, req.PostID, req.ParagraphID)
	if err != nil {
		return nil, err
	}
	r := textrange.Range{Start: req.StartOffset, End: req.EndOffset}
	units := textrange.New(text)
	if !r.Within(units.Len()) || units.Slice(r.Start, r.End) != req.Text {
		return nil, ErrInvalidRange
	}

	u, err := s.Repo.CreateUnderline(ctx, req.PostID, req.ParagraphID, req.Text, r.Start, r.End, userID)
	if err != nil {
		return nil, err
	}
	s.broadcast(ctx, socket.UnderlineAddedType, u.Post, u.Underline())
	return u, nil
}

func (s *AnnotationService) RemoveUnderline(ctx context.Context, id string) error {
	userID := middleware.UserID(ctx)
	if userID == "" {
		return ErrUnauthorized
	}
	docID, paragraphID, err := s.Repo.DeleteUnderline(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	s.broadcast(ctx, socket.UnderlineDeletedType, docID, model.Removal{ID: id, ParagraphID: paragraphID})
	return nil
}

func (s *AnnotationService) paragraph(ctx context.Context, docID string, paragraphID int) (string, error) {
	text, err := s.Repo.GetParagraphText(ctx, docID, paragraphID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrParagraphNotFound
	}
	return text, err
}

func (s *AnnotationService) broadcast(ctx context.Context, msgType, docID string, payload any) {
	if s.Hub == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", msgType, err)
		return
	}
	s.Hub.Broadcast <- socket.WSMessage{
		Type:      msgType,
		DocID:     docID,
		UserID:    middleware.UserID(ctx),
		SessionID: socket.SessionID(ctx),
		Payload:   data,
	}
}
