package service

import (
	"context"

	"catatbuku/internal/annotation/controller"
	"catatbuku/internal/annotation/model"
)

var _ controller.Persistence = (*AnnotationService)(nil)

func (s *AnnotationService) FetchIdeas(ctx context.Context, docID string) ([]model.Idea, error) {
	rows, err := s.ListIdeas(ctx, docID)
	if err != nil {
		return nil, err
	}
	ideas := make([]model.Idea, 0, len(rows))
	for _, r := range rows {
		ideas = append(ideas, r.Idea())
	}
	return ideas, nil
}

func (s *AnnotationService) CreateIdea(ctx context.Context, docID string, paragraphID int, quote, note string) (*model.Idea, error) {
	resp, err := s.AddIdea(ctx, model.IdeaRequest{PostID: docID, ParagraphID: paragraphID, Quote: quote, Note: note})
	if err != nil {
		return nil, err
	}
	idea := resp.Idea()
	return &idea, nil
}

func (s *AnnotationService) UpdateIdea(ctx context.Context, id, quote, note string) error {
	_, err := s.EditIdea(ctx, id, model.UpdateIdeaRequest{Quote: quote, Note: note})
	return err
}

func (s *AnnotationService) DeleteIdea(ctx context.Context, id string) error {
	return s.RemoveIdea(ctx, id)
}

func (s *AnnotationService) FetchUnderlines(ctx context.Context, docID string) ([]model.Underline, error) {
	rows, err := s.ListUnderlines(ctx, docID)
	if err != nil {
		return nil, err
	}
	underlines := make([]model.Underline, 0, len(rows))
	for _, r := range rows {
		underlines = append(underlines, r.Underline())
	}
	return underlines, nil
}

func (s *AnnotationService) CreateUnderline(ctx context.Context, docID string, paragraphID int, text string, startOffset, endOffset int) (*model.Underline, error) {
	resp, err := s.AddUnderline(ctx, model.UnderlineRequest{
		PostID:      docID,
		ParagraphID: paragraphID,
		Text:        text,
		StartOffset: startOffset,
		EndOffset:   endOffset,
	})
	if err != nil {
		return nil, err
	}
	u := resp.Underline()
	return &u, nil
}

func (s *AnnotationService) DeleteUnderline(ctx context.Context, id string) error {
	return s.RemoveUnderline(ctx, id)
}
