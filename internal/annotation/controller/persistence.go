package controller

import (
	"context"

	"catatbuku/internal/annotation/model"
)

// Persistence is the backend that stores annotations. Implementations must be
// safe for concurrent use: underline saves run in the background.
//
// Any error is treated as "the backend did not confirm"; the controller keeps
// working with local-only records instead of failing the gesture.
type Persistence interface {
	FetchIdeas(ctx context.Context, docID string) ([]model.Idea, error)
	CreateIdea(ctx context.Context, docID string, paragraphID int, quote, note string) (*model.Idea, error)
	UpdateIdea(ctx context.Context, id, quote, note string) error
	DeleteIdea(ctx context.Context, id string) error

	FetchUnderlines(ctx context.Context, docID string) ([]model.Underline, error)
	CreateUnderline(ctx context.Context, docID string, paragraphID int, text string, startOffset, endOffset int) (*model.Underline, error)
	DeleteUnderline(ctx context.Context, id string) error
}

// Settlement reports the outcome of a background underline save.
type Settlement struct {
	LocalID   string
	Underline *model.Underline
	Err       error
}
