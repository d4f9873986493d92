// Package analysis reads book-page photos: it transcribes their text and
// suggests a title and description for a new document.
package analysis

import (
	"context"
	"errors"
)

var (
	ErrNoAPIKey      = errors.New("API key not found")
	ErrEmptyResponse = errors.New("no response from AI")
)

// PageSummary is the suggested metadata for a page.
type PageSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Analyzer interface {
	// ExtractText transcribes the page, keeping paragraphs apart and
	// formatting headings as markdown headings.
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
	AnalyzePage(ctx context.Context, image []byte, mimeType string) (*PageSummary, error)
}

// Unavailable is the Analyzer used when none could be configured. Every call
// fails with Err.
type Unavailable struct {
	Err error
}

func (u Unavailable) ExtractText(context.Context, []byte, string) (string, error) {
	return "", u.Err
}

func (u Unavailable) AnalyzePage(context.Context, []byte, string) (*PageSummary, error) {
	return nil, u.Err
}
