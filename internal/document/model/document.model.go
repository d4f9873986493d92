package model

import (
	"time"

	annotation "catatbuku/internal/annotation/model"
)

// Document is a book page split into paragraphs. Paragraph ids run 1..n in
// reading order and never change once the document is created.
type Document struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Author      string                 `json:"author"`
	ImageURL    string                 `json:"image_url"`
	OwnerID     string                 `json:"owner_id"`
	PublishedAt time.Time              `json:"published_at"`
	Content     []annotation.Paragraph `json:"content"`
}

type CreateDocResponse struct {
	DocID string `json:"document_id"`
}

type DocumentMetadata struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ImageURL    string    `json:"image_url"`
	PublishedAt time.Time `json:"published_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Snippet     string    `json:"snippet"`
	IsOwner     bool      `json:"is_owner"`
}

type CreateDocRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	ImageURL string `json:"image_url"`
	Text     string `json:"text"`
}

// ImportRequest carries a base64 page image to be transcribed into a new
// document.
type ImportRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
	Title    string `json:"title"`
	Author   string `json:"author"`
}

type AnalyzeRequest struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
}

type ExtractResponse struct {
	Text string `json:"text"`
}
