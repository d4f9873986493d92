package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"catatbuku/internal/analysis"
	annotation "catatbuku/internal/annotation/model"
	"catatbuku/internal/document/model"
	"catatbuku/internal/document/repository"
	"catatbuku/socket"

	"github.com/google/uuid"
)

var (
	ErrEmptyDocument = errors.New("document has no text")
	ErrBadImage      = errors.New("image must be base64 encoded")
	ErrNotOwner      = errors.New("unauthorized: only owner can delete")
)

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	heading    = regexp.MustCompile(`^#{1,6}\s+`)
)

type DocumentService struct {
	Repo     *repository.DocumentRepository
	Hub      *socket.Hub
	Analyzer analysis.Analyzer
}

func NewDocumentService(repo *repository.DocumentRepository, hub *socket.Hub, analyzer analysis.Analyzer) *DocumentService {
	return &DocumentService{Repo: repo, Hub: hub, Analyzer: analyzer}
}

func (s *DocumentService) CreateDocument(userID string, req model.CreateDocRequest) (string, error) {
	paragraphs := SplitParagraphs(req.Text)
	if len(paragraphs) == 0 {
		return "", ErrEmptyDocument
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled Page"
	}

	doc := model.Document{
		ID:          uuid.NewString(),
		Title:       title,
		Author:      strings.TrimSpace(req.Author),
		ImageURL:    req.ImageURL,
		OwnerID:     userID,
		PublishedAt: time.Now().UTC(),
		Content:     paragraphs,
	}
	if err := s.Repo.Create(doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// ImportDocument transcribes a page photo and stores the text as a new
// document.
func (s *DocumentService) ImportDocument(ctx context.Context, userID string, req model.ImportRequest) (string, error) {
	image, err := decodeImage(req.Image)
	if err != nil {
		return "", err
	}
	text, err := s.Analyzer.ExtractText(ctx, image, req.MimeType)
	if err != nil {
		return "", err
	}
	return s.CreateDocument(userID, model.CreateDocRequest{Title: req.Title, Author: req.Author, Text: text})
}

func (s *DocumentService) AnalyzePage(ctx context.Context, req model.AnalyzeRequest) (*analysis.PageSummary, error) {
	image, err := decodeImage(req.Image)
	if err != nil {
		return nil, err
	}
	return s.Analyzer.AnalyzePage(ctx, image, req.MimeType)
}

func (s *DocumentService) ExtractText(ctx context.Context, req model.AnalyzeRequest) (string, error) {
	image, err := decodeImage(req.Image)
	if err != nil {
		return "", err
	}
	return s.Analyzer.ExtractText(ctx, image, req.MimeType)
}

func (s *DocumentService) GetDocument(docID string) (*model.Document, error) {
	return s.Repo.GetDocument(docID)
}

func (s *DocumentService) DeleteDocument(docID, userID string) error {
	ownerID, err := s.Repo.GetOwnerID(docID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrNotOwner
	}

	if err := s.Repo.Delete(docID); err != nil {
		return err
	}
	s.Hub.RemoveDocument(docID)
	return nil
}

func (s *DocumentService) GetDocuments(userID string) ([]model.DocumentMetadata, error) {
	rows, err := s.Repo.GetDocuments()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.DocumentMetadata{}
	for rows.Next() {
		var doc model.DocumentMetadata
		var ownerID, firstParagraph string
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Author, &doc.ImageURL, &doc.PublishedAt, &doc.UpdatedAt, &ownerID, &firstParagraph); err != nil {
			continue
		}
		doc.IsOwner = ownerID == userID
		doc.Snippet = snippet(firstParagraph)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SplitParagraphs breaks text into paragraphs on blank lines and numbers them
// from 1. Lines inside a paragraph are joined with a space and markdown
// heading markers are dropped.
func SplitParagraphs(text string) []annotation.Paragraph {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var paragraphs []annotation.Paragraph
	for _, block := range blankLines.Split(text, -1) {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		lines[0] = heading.ReplaceAllString(lines[0], "")
		paragraphs = append(paragraphs, annotation.Paragraph{
			ID:   len(paragraphs) + 1,
			Text: strings.Join(lines, " "),
		})
	}
	return paragraphs
}

func decodeImage(data string) ([]byte, error) {
	// Accept data URLs as produced by FileReader.readAsDataURL.
	if i := strings.Index(data, ";base64,"); i >= 0 {
		data = data[i+len(";base64,"):]
	}
	image, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	if len(image) == 0 {
		return nil, ErrBadImage
	}
	return image, nil
}

func snippet(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > 100 {
		return string(runes[:100]) + "..."
	}
	return string(runes)
}
