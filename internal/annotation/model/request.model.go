package model

import "time"

type IdeaRequest struct {
	PostID      string `json:"post_id"`
	ParagraphID int    `json:"paragraphId"`
	Quote       string `json:"quote"`
	Note        string `json:"note"`
}

type UpdateIdeaRequest struct {
	Quote string `json:"quote"`
	Note  string `json:"note"`
}

type IdeaResponse struct {
	ID        string    `json:"id"`
	Post      string    `json:"post"`
	Paragraph int       `json:"paragraph"`
	Quote     string    `json:"quote"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r IdeaResponse) Idea() Idea {
	return Idea{
		ID:          r.ID,
		ParagraphID: r.Paragraph,
		Quote:       r.Quote,
		Note:        r.Note,
		Timestamp:   Timestamp(r.CreatedAt),
	}
}

type UnderlineRequest struct {
	PostID      string `json:"post_id"`
	ParagraphID int    `json:"paragraphId"`
	Text        string `json:"text"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
}

type UnderlineResponse struct {
	ID          string    `json:"id"`
	Post        string    `json:"post"`
	Paragraph   int       `json:"paragraph"`
	Text        string    `json:"text"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r UnderlineResponse) Underline() Underline {
	return Underline{
		ID:          r.ID,
		ParagraphID: r.Paragraph,
		Text:        r.Text,
		StartOffset: r.StartOffset,
		EndOffset:   r.EndOffset,
	}
}

// Removal is the payload announcing a deleted annotation.
type Removal struct {
	ID          string `json:"id"`
	ParagraphID int    `json:"paragraphId"`
}
