package model

import "time"

type Kind string

const (
	KindText      Kind = "text"
	KindUnderline Kind = "underline"
	KindIdea      Kind = "idea"
)

// LocalIDPrefix marks records that exist only in memory because the backend
// could not confirm them.
const LocalIDPrefix = "local-"

type Paragraph struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Underline offsets are UTF-16 code units into Paragraph.Text and never change
// after creation.
type Underline struct {
	ID          string `json:"id"`
	ParagraphID int    `json:"paragraphId"`
	Text        string `json:"text"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
}

// Idea is a note attached to a quoted span. Its position is found again on
// every render by searching for Quote in the paragraph text.
type Idea struct {
	ID          string `json:"id"`
	ParagraphID int    `json:"paragraphId"`
	Quote       string `json:"quote"`
	Note        string `json:"note"`
	Timestamp   string `json:"timestamp"`
}

// IsLocal reports whether id was assigned locally rather than by the backend.
func IsLocal(id string) bool {
	return len(id) >= len(LocalIDPrefix) && id[:len(LocalIDPrefix)] == LocalIDPrefix
}

// Timestamp formats t the way idea timestamps are exchanged.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
