package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"catatbuku/internal/annotation/model"
	"catatbuku/internal/annotation/repository"
	"catatbuku/middleware"
	"catatbuku/socket"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sunrise = "The sun had barely kissed the horizon, casting long, ethereal shadows across the cobblestone streets."

func newTestService(t *testing.T) (*AnnotationService, sqlmock.Sqlmock, *socket.Client) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hub := socket.NewHub(nil)
	go hub.Run()
	reader := &socket.Client{
		DocID:     "doc-1",
		UserID:    "user-2",
		SessionID: "reader-session",
		Send:      make(chan []byte, 16),
		Inbox:     make(chan socket.WSMessage, 4),
	}
	hub.Register <- reader

	return NewAnnotationService(repository.NewAnnotationRepository(db), hub), mock, reader
}

func userCtx(userID string) context.Context {
	return middleware.WithUserID(context.Background(), userID)
}

func expectParagraph(mock sqlmock.Sqlmock, text string) {
	mock.ExpectQuery("SELECT text FROM paragraphs").
		WithArgs("doc-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"text"}).AddRow(text))
}

func receive(t *testing.T, c *socket.Client) socket.WSMessage {
	select {
	case msg := <-c.Inbox:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
		return socket.WSMessage{}
	}
}

func TestAddUnderlineValidatesAndBroadcasts(t *testing.T) {
	s, mock, reader := newTestService(t)
	expectParagraph(mock, sunrise)
	mock.ExpectQuery("INSERT INTO underlines").
		WithArgs("doc-1", 1, "ethereal shadows", 53, 69, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", time.Now()))

	u, err := s.AddUnderline(userCtx("user-1"), model.UnderlineRequest{
		PostID: "doc-1", ParagraphID: 1, Text: "ethereal shadows", StartOffset: 53, EndOffset: 69,
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	msg := receive(t, reader)
	assert.Equal(t, socket.UnderlineAddedType, msg.Type)
	assert.Equal(t, "doc-1", msg.DocID)
	assert.Equal(t, "user-1", msg.UserID)
	var announced model.Underline
	require.NoError(t, json.Unmarshal(msg.Payload, &announced))
	assert.Equal(t, model.Underline{ID: "u-1", ParagraphID: 1, Text: "ethereal shadows", StartOffset: 53, EndOffset: 69}, announced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUnderlineRejectsMismatchedOffsets(t *testing.T) {
	cases := []struct {
		name       string
		text       string
		start, end int
	}{
		{"wrong text", "ethereal shadow", 53, 69},
		{"past the end", "streets.", 93, 200},
		{"empty", "", 10, 10},
		{"negative", "The", -1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, mock, _ := newTestService(t)
			expectParagraph(mock, sunrise)

			_, err := s.AddUnderline(userCtx("user-1"), model.UnderlineRequest{
				PostID: "doc-1", ParagraphID: 1, Text: tc.text, StartOffset: tc.start, EndOffset: tc.end,
			})
			assert.ErrorIs(t, err, ErrInvalidRange)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAddUnderlineCountsUTF16Units(t *testing.T) {
	s, mock, _ := newTestService(t)
	expectParagraph(mock, "Sunrise 🌅 over town")
	mock.ExpectQuery("INSERT INTO underlines").
		WithArgs("doc-1", 1, "over", 11, 15, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", time.Now()))

	_, err := s.AddUnderline(userCtx("user-1"), model.UnderlineRequest{
		PostID: "doc-1", ParagraphID: 1, Text: "over", StartOffset: 11, EndOffset: 15,
	})
	assert.NoError(t, err)
}

func TestAddUnderlineUnknownParagraph(t *testing.T) {
	s, mock, _ := newTestService(t)
	mock.ExpectQuery("SELECT text FROM paragraphs").WithArgs("doc-1", 1).WillReturnError(sql.ErrNoRows)

	_, err := s.AddUnderline(userCtx("user-1"), model.UnderlineRequest{PostID: "doc-1", ParagraphID: 1, Text: "x", StartOffset: 0, EndOffset: 1})
	assert.ErrorIs(t, err, ErrParagraphNotFound)
}

func TestRequiresUser(t *testing.T) {
	s, _, _ := newTestService(t)

	_, err := s.AddIdea(context.Background(), model.IdeaRequest{PostID: "doc-1", ParagraphID: 1, Quote: "q", Note: "n"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, s.RemoveUnderline(context.Background(), "u-1"), ErrUnauthorized)
}

func TestAddIdeaRejectsBlankNote(t *testing.T) {
	s, _, _ := newTestService(t)

	_, err := s.AddIdea(userCtx("user-1"), model.IdeaRequest{PostID: "doc-1", ParagraphID: 1, Quote: "sun", Note: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuoteOrNote)
}

func TestCreateIdeaSkipsOriginSession(t *testing.T) {
	s, mock, reader := newTestService(t)
	expectParagraph(mock, sunrise)
	now := time.Date(2024, 8, 16, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO ideas").
		WithArgs("doc-1", 1, "the horizon", "Liminal.", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("idea-1", now, now))

	ctx := socket.WithSession(userCtx("user-1"), "reader-session")
	idea, err := s.CreateIdea(ctx, "doc-1", 1, " the horizon ", "Liminal.")
	require.NoError(t, err)
	assert.Equal(t, &model.Idea{ID: "idea-1", ParagraphID: 1, Quote: "the horizon", Note: "Liminal.", Timestamp: "2024-08-16T10:00:00Z"}, idea)

	// The next broadcast can only be taken once the previous one was fanned out.
	s.Hub.Broadcast <- socket.WSMessage{DocID: "elsewhere"}
	assert.Empty(t, reader.Inbox)
}

func TestRemoveIdeaNotFound(t *testing.T) {
	s, mock, _ := newTestService(t)
	mock.ExpectQuery("DELETE FROM ideas").WithArgs("idea-9", "user-1").WillReturnError(sql.ErrNoRows)

	assert.ErrorIs(t, s.DeleteIdea(userCtx("user-1"), "idea-9"), ErrNotFound)
}

func TestRemoveUnderlineBroadcastsRemoval(t *testing.T) {
	s, mock, reader := newTestService(t)
	mock.ExpectQuery("DELETE FROM underlines").
		WithArgs("u-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "paragraph_id"}).AddRow("doc-1", 1))

	require.NoError(t, s.DeleteUnderline(userCtx("user-1"), "u-1"))

	msg := receive(t, reader)
	assert.Equal(t, socket.UnderlineDeletedType, msg.Type)
	assert.JSONEq(t, `{"id":"u-1","paragraphId":1}`, string(msg.Payload))
}

func TestEditIdeaBroadcastsUpdate(t *testing.T) {
	s, mock, reader := newTestService(t)
	now := time.Now().UTC()
	mock.ExpectQuery("UPDATE ideas SET quote").
		WithArgs("q", "better note", "idea-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "paragraph_id", "created_at", "updated_at"}).AddRow("doc-1", 1, now, now))

	require.NoError(t, s.UpdateIdea(userCtx("user-1"), "idea-1", "q", "better note"))

	msg := receive(t, reader)
	assert.Equal(t, socket.IdeaUpdatedType, msg.Type)
	var idea model.Idea
	require.NoError(t, json.Unmarshal(msg.Payload, &idea))
	assert.Equal(t, "better note", idea.Note)
}

func TestFetchConvertsRows(t *testing.T) {
	s, mock, _ := newTestService(t)
	now := time.Date(2024, 8, 16, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM underlines WHERE document_id").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "paragraph_id", "text", "start_offset", "end_offset", "created_at"}).
			AddRow("u-1", "doc-1", 1, "sun", 4, 7, now))
	mock.ExpectQuery("FROM ideas WHERE document_id").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "paragraph_id", "quote", "note", "created_at", "updated_at"}).
			AddRow("idea-1", "doc-1", 1, "sun", "warm", now, now))

	underlines, err := s.FetchUnderlines(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []model.Underline{{ID: "u-1", ParagraphID: 1, Text: "sun", StartOffset: 4, EndOffset: 7}}, underlines)

	ideas, err := s.FetchIdeas(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []model.Idea{{ID: "idea-1", ParagraphID: 1, Quote: "sun", Note: "warm", Timestamp: "2024-08-16T10:00:00Z"}}, ideas)
}
