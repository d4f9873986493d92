package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"catatbuku/internal/annotation/controller"
	"catatbuku/internal/document/model"
	"catatbuku/pkg/logger"
)

const (
	// Gestures sent by the reader's browser.
	SelectType          = "SELECT"           // A text selection was finished
	ClickUnderlineType  = "CLICK_UNDERLINE"  // An existing underline was clicked
	ConfirmType         = "CONFIRM"          // The open prompt was accepted
	DeclineType         = "DECLINE"          // The open prompt was rejected
	PointerDownType     = "POINTER_DOWN"     // Pointer pressed while a prompt is open
	OpenIdeaFormType    = "OPEN_IDEA_FORM"   // "Add idea" on a whole paragraph
	SubmitIdeaType      = "SUBMIT_IDEA"      // Idea form submitted
	CancelIdeaType      = "CANCEL_IDEA"      // Idea form closed
	UpdateIdeaType      = "UPDATE_IDEA"      // Idea edited from the sidebar
	DeleteIdeaType      = "DELETE_IDEA"      // Idea removed from the sidebar
	DeleteUnderlineType = "DELETE_UNDERLINE" // Underline removed

	// Sent by the server to one session.
	DocumentType       = "DOCUMENT"        // Document metadata and paragraphs
	SegmentsType       = "SEGMENTS"        // Rendered segments of one paragraph
	IdeasType          = "IDEAS"           // Every idea, for the sidebar
	PromptType         = "PROMPT"          // Show a confirmation prompt
	PromptClosedType   = "PROMPT_CLOSED"   // Hide the prompt
	IdeaFormType       = "IDEA_FORM"       // Show the pre-filled idea form
	PresenceUpdateType = "PRESENCE_UPDATE" // A user joined or left

	// Fanned out by the hub to the other sessions of a document.
	UnderlineAddedType   = "UNDERLINE_ADDED"
	UnderlineDeletedType = "UNDERLINE_DELETED"
	IdeaAddedType        = "IDEA_ADDED"
	IdeaUpdatedType      = "IDEA_UPDATED"
	IdeaDeletedType      = "IDEA_DELETED"
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id"`
	UserID  string          `json:"user_id"`
	Payload json.RawMessage `json:"payload"`
	// SessionID names the session the change came from; it is skipped
	// during fan-out.
	SessionID string `json:"-"`
}

type UserStatus struct {
	UserID   string    `json:"user_id"`
	LastSeen time.Time `json:"last_seen"`
}

// DocumentSource loads a document with its paragraphs.
type DocumentSource interface {
	GetDocument(docID string) (*model.Document, error)
}

type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	Documents    DocumentSource
	Persistence  controller.Persistence
	DismissDelay time.Duration

	// Documents open in at least one session.
	DocumentCache map[string]*model.Document
	mu            sync.Mutex
	Presence      map[string]map[string]UserStatus // docID -> userID -> status
}

func NewHub(docs DocumentSource) *Hub {
	return &Hub{
		Rooms:         make(map[string]map[*Client]bool),
		Broadcast:     make(chan WSMessage),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		Documents:     docs,
		DismissDelay:  controller.DefaultDismissDelay,
		DocumentCache: make(map[string]*model.Document),
		Presence:      make(map[string]map[string]UserStatus),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.DocID] == nil {
				h.Rooms[client.DocID] = make(map[*Client]bool)
				h.Presence[client.DocID] = make(map[string]UserStatus)
			}
			if _, ok := h.DocumentCache[client.DocID]; !ok {
				h.DocumentCache[client.DocID] = client.document
			}
			h.Rooms[client.DocID][client] = true
			h.Presence[client.DocID][client.UserID] = UserStatus{UserID: client.UserID, LastSeen: time.Now()}
			h.mu.Unlock()

			h.broadcastPresenceUpdate(client.DocID)

		case client := <-h.Unregister:
			h.mu.Lock()
			docID := client.DocID
			if _, ok := h.Rooms[docID][client]; ok {
				delete(h.Rooms[docID], client)
				if !h.hasUser(docID, client.UserID) {
					delete(h.Presence[docID], client.UserID)
				}

				if len(h.Rooms[docID]) == 0 {
					delete(h.Rooms, docID)
					delete(h.Presence, docID)
					delete(h.DocumentCache, docID)
					logger.Sugar.Infof("Closed and cleaned up empty room: %s", docID)
				}
			}
			// Unregister is sent once per client, after its session loop has stopped.
			close(client.Send)
			_, roomOpen := h.Rooms[docID]
			h.mu.Unlock()

			if roomOpen {
				h.broadcastPresenceUpdate(docID)
			}

		case msg := <-h.Broadcast:
			h.mu.Lock()
			recipients := make([]*Client, 0, len(h.Rooms[msg.DocID]))
			for client := range h.Rooms[msg.DocID] {
				if msg.SessionID == "" || client.SessionID != msg.SessionID {
					recipients = append(recipients, client)
				}
			}
			h.mu.Unlock()

			for _, client := range recipients {
				select {
				case client.Inbox <- msg:
				default:
					logger.Sugar.Warnf("Session %s of user %s is lagging, dropped %s", client.SessionID, client.UserID, msg.Type)
				}
			}
		}
	}
}

// hasUser reports whether userID still has a session in the room. Callers hold h.mu.
func (h *Hub) hasUser(docID, userID string) bool {
	for c := range h.Rooms[docID] {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// Document returns the document for docID, from memory when a session already
// has it open.
func (h *Hub) Document(docID string) (*model.Document, error) {
	h.mu.Lock()
	doc, ok := h.DocumentCache[docID]
	h.mu.Unlock()
	if ok {
		return doc, nil
	}
	return h.Documents.GetDocument(docID)
}

// RemoveDocument forcefully removes a document from memory and disconnects clients.
// This is called when a document is deleted via the API.
func (h *Hub) RemoveDocument(docID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.DocumentCache, docID)
	delete(h.Presence, docID)

	if clients, ok := h.Rooms[docID]; ok {
		for client := range clients {
			client.Conn.Close() // readPump exits and unregisters the client
		}
		delete(h.Rooms, docID)
	}
}

func (h *Hub) newController(doc *model.Document) *controller.Controller {
	return controller.New(doc.ID, doc.Content, h.Persistence, controller.WithDismissDelay(h.DismissDelay))
}

func (h *Hub) broadcastPresenceUpdate(docID string) {
	var userStatuses []UserStatus
	var clientsToSend []*Client

	h.mu.Lock()
	if _, ok := h.Presence[docID]; ok {
		userStatuses = make([]UserStatus, 0, len(h.Presence[docID]))
		for _, status := range h.Presence[docID] {
			userStatuses = append(userStatuses, status)
		}

		clientsToSend = make([]*Client, 0, len(h.Rooms[docID]))
		for client := range h.Rooms[docID] {
			clientsToSend = append(clientsToSend, client)
		}
	}
	h.mu.Unlock()

	if len(clientsToSend) == 0 {
		return
	}

	payload, err := json.Marshal(userStatuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	broadcastPayload, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, DocID: docID, Payload: payload})

	for _, client := range clientsToSend {
		select {
		case client.Send <- broadcastPayload:
		default:
			logger.Sugar.Warnf("Client %s's send buffer was full during presence update.", client.UserID)
		}
	}
}

type sessionKey struct{}

// WithSession returns a copy of ctx naming the session that performs the
// work, so the hub can skip that session when announcing the result.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
