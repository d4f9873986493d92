package socket

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"catatbuku/internal/annotation/controller"
	"catatbuku/internal/document/model"
	"catatbuku/middleware"
	"catatbuku/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows the reader frontend to connect from its dev server
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one reading session: a WebSocket connection plus the controller
// that handles its gestures. Only the session loop touches the controller.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	DocID     string
	UserID    string
	SessionID string
	Send      chan []byte
	// Inbox receives annotation changes from other sessions.
	Inbox chan WSMessage

	gestures   chan WSMessage
	document   *model.Document
	controller *controller.Controller
	cancel     context.CancelFunc
	done       chan struct{}
}

func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	docID := r.URL.Query().Get("docId")
	if docID == "" {
		logger.Sugar.Error("Missing docId")
		http.Error(w, "docId is required", http.StatusBadRequest)
		return
	}

	doc, err := hub.Document(docID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Sugar.Warnf("Connection rejected: Document %s not found", docID)
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	} else if err != nil {
		logger.Sugar.Errorf("Failed to load document %s: %v", docID, err)
		http.Error(w, "Failed to load document", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	sessionID := uuid.NewString()
	// The request context ends when this handler returns, so the session gets its own.
	ctx, cancel := context.WithCancel(context.Background())
	ctx = WithSession(middleware.WithUserID(ctx, userID), sessionID)

	client := &Client{
		Hub:        hub,
		Conn:       conn,
		DocID:      docID,
		UserID:     userID,
		SessionID:  sessionID,
		Send:       make(chan []byte, 256),
		Inbox:      make(chan WSMessage, 64),
		gestures:   make(chan WSMessage, 16),
		document:   doc,
		controller: hub.newController(doc),
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	client.Hub.Register <- client

	go client.writePump()
	go client.run(ctx)
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.cancel()
		<-c.done
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		// Set server-authoritative fields to prevent spoofing.
		msg.DocID = c.DocID
		msg.UserID = c.UserID
		msg.SessionID = c.SessionID

		if !isGesture(msg.Type) {
			logger.Sugar.Warnf("User %s sent unsupported message type %q on doc %s", c.UserID, msg.Type, c.DocID)
			continue
		}

		select {
		case c.gestures <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second) // Send ping every 30s
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		}
	}
}

func isGesture(msgType string) bool {
	switch msgType {
	case SelectType, ClickUnderlineType, ConfirmType, DeclineType, PointerDownType,
		OpenIdeaFormType, SubmitIdeaType, CancelIdeaType, UpdateIdeaType, DeleteIdeaType, DeleteUnderlineType:
		return true
	}
	return false
}
