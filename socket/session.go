package socket

import (
	"context"
	"encoding/json"

	"catatbuku/internal/annotation/compositor"
	"catatbuku/internal/annotation/controller"
	annotation "catatbuku/internal/annotation/model"
	"catatbuku/pkg/logger"
)

type clickPayload struct {
	UnderlineID string  `json:"underline_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type pointerPayload struct {
	Target controller.Target `json:"target"`
}

type paragraphPayload struct {
	ParagraphID int `json:"paragraph_id"`
}

type ideaPayload struct {
	ID    string `json:"id"`
	Quote string `json:"quote"`
	Note  string `json:"note"`
}

type idPayload struct {
	ID string `json:"id"`
}

type segmentsPayload struct {
	ParagraphID int                  `json:"paragraph_id"`
	Segments    []compositor.Segment `json:"segments"`
}

type promptClosedPayload struct {
	ClearSelection bool `json:"clear_selection"`
}

// run is the session loop. It owns the controller: gestures from the
// browser, changes from other sessions and background save results are all
// handled here, one at a time.
func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	c.controller.Load(ctx)
	c.emitDocument()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.gestures:
			c.handleGesture(ctx, msg)
		case msg := <-c.Inbox:
			c.handleRemote(msg)
		case s := <-c.controller.Settled():
			if saved, ok := c.controller.Reconcile(ctx, s); ok {
				c.emitSegments(saved.ParagraphID)
			}
		}
	}
}

func (c *Client) handleGesture(ctx context.Context, msg WSMessage) {
	ctl := c.controller
	switch msg.Type {
	case SelectType:
		var sel controller.Selection
		if !c.decode(msg, &sel) {
			return
		}
		if prompt, ok := ctl.Select(sel); ok {
			c.emit(PromptType, prompt)
		}

	case ClickUnderlineType:
		var p clickPayload
		if !c.decode(msg, &p) {
			return
		}
		if prompt, ok := ctl.ClickUnderline(p.UnderlineID, controller.Point{X: p.X, Y: p.Y}); ok {
			c.emit(PromptType, prompt)
		}

	case ConfirmType:
		out := ctl.Confirm(ctx)
		if out.Form == nil && !out.ClearSelection {
			return
		}
		c.emit(PromptClosedType, promptClosedPayload{ClearSelection: out.ClearSelection})
		if out.Underline != nil {
			c.emitSegments(out.Underline.ParagraphID)
		}
		if out.Form != nil {
			c.emit(IdeaFormType, out.Form)
		}

	case DeclineType:
		if ctl.Decline() {
			c.emit(PromptClosedType, promptClosedPayload{ClearSelection: true})
		}

	case PointerDownType:
		var p pointerPayload
		if !c.decode(msg, &p) {
			return
		}
		if ctl.PointerDown(p.Target) {
			c.emit(PromptClosedType, promptClosedPayload{ClearSelection: true})
		}

	case OpenIdeaFormType:
		var p paragraphPayload
		if !c.decode(msg, &p) {
			return
		}
		if form, ok := ctl.OpenIdeaForm(p.ParagraphID); ok {
			c.emit(IdeaFormType, form)
		}

	case SubmitIdeaType:
		var p ideaPayload
		if !c.decode(msg, &p) {
			return
		}
		if idea, ok := ctl.SubmitIdea(ctx, p.Quote, p.Note); ok {
			c.emitSegments(idea.ParagraphID)
			c.emitIdeas()
		}

	case CancelIdeaType:
		ctl.CancelIdea()

	case UpdateIdeaType:
		var p ideaPayload
		if !c.decode(msg, &p) {
			return
		}
		if idea, ok := ctl.UpdateIdea(ctx, p.ID, p.Quote, p.Note); ok {
			c.emitSegments(idea.ParagraphID)
			c.emitIdeas()
		}

	case DeleteIdeaType:
		var p idPayload
		if !c.decode(msg, &p) {
			return
		}
		if paragraphID, ok := ctl.DeleteIdea(ctx, p.ID); ok {
			c.emitSegments(paragraphID)
			c.emitIdeas()
		}

	case DeleteUnderlineType:
		var p idPayload
		if !c.decode(msg, &p) {
			return
		}
		if paragraphID, ok := ctl.DeleteUnderline(ctx, p.ID); ok {
			c.emitSegments(paragraphID)
		}
	}
}

// handleRemote applies a change announced by another session.
func (c *Client) handleRemote(msg WSMessage) {
	ctl := c.controller
	switch msg.Type {
	case UnderlineAddedType:
		var u annotation.Underline
		if !c.decode(msg, &u) {
			return
		}
		if paragraphID, ok := ctl.ApplyUnderline(u); ok {
			c.emitSegments(paragraphID)
		}

	case IdeaAddedType, IdeaUpdatedType:
		var i annotation.Idea
		if !c.decode(msg, &i) {
			return
		}
		if paragraphID, ok := ctl.ApplyIdea(i); ok {
			c.emitSegments(paragraphID)
			c.emitIdeas()
		}

	case UnderlineDeletedType, IdeaDeletedType:
		var r annotation.Removal
		if !c.decode(msg, &r) {
			return
		}
		kind := annotation.KindUnderline
		if msg.Type == IdeaDeletedType {
			kind = annotation.KindIdea
		}
		if paragraphID, ok := ctl.ApplyRemoval(kind, r.ID); ok {
			c.emitSegments(paragraphID)
			if kind == annotation.KindIdea {
				c.emitIdeas()
			}
		}
	}
}

func (c *Client) decode(msg WSMessage, v any) bool {
	if len(msg.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		logger.Sugar.Warnf("Bad %s payload from session %s: %v", msg.Type, c.SessionID, err)
		return false
	}
	return true
}

func (c *Client) emitDocument() {
	c.emit(DocumentType, c.document)
	for _, id := range c.controller.ParagraphIDs() {
		c.emitSegments(id)
	}
	c.emitIdeas()
}

func (c *Client) emitSegments(paragraphID int) {
	segments, ok := c.controller.Compose(paragraphID)
	if !ok {
		return
	}
	c.emit(SegmentsType, segmentsPayload{ParagraphID: paragraphID, Segments: segments})
}

func (c *Client) emitIdeas() {
	c.emit(IdeasType, c.controller.Ideas())
}

func (c *Client) emit(msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", msgType, err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: msgType, DocID: c.DocID, UserID: c.UserID, Payload: data})
	select {
	case c.Send <- msg:
	default:
		logger.Sugar.Warnf("Client %s's send buffer is full, dropped %s", c.UserID, msgType)
	}
}
