// Package controller drives the annotation gestures of one reading session:
// selection, confirmation prompts, underline commits and idea capture.
//
// A Controller is not safe for concurrent use. The session loop calls it from
// a single goroutine and feeds background save results back through Reconcile.
package controller

import (
	"context"
	"strings"
	"time"

	"catatbuku/internal/annotation/compositor"
	"catatbuku/internal/annotation/model"
	"catatbuku/internal/annotation/resolver"
	"catatbuku/internal/annotation/store"
	"catatbuku/internal/annotation/textrange"
	"catatbuku/pkg/logger"

	"github.com/google/uuid"
)

const (
	underlineQuestion = "Underline this text?"
	ideaQuestion      = "Add an idea to this underline?"

	// DefaultDismissDelay is how long after a prompt opens before an outside
	// pointer-down may dismiss it, so the click that confirms a prompt is not
	// also taken as a dismissal.
	DefaultDismissDelay = 100 * time.Millisecond
)

type Controller struct {
	docID      string
	paragraphs map[int]model.Paragraph
	order      []int
	store      *store.Store
	persist    Persistence

	pending      PendingAction
	openedAt     time.Time
	dismissDelay time.Duration
	now          func() time.Time

	settled chan Settlement
}

type Option func(*Controller)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithDismissDelay(d time.Duration) Option {
	return func(c *Controller) { c.dismissDelay = d }
}

func New(docID string, paragraphs []model.Paragraph, persist Persistence, opts ...Option) *Controller {
	c := &Controller{
		docID:        docID,
		paragraphs:   make(map[int]model.Paragraph, len(paragraphs)),
		store:        store.New(),
		persist:      persist,
		dismissDelay: DefaultDismissDelay,
		now:          time.Now,
		settled:      make(chan Settlement, 16),
	}
	for _, p := range paragraphs {
		c.paragraphs[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fills the store from the backend. A failed fetch leaves that kind
// empty; it is logged and not returned.
func (c *Controller) Load(ctx context.Context) {
	underlines, err := c.persist.FetchUnderlines(ctx, c.docID)
	if err != nil {
		logger.Sugar.Warnf("Failed to fetch underlines for doc %s, continuing without them: %v", c.docID, err)
	}
	for _, u := range underlines {
		c.ApplyUnderline(u)
	}

	ideas, err := c.persist.FetchIdeas(ctx, c.docID)
	if err != nil {
		logger.Sugar.Warnf("Failed to fetch ideas for doc %s, continuing without them: %v", c.docID, err)
	}
	for _, i := range ideas {
		c.ApplyIdea(i)
	}
}

func (c *Controller) State() State {
	if c.pending == nil {
		return Idle
	}
	return c.pending.state()
}

func (c *Controller) Pending() PendingAction { return c.pending }

// Settled delivers the results of background underline saves.
func (c *Controller) Settled() <-chan Settlement { return c.settled }

func (c *Controller) open(p PendingAction) {
	if c.pending != nil {
		logger.Sugar.Debugf("Doc %s: %s cancelled by new gesture", c.docID, c.pending.state())
	}
	c.pending = p
	c.openedAt = c.now()
	logger.Sugar.Debugf("Doc %s: state -> %s", c.docID, p.state())
}

func (c *Controller) reset() {
	c.pending = nil
}

// Select opens the underline prompt for a finished selection. Empty
// selections and unknown paragraphs are ignored.
func (c *Controller) Select(sel Selection) (Prompt, bool) {
	if strings.TrimSpace(sel.Text) == "" {
		return Prompt{}, false
	}
	if _, ok := c.paragraphs[sel.ParagraphID]; !ok {
		return Prompt{}, false
	}
	c.open(AwaitUnderline{
		ParagraphID: sel.ParagraphID,
		Text:        sel.Text,
		RawStart:    sel.RawStart,
		RawEnd:      sel.RawEnd,
	})
	return Prompt{Kind: PromptUnderline, Question: underlineQuestion, X: sel.Rect.Left, Y: sel.Rect.Top}, true
}

// ClickUnderline opens the idea prompt for an existing underline.
func (c *Controller) ClickUnderline(id string, at Point) (Prompt, bool) {
	u, ok := c.store.Underline(id)
	if !ok {
		return Prompt{}, false
	}
	c.open(AwaitIdea{Underline: u})
	return Prompt{Kind: PromptIdea, Question: ideaQuestion, X: at.X, Y: at.Y}, true
}

// Confirm accepts the open prompt.
//
// For a selection the underline is added to the store immediately and saved
// in the background; the result arrives on Settled. A selection that no
// longer matches the paragraph is dropped without error. For an underline
// click the idea form is opened pre-filled with the underline text.
func (c *Controller) Confirm(ctx context.Context) Outcome {
	switch p := c.pending.(type) {
	case AwaitUnderline:
		c.reset()
		return c.commitUnderline(ctx, p)
	case AwaitIdea:
		form := IdeaForm{ParagraphID: p.Underline.ParagraphID, Quote: p.Underline.Text}
		c.open(CaptureIdea{ParagraphID: form.ParagraphID, Quote: form.Quote})
		return Outcome{Form: &form}
	default:
		return Outcome{}
	}
}

func (c *Controller) commitUnderline(ctx context.Context, p AwaitUnderline) Outcome {
	paragraph := c.paragraphs[p.ParagraphID]
	r, ok := resolver.Resolve(paragraph.Text, p.Text, p.RawStart, p.RawEnd, c.store.Ranges(p.ParagraphID))
	if !ok {
		logger.Sugar.Debugf("Doc %s: selection %q not found in paragraph %d, dropping", c.docID, p.Text, p.ParagraphID)
		return Outcome{ClearSelection: true}
	}

	u := model.Underline{
		ID:          model.LocalIDPrefix + uuid.NewString(),
		ParagraphID: p.ParagraphID,
		Text:        textrange.New(paragraph.Text).Slice(r.Start, r.End),
		StartOffset: r.Start,
		EndOffset:   r.End,
	}
	c.store.AddUnderline(u)
	go c.saveUnderline(ctx, u)
	return Outcome{Underline: &u, ClearSelection: true}
}

func (c *Controller) saveUnderline(ctx context.Context, u model.Underline) {
	saved, err := c.persist.CreateUnderline(ctx, c.docID, u.ParagraphID, u.Text, u.StartOffset, u.EndOffset)
	select {
	case c.settled <- Settlement{LocalID: u.ID, Underline: saved, Err: err}:
	case <-ctx.Done():
	}
}

// Reconcile applies a background save result. On success the local record is
// replaced by the backend's; on failure the local record stays as is.
func (c *Controller) Reconcile(ctx context.Context, s Settlement) (model.Underline, bool) {
	if s.Err != nil || s.Underline == nil {
		logger.Sugar.Warnf("Doc %s: underline %s was not saved, keeping it local only: %v", c.docID, s.LocalID, s.Err)
		return model.Underline{}, false
	}
	saved := *s.Underline
	if !c.store.Has(model.KindUnderline, s.LocalID) {
		// Deleted while the save was in flight.
		if err := c.persist.DeleteUnderline(ctx, saved.ID); err != nil {
			logger.Sugar.Warnf("Doc %s: failed to delete orphaned underline %s: %v", c.docID, saved.ID, err)
		}
		return model.Underline{}, false
	}
	if !c.store.ReplaceUnderline(s.LocalID, saved) {
		logger.Sugar.Warnf("Doc %s: backend returned underline %s for another paragraph, keeping %s", c.docID, saved.ID, s.LocalID)
		return model.Underline{}, false
	}
	return saved, true
}

// Decline discards the open prompt. It reports whether a prompt was open.
func (c *Controller) Decline() bool {
	switch c.pending.(type) {
	case AwaitUnderline, AwaitIdea:
		logger.Sugar.Debugf("Doc %s: %s declined", c.docID, c.pending.state())
		c.reset()
		return true
	default:
		return false
	}
}

// PointerDown handles a pointer-down anywhere on the page while a prompt is
// open. Presses on the prompt itself, or ones arriving before the dismiss
// delay has passed since the prompt opened, are ignored.
func (c *Controller) PointerDown(target Target) bool {
	switch c.pending.(type) {
	case AwaitUnderline, AwaitIdea:
	default:
		return false
	}
	if target == TargetPrompt {
		return false
	}
	if c.now().Sub(c.openedAt) < c.dismissDelay {
		return false
	}
	return c.Decline()
}

// OpenIdeaForm opens the idea form for a whole paragraph, quoting all of it.
func (c *Controller) OpenIdeaForm(paragraphID int) (IdeaForm, bool) {
	p, ok := c.paragraphs[paragraphID]
	if !ok {
		return IdeaForm{}, false
	}
	form := IdeaForm{ParagraphID: p.ID, Quote: p.Text}
	c.open(CaptureIdea{ParagraphID: form.ParagraphID, Quote: form.Quote})
	return form, true
}

func (c *Controller) CancelIdea() bool {
	if _, ok := c.pending.(CaptureIdea); !ok {
		return false
	}
	c.reset()
	return true
}

// SubmitIdea saves the idea from the open form and waits for the backend.
// An empty quote falls back to the form's quote; an empty note keeps the form
// open. When the backend fails the idea is kept locally under a local- id.
// The underline the idea came from is left in place.
func (c *Controller) SubmitIdea(ctx context.Context, quote, note string) (model.Idea, bool) {
	form, ok := c.pending.(CaptureIdea)
	if !ok {
		return model.Idea{}, false
	}
	quote = strings.TrimSpace(quote)
	if quote == "" {
		quote = strings.TrimSpace(form.Quote)
	}
	note = strings.TrimSpace(note)
	if quote == "" || note == "" {
		return model.Idea{}, false
	}

	var idea model.Idea
	saved, err := c.persist.CreateIdea(ctx, c.docID, form.ParagraphID, quote, note)
	if err != nil || saved == nil {
		logger.Sugar.Warnf("Doc %s: idea was not saved, keeping it local only: %v", c.docID, err)
		idea = model.Idea{
			ID:          model.LocalIDPrefix + uuid.NewString(),
			ParagraphID: form.ParagraphID,
			Quote:       quote,
			Note:        note,
			Timestamp:   model.Timestamp(c.now()),
		}
	} else {
		idea = *saved
	}

	c.store.AddIdea(idea)
	c.reset()
	return idea, true
}

// UpdateIdea edits an idea locally, then on the backend.
func (c *Controller) UpdateIdea(ctx context.Context, id, quote, note string) (model.Idea, bool) {
	quote, note = strings.TrimSpace(quote), strings.TrimSpace(note)
	if quote == "" || note == "" {
		return model.Idea{}, false
	}
	idea, ok := c.store.UpdateIdea(id, quote, note)
	if !ok {
		return model.Idea{}, false
	}
	if !model.IsLocal(id) {
		if err := c.persist.UpdateIdea(ctx, id, quote, note); err != nil {
			logger.Sugar.Warnf("Doc %s: failed to update idea %s on the backend: %v", c.docID, id, err)
		}
	}
	return idea, true
}

// DeleteIdea removes an idea locally, then on the backend. It returns the
// paragraph that needs recomposing.
func (c *Controller) DeleteIdea(ctx context.Context, id string) (int, bool) {
	paragraphID, ok := c.store.Remove(model.KindIdea, id)
	if !ok {
		return 0, false
	}
	if !model.IsLocal(id) {
		if err := c.persist.DeleteIdea(ctx, id); err != nil {
			logger.Sugar.Warnf("Doc %s: failed to delete idea %s on the backend: %v", c.docID, id, err)
		}
	}
	return paragraphID, true
}

// DeleteUnderline removes an underline locally, then on the backend.
func (c *Controller) DeleteUnderline(ctx context.Context, id string) (int, bool) {
	paragraphID, ok := c.store.Remove(model.KindUnderline, id)
	if !ok {
		return 0, false
	}
	if !model.IsLocal(id) {
		if err := c.persist.DeleteUnderline(ctx, id); err != nil {
			logger.Sugar.Warnf("Doc %s: failed to delete underline %s on the backend: %v", c.docID, id, err)
		}
	}
	return paragraphID, true
}

// ApplyUnderline records an underline created elsewhere. Known ids and
// unknown paragraphs are ignored.
func (c *Controller) ApplyUnderline(u model.Underline) (int, bool) {
	if _, ok := c.paragraphs[u.ParagraphID]; !ok || c.store.Has(model.KindUnderline, u.ID) {
		return 0, false
	}
	c.store.AddUnderline(u)
	return u.ParagraphID, true
}

// ApplyIdea records an idea created or edited elsewhere.
func (c *Controller) ApplyIdea(i model.Idea) (int, bool) {
	if _, ok := c.paragraphs[i.ParagraphID]; !ok {
		return 0, false
	}
	if c.store.Has(model.KindIdea, i.ID) {
		updated, ok := c.store.UpdateIdea(i.ID, i.Quote, i.Note)
		return updated.ParagraphID, ok
	}
	c.store.AddIdea(i)
	return i.ParagraphID, true
}

// ApplyRemoval forgets an annotation deleted elsewhere.
func (c *Controller) ApplyRemoval(kind model.Kind, id string) (int, bool) {
	return c.store.Remove(kind, id)
}

// Compose renders one paragraph from the current annotations.
func (c *Controller) Compose(paragraphID int) ([]compositor.Segment, bool) {
	p, ok := c.paragraphs[paragraphID]
	if !ok {
		return nil, false
	}
	return compositor.Compose(p, c.store.Underlines(paragraphID), c.store.Ideas(paragraphID)), true
}

// ParagraphIDs lists the document's paragraphs in document order.
func (c *Controller) ParagraphIDs() []int {
	return append([]int(nil), c.order...)
}

// Ideas lists every idea for the sidebar.
func (c *Controller) Ideas() []model.Idea {
	return c.store.AllIdeas()
}
