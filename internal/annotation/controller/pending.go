package controller

import "catatbuku/internal/annotation/model"

type State int

const (
	Idle State = iota
	AwaitingUnderlineConfirm
	AwaitingIdeaConfirm
	CapturingIdea
)

func (s State) String() string {
	switch s {
	case AwaitingUnderlineConfirm:
		return "awaiting_underline_confirm"
	case AwaitingIdeaConfirm:
		return "awaiting_idea_confirm"
	case CapturingIdea:
		return "capturing_idea"
	default:
		return "idle"
	}
}

// PendingAction is the gesture waiting for the reader: one of AwaitUnderline,
// AwaitIdea or CaptureIdea.
type PendingAction interface {
	state() State
}

// AwaitUnderline holds a selection until the reader confirms underlining it.
type AwaitUnderline struct {
	ParagraphID int
	Text        string
	RawStart    int
	RawEnd      int
}

// AwaitIdea holds a clicked underline until the reader confirms adding an idea.
type AwaitIdea struct {
	Underline model.Underline
}

// CaptureIdea is an open idea form.
type CaptureIdea struct {
	ParagraphID int
	Quote       string
}

func (AwaitUnderline) state() State { return AwaitingUnderlineConfirm }
func (AwaitIdea) state() State      { return AwaitingIdeaConfirm }
func (CaptureIdea) state() State    { return CapturingIdea }

type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Selection is a finished text selection as reported by the client.
type Selection struct {
	ParagraphID int    `json:"paragraph_id"`
	Text        string `json:"text"`
	RawStart    int    `json:"raw_start"`
	RawEnd      int    `json:"raw_end"`
	Rect        Rect   `json:"rect"`
}

type PromptKind string

const (
	PromptUnderline PromptKind = "underline"
	PromptIdea      PromptKind = "idea"
)

type Prompt struct {
	Kind     PromptKind `json:"kind"`
	Question string     `json:"question"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
}

// IdeaForm is the pre-filled idea capture form.
type IdeaForm struct {
	ParagraphID int    `json:"paragraph_id"`
	Quote       string `json:"quote"`
}

// Target is what a pointer-down landed on while a prompt is open.
type Target string

const (
	TargetPrompt  Target = "prompt"
	TargetOutside Target = "outside"
)

// Outcome describes the effect of confirming a prompt.
type Outcome struct {
	Underline      *model.Underline
	Form           *IdeaForm
	ClearSelection bool
}
