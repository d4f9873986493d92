// Package compositor merges a paragraph's underlines and ideas into the
// ordered run of segments the client renders.
package compositor

import (
	"sort"

	"catatbuku/internal/annotation/model"
	"catatbuku/internal/annotation/textrange"
)

// Segment is one rendered run of a paragraph. Offsets are UTF-16 code units.
// Highlight segments may overlap the previous highlight; plain segments never
// overlap anything.
type Segment struct {
	Start     int              `json:"start"`
	End       int              `json:"end"`
	Kind      model.Kind       `json:"kind"`
	Text      string           `json:"text"`
	Underline *model.Underline `json:"underline,omitempty"`
	Idea      *model.Idea      `json:"idea,omitempty"`
}

type candidate struct {
	textrange.Range
	kind      model.Kind
	underline *model.Underline
	idea      *model.Idea
}

// Compose returns the segments of paragraph. It does not modify its inputs and
// returns the same output for the same arguments.
//
// Underlines use their stored offsets; ideas are placed at the first
// occurrence of their quote and skipped when the quote no longer occurs.
func Compose(paragraph model.Paragraph, underlines []model.Underline, ideas []model.Idea) []Segment {
	text := textrange.New(paragraph.Text)

	candidates := make([]candidate, 0, len(underlines)+len(ideas))
	for i := range underlines {
		u := underlines[i]
		r := textrange.Range{Start: u.StartOffset, End: u.EndOffset}
		if !r.Within(text.Len()) {
			continue
		}
		candidates = append(candidates, candidate{Range: r, kind: model.KindUnderline, underline: &u})
	}
	for i := range ideas {
		idea := ideas[i]
		quote := textrange.New(idea.Quote)
		if len(quote) == 0 {
			continue
		}
		start := text.Index(quote, 0)
		if start == -1 {
			continue
		}
		r := textrange.Range{Start: start, End: start + len(quote)}
		candidates = append(candidates, candidate{Range: r, kind: model.KindIdea, idea: &idea})
	}

	if len(candidates) == 0 {
		return []Segment{plain(text, 0, text.Len())}
	}

	// Stable: equal starts keep underlines ahead of ideas, each in input order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start < candidates[j].Start
	})

	segments := make([]Segment, 0, 2*len(candidates)+1)
	lastIndex := 0
	for _, c := range candidates {
		if c.Start > lastIndex {
			segments = append(segments, plain(text, lastIndex, c.Start))
		}
		segments = append(segments, Segment{
			Start:     c.Start,
			End:       c.End,
			Kind:      c.kind,
			Text:      text.Slice(c.Start, c.End),
			Underline: c.underline,
			Idea:      c.idea,
		})
		if c.End > lastIndex {
			lastIndex = c.End
		}
	}
	if lastIndex < text.Len() {
		segments = append(segments, plain(text, lastIndex, text.Len()))
	}
	return segments
}

func plain(text textrange.Text, start, end int) Segment {
	return Segment{Start: start, End: end, Kind: model.KindText, Text: text.Slice(start, end)}
}
