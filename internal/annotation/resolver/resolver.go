// Package resolver turns a raw text selection into paragraph-relative
// offsets. It is the only producer of underline offsets.
package resolver

import (
	"strings"
	"unicode"

	"catatbuku/internal/annotation/textrange"

	"golang.org/x/text/unicode/norm"
)

// Resolve finds the range of selectedText inside paragraphText.
//
// rawStart and rawEnd are the offsets reported by the client for the
// untrimmed selection. They are trusted when the text at those offsets
// matches; otherwise every occurrence is considered and the first one that
// does not overlap existing wins, falling back to the first occurrence.
// The boolean is false when the selection does not occur in the paragraph.
func Resolve(paragraphText, selectedText string, rawStart, rawEnd int, existing []textrange.Range) (textrange.Range, bool) {
	sel := strings.TrimSpace(selectedText)
	if sel == "" {
		return textrange.Range{}, false
	}
	text := textrange.New(paragraphText)
	want := textrange.New(sel)

	lead := textrange.Len(strings.TrimRightFunc(selectedText, unicode.IsSpace)) - len(want)
	trail := textrange.Len(selectedText) - textrange.Len(strings.TrimRightFunc(selectedText, unicode.IsSpace))
	for _, start := range []int{rawStart, rawStart + lead, rawEnd - trail - len(want)} {
		if text.HasAt(start, want) {
			return textrange.Range{Start: start, End: start + len(want)}, true
		}
	}

	if r, ok := search(text, want, existing); ok {
		return r, true
	}

	// Selections copied out of the DOM can be decomposed while stored text is NFC.
	if nfc := norm.NFC.String(sel); nfc != sel {
		return search(text, textrange.New(nfc), existing)
	}
	return textrange.Range{}, false
}

func search(text, want textrange.Text, existing []textrange.Range) (textrange.Range, bool) {
	starts := text.IndexAll(want)
	if len(starts) == 0 {
		return textrange.Range{}, false
	}
	for _, start := range starts {
		r := textrange.Range{Start: start, End: start + len(want)}
		if !r.OverlapsAny(existing) {
			return r, true
		}
	}
	return textrange.Range{Start: starts[0], End: starts[0] + len(want)}, true
}
