// Package textrange measures paragraph text in UTF-16 code units, the unit
// browsers use for Selection and Range offsets. Every offset stored or
// exchanged by the annotation packages is expressed in this unit.
package textrange

import "unicode/utf16"

// Range is a half-open interval [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Len() int { return r.End - r.Start }

// Overlaps reports whether r and o share at least one position.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Within reports whether r is a non-empty range inside a text of length n.
func (r Range) Within(n int) bool {
	return r.Start >= 0 && r.Start < r.End && r.End <= n
}

// OverlapsAny reports whether r overlaps any of ranges.
func (r Range) OverlapsAny(ranges []Range) bool {
	for _, o := range ranges {
		if r.Overlaps(o) {
			return true
		}
	}
	return false
}

// Text is a string decoded into UTF-16 code units.
type Text []uint16

func New(s string) Text {
	return Text(utf16.Encode([]rune(s)))
}

// Len returns the length of s in UTF-16 code units.
func Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func (t Text) Len() int { return len(t) }

// Slice returns t[start:end] as a Go string. Out of bounds indexes are clamped.
func (t Text) Slice(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(t) {
		end = len(t)
	}
	if start >= end {
		return ""
	}
	return string(utf16.Decode(t[start:end]))
}

// HasAt reports whether sub occurs in t starting exactly at i.
func (t Text) HasAt(i int, sub Text) bool {
	if i < 0 || i+len(sub) > len(t) {
		return false
	}
	for k := range sub {
		if t[i+k] != sub[k] {
			return false
		}
	}
	return true
}

// Index returns the first index >= from where sub occurs, or -1.
func (t Text) Index(sub Text, from int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(sub) <= len(t); i++ {
		if t.HasAt(i, sub) {
			return i
		}
	}
	return -1
}

// IndexAll returns the start of every occurrence of sub, scanning left to
// right and resuming one unit after each match so overlapping occurrences are
// reported too.
func (t Text) IndexAll(sub Text) []int {
	if len(sub) == 0 {
		return nil
	}
	var out []int
	for i := t.Index(sub, 0); i != -1; i = t.Index(sub, i+1) {
		out = append(out, i)
	}
	return out
}
