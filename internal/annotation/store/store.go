// Package store holds the in-memory projection of a document's annotations,
// bucketed by paragraph. It performs no persistence and is not safe for
// concurrent use; each reading session owns one Store.
package store

import (
	"sort"

	"catatbuku/internal/annotation/model"
	"catatbuku/internal/annotation/textrange"
)

type bucket struct {
	underlines []model.Underline
	ideas      []model.Idea
}

type Store struct {
	paragraphs map[int]*bucket
	// owners maps annotation id to its paragraph so Remove does not scan every bucket.
	owners map[model.Kind]map[string]int
}

func New() *Store {
	return &Store{
		paragraphs: make(map[int]*bucket),
		owners: map[model.Kind]map[string]int{
			model.KindUnderline: {},
			model.KindIdea:      {},
		},
	}
}

func (s *Store) bucket(paragraphID int) *bucket {
	b, ok := s.paragraphs[paragraphID]
	if !ok {
		b = &bucket{}
		s.paragraphs[paragraphID] = b
	}
	return b
}

func (s *Store) AddUnderline(u model.Underline) {
	b := s.bucket(u.ParagraphID)
	b.underlines = append(b.underlines, u)
	s.owners[model.KindUnderline][u.ID] = u.ParagraphID
}

func (s *Store) AddIdea(i model.Idea) {
	b := s.bucket(i.ParagraphID)
	b.ideas = append(b.ideas, i)
	s.owners[model.KindIdea][i.ID] = i.ParagraphID
}

// Has reports whether an annotation of kind with id is stored.
func (s *Store) Has(kind model.Kind, id string) bool {
	_, ok := s.owners[kind][id]
	return ok
}

// Remove deletes the annotation and returns the paragraph it belonged to.
// Removing an unknown id is a no-op.
func (s *Store) Remove(kind model.Kind, id string) (int, bool) {
	paragraphID, ok := s.owners[kind][id]
	if !ok {
		return 0, false
	}
	delete(s.owners[kind], id)

	b := s.paragraphs[paragraphID]
	switch kind {
	case model.KindUnderline:
		for i, u := range b.underlines {
			if u.ID == id {
				b.underlines = append(b.underlines[:i], b.underlines[i+1:]...)
				break
			}
		}
	case model.KindIdea:
		for i, idea := range b.ideas {
			if idea.ID == id {
				b.ideas = append(b.ideas[:i], b.ideas[i+1:]...)
				break
			}
		}
	}
	return paragraphID, true
}

// ReplaceUnderline swaps the underline stored as oldID for u, keeping its
// position in insertion order.
func (s *Store) ReplaceUnderline(oldID string, u model.Underline) bool {
	paragraphID, ok := s.owners[model.KindUnderline][oldID]
	if !ok || paragraphID != u.ParagraphID {
		return false
	}
	b := s.paragraphs[paragraphID]
	for i := range b.underlines {
		if b.underlines[i].ID == oldID {
			b.underlines[i] = u
			delete(s.owners[model.KindUnderline], oldID)
			s.owners[model.KindUnderline][u.ID] = paragraphID
			return true
		}
	}
	return false
}

// UpdateIdea rewrites the quote and note of a stored idea.
func (s *Store) UpdateIdea(id, quote, note string) (model.Idea, bool) {
	paragraphID, ok := s.owners[model.KindIdea][id]
	if !ok {
		return model.Idea{}, false
	}
	b := s.paragraphs[paragraphID]
	for i := range b.ideas {
		if b.ideas[i].ID == id {
			b.ideas[i].Quote = quote
			b.ideas[i].Note = note
			return b.ideas[i], true
		}
	}
	return model.Idea{}, false
}

// Underline looks up an underline by id.
func (s *Store) Underline(id string) (model.Underline, bool) {
	paragraphID, ok := s.owners[model.KindUnderline][id]
	if !ok {
		return model.Underline{}, false
	}
	for _, u := range s.paragraphs[paragraphID].underlines {
		if u.ID == id {
			return u, true
		}
	}
	return model.Underline{}, false
}

// Underlines returns the paragraph's underlines in insertion order.
func (s *Store) Underlines(paragraphID int) []model.Underline {
	b, ok := s.paragraphs[paragraphID]
	if !ok {
		return nil
	}
	return append([]model.Underline(nil), b.underlines...)
}

// Ideas returns the paragraph's ideas in insertion order.
func (s *Store) Ideas(paragraphID int) []model.Idea {
	b, ok := s.paragraphs[paragraphID]
	if !ok {
		return nil
	}
	return append([]model.Idea(nil), b.ideas...)
}

// AllIdeas lists every idea ordered by paragraph, then insertion.
func (s *Store) AllIdeas() []model.Idea {
	ids := make([]int, 0, len(s.paragraphs))
	for id := range s.paragraphs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var out []model.Idea
	for _, id := range ids {
		out = append(out, s.paragraphs[id].ideas...)
	}
	return out
}

// Ranges returns the ranges of the paragraph's underlines.
func (s *Store) Ranges(paragraphID int) []textrange.Range {
	b, ok := s.paragraphs[paragraphID]
	if !ok {
		return nil
	}
	out := make([]textrange.Range, 0, len(b.underlines))
	for _, u := range b.underlines {
		out = append(out, textrange.Range{Start: u.StartOffset, End: u.EndOffset})
	}
	return out
}

// OverlapsExisting reports whether [start, end) intersects a stored underline.
func (s *Store) OverlapsExisting(paragraphID, start, end int) bool {
	return textrange.Range{Start: start, End: end}.OverlapsAny(s.Ranges(paragraphID))
}
