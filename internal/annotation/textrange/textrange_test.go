package textrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeOverlaps(t *testing.T) {
	a := Range{Start: 0, End: 2}
	assert.True(t, a.Overlaps(Range{Start: 1, End: 3}))
	assert.True(t, a.Overlaps(Range{Start: 0, End: 2}))
	assert.False(t, a.Overlaps(Range{Start: 2, End: 4}), "touching ranges do not overlap")
	assert.False(t, Range{Start: 3, End: 5}.Overlaps(a))
	assert.True(t, Range{Start: 3, End: 5}.OverlapsAny([]Range{a, {Start: 4, End: 9}}))
	assert.False(t, Range{Start: 3, End: 5}.OverlapsAny(nil))
}

func TestRangeWithin(t *testing.T) {
	assert.True(t, Range{Start: 0, End: 5}.Within(5))
	assert.False(t, Range{Start: 0, End: 6}.Within(5))
	assert.False(t, Range{Start: 3, End: 3}.Within(5))
	assert.False(t, Range{Start: -1, End: 2}.Within(5))
}

func TestTextCountsUTF16Units(t *testing.T) {
	s := "a😀b"
	txt := New(s)
	assert.Equal(t, 4, txt.Len(), "the emoji is a surrogate pair")
	assert.Equal(t, 4, Len(s))
	assert.Equal(t, "b", txt.Slice(3, 4))
	assert.Equal(t, "😀", txt.Slice(1, 3))
	assert.Equal(t, 3, txt.Index(New("b"), 0))
}

func TestTextSliceClamps(t *testing.T) {
	txt := New("hello")
	assert.Equal(t, "hello", txt.Slice(-3, 99))
	assert.Equal(t, "", txt.Slice(4, 2))
}

func TestTextIndexAll(t *testing.T) {
	txt := New("ab ab ab")
	assert.Equal(t, []int{0, 3, 6}, txt.IndexAll(New("ab")))
	assert.Equal(t, []int{0, 1, 2}, New("aaaa").IndexAll(New("aa")))
	assert.Nil(t, txt.IndexAll(New("zz")))
	assert.Nil(t, txt.IndexAll(nil))
	assert.Equal(t, -1, txt.Index(New("ab"), 7))
}

func TestTextHasAt(t *testing.T) {
	txt := New("ab ab ab")
	assert.True(t, txt.HasAt(3, New("ab")))
	assert.False(t, txt.HasAt(1, New("ab")))
	assert.False(t, txt.HasAt(7, New("ab")))
	assert.False(t, txt.HasAt(-1, New("ab")))
}
