package text

import (
	"testing"

	"texpilot/assert"
	"texpilot/types"
)

const testDoc = "\\section{Intro}\nSome text here.\nTable 1\nMore text.\n"

func TestResolveAnchorHintWins(t *testing.T) {
	sel := &types.Selection{Text: "Some", From: 16, To: 20}

	a := ResolveAnchor(ResolveInput{
		Doc:           testDoc,
		HintFrom:      0,
		HintTo:        15,
		Selection:     sel,
		CursorOffset:  5,
		DefaultAnchor: types.NoPosition,
	})

	assert.Equal(t, 0, a.From, "hint from")
	assert.Equal(t, 15, a.To, "hint to")
	assert.Equal(t, "\\section{Intro}", a.OriginalText, "original text from live doc")
}

func TestResolveAnchorOutOfBoundsHintIgnored(t *testing.T) {
	sel := &types.Selection{Text: "Some", From: 16, To: 20}

	a := ResolveAnchor(ResolveInput{
		Doc:           testDoc,
		HintFrom:      10,
		HintTo:        9999,
		Selection:     sel,
		CursorOffset:  types.NoPosition,
		DefaultAnchor: types.NoPosition,
	})

	assert.Equal(t, 16, a.From, "falls back to selection")
	assert.Equal(t, 20, a.To, "selection to")
	assert.Equal(t, "Some", a.OriginalText, "selection text")
}

func TestResolveAnchorSelectionBeforeCursor(t *testing.T) {
	sel := &types.Selection{Text: "Table 1", From: 32, To: 39}

	a := ResolveAnchor(ResolveInput{
		Doc:           testDoc,
		HintFrom:      types.NoPosition,
		HintTo:        types.NoPosition,
		Selection:     sel,
		CursorOffset:  3,
		DefaultAnchor: types.NoPosition,
	})

	assert.Equal(t, 32, a.From, "selection from")
	assert.Equal(t, "Table 1", a.OriginalText, "captured at resolution time")
}

func TestResolveAnchorCursor(t *testing.T) {
	a := ResolveAnchor(ResolveInput{
		Doc:           testDoc,
		HintFrom:      types.NoPosition,
		HintTo:        types.NoPosition,
		Selection:     nil,
		CursorOffset:  7,
		DefaultAnchor: types.NoPosition,
	})

	assert.Equal(t, 7, a.From, "cursor from")
	assert.Equal(t, 7, a.To, "cursor to")
	assert.Equal(t, "", a.OriginalText, "empty range")
}

func TestResolveAnchorDefaultThenZero(t *testing.T) {
	a := ResolveAnchor(ResolveInput{
		Doc:           testDoc,
		HintFrom:      types.NoPosition,
		HintTo:        types.NoPosition,
		Selection:     nil,
		CursorOffset:  types.NoPosition,
		DefaultAnchor: len(testDoc),
	})
	assert.Equal(t, len(testDoc), a.From, "default anchor used")

	a = ResolveAnchor(ResolveInput{
		Doc:           testDoc,
		HintFrom:      types.NoPosition,
		HintTo:        types.NoPosition,
		Selection:     nil,
		CursorOffset:  types.NoPosition,
		DefaultAnchor: types.NoPosition,
	})
	assert.Equal(t, 0, a.From, "offset zero fallback")
}

func TestResolveAnchorClampsCursor(t *testing.T) {
	a := ResolveAnchor(ResolveInput{
		Doc:           "short",
		HintFrom:      types.NoPosition,
		HintTo:        types.NoPosition,
		CursorOffset:  9999,
		DefaultAnchor: types.NoPosition,
	})
	assert.Equal(t, 5, a.From, "clamped to doc length")
}

func TestStale(t *testing.T) {
	a := types.Anchor{From: 32, To: 39, OriginalText: "Table 1"}

	assert.False(t, Stale(testDoc, a), "fresh anchor")

	edited := testDoc[:32] + "Figure 2" + testDoc[39:]
	assert.True(t, Stale(edited, a), "text changed under anchor")

	assert.True(t, Stale("tiny", a), "range out of bounds")
}

func TestApplyByteRangeEdit(t *testing.T) {
	doc := "hello world"

	assert.Equal(t, "hello there world", ApplyByteRangeEdit(doc, 6, 6, "there "), "insert")
	assert.Equal(t, "hello", ApplyByteRangeEdit(doc, 5, 11, ""), "delete")
	assert.Equal(t, "hello moon", ApplyByteRangeEdit(doc, 6, 11, "moon"), "replace")
	assert.Equal(t, "Xhello world", ApplyByteRangeEdit(doc, -5, 0, "X"), "negative from clamped")
	assert.Equal(t, "hello worldX", ApplyByteRangeEdit(doc, 11, 99, "X"), "to clamped")
}

func TestByteOffsetLineColRoundTrip(t *testing.T) {
	doc := "abc\ndefg\n\nhi"

	tests := []struct {
		offset int
		row    int
		col    int
	}{
		{0, 1, 0},
		{3, 1, 3},
		{4, 2, 0},
		{7, 2, 3},
		{9, 3, 0},
		{10, 4, 0},
		{12, 4, 2},
	}

	for _, tt := range tests {
		row, col := ByteOffsetToLineCol(doc, tt.offset)
		assert.Equal(t, tt.row, row, "row")
		assert.Equal(t, tt.col, col, "col")

		back := LineColToByteOffset(doc, tt.row, tt.col)
		assert.Equal(t, tt.offset, back, "round trip offset")
	}
}

func TestDiffStats(t *testing.T) {
	additions, deletions := DiffStats("hello world", "hello brave world")
	assert.Equal(t, 6, additions, "additions")
	assert.Equal(t, 0, deletions, "deletions")

	additions, deletions = DiffStats("hello world", "hello")
	assert.Equal(t, 0, additions, "additions after delete")
	assert.Equal(t, 6, deletions, "deleted chars")

	additions, deletions = DiffStats("same", "same")
	assert.Equal(t, 0, additions, "no change additions")
	assert.Equal(t, 0, deletions, "no change deletions")
}
