// Package text provides document coordinate handling: anchor resolution,
// byte-range edits, and non-destructive diff previews.
package text

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"texpilot/types"
)

// ResolveInput carries everything the resolver may consult, in priority
// order: an explicit backend hint, the active selection, the cursor offset,
// and a caller-supplied default insertion point.
type ResolveInput struct {
	Doc           string
	HintFrom      int // types.NoPosition when absent
	HintTo        int
	Selection     *types.Selection
	CursorOffset  int // types.NoPosition when absent
	DefaultAnchor int // types.NoPosition to fall back to offset 0
}

// ResolveAnchor decides the authoritative edit anchor. OriginalText is
// captured from Doc at resolution time; resolved offsets are clamped to
// [0, len(Doc)].
func ResolveAnchor(in ResolveInput) types.Anchor {
	docLen := len(in.Doc)

	// 1. Explicit backend hint, when in-bounds
	if in.HintFrom != types.NoPosition && in.HintTo != types.NoPosition &&
		in.HintFrom >= 0 && in.HintTo >= in.HintFrom && in.HintTo <= docLen {
		return anchorAt(in.Doc, in.HintFrom, in.HintTo)
	}

	// 2. Active non-empty selection
	if !in.Selection.Empty() {
		from := clamp(in.Selection.From, 0, docLen)
		to := clamp(in.Selection.To, 0, docLen)
		if from > to {
			from, to = to, from
		}
		return anchorAt(in.Doc, from, to)
	}

	// 3. Cursor offset
	if in.CursorOffset != types.NoPosition {
		off := clamp(in.CursorOffset, 0, docLen)
		return anchorAt(in.Doc, off, off)
	}

	// 4. Caller-supplied default insertion anchor
	if in.DefaultAnchor != types.NoPosition {
		off := clamp(in.DefaultAnchor, 0, docLen)
		return anchorAt(in.Doc, off, off)
	}

	// 5. Offset 0
	return anchorAt(in.Doc, 0, 0)
}

// anchorAt builds an anchor with OriginalText read from the live document.
func anchorAt(doc string, from, to int) types.Anchor {
	return types.Anchor{From: from, To: to, OriginalText: doc[from:to]}
}

// Stale reports whether an anchor no longer matches the document: either the
// range fell out of bounds or the text occupying it changed since
// resolution. Stale anchors are rejected, never silently misapplied.
func Stale(doc string, a types.Anchor) bool {
	if a.From < 0 || a.To < a.From || a.To > len(doc) {
		return true
	}
	return doc[a.From:a.To] != a.OriginalText
}

// ApplyByteRangeEdit replaces doc[from:to] with replacement and returns the
// new content. Indices are clamped; from > to collapses to an insertion at to.
func ApplyByteRangeEdit(doc string, from, to int, replacement string) string {
	if from < 0 {
		from = 0
	}
	if to > len(doc) {
		to = len(doc)
	}
	if from > to {
		from = to
	}
	return doc[:from] + replacement + doc[to:]
}

// ByteOffsetToLineCol converts a byte offset to a line/column position.
// Returns (row, col) where row is 1-indexed and col is 0-indexed.
func ByteOffsetToLineCol(doc string, offset int) (row, col int) {
	if offset < 0 {
		return 1, 0
	}
	if offset > len(doc) {
		offset = len(doc)
	}

	row = 1
	col = 0
	for i := 0; i < offset; i++ {
		if doc[i] == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return row, col
}

// LineColToByteOffset converts a 1-indexed row and 0-indexed col to a byte
// offset, clamping to the document.
func LineColToByteOffset(doc string, row, col int) int {
	lines := strings.SplitAfter(doc, "\n")
	offset := 0
	for i := 0; i < row-1 && i < len(lines); i++ {
		offset += len(lines[i])
	}
	if row >= 1 && row <= len(lines) {
		line := strings.TrimSuffix(lines[row-1], "\n")
		offset += min(col, len(line))
	}
	return min(offset, len(doc))
}

// DiffStats counts added and deleted characters between two document
// versions, for edit audit records.
func DiffStats(before, after string) (additions, deletions int) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += len(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += len(d.Text)
		}
	}
	return additions, deletions
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
