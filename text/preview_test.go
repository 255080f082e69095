package text

import (
	"testing"

	"texpilot/assert"
	"texpilot/types"
)

func replaceSuggestion() *types.ParsedSuggestion {
	return &types.ParsedSuggestion{
		Action:   types.ActionReplace,
		Fragment: "\\begin{tabular}{cc}\\end{tabular}",
		Anchor:   types.Anchor{From: 120, To: 128, OriginalText: "Table 1."},
	}
}

func TestBuildSegmentsAdd(t *testing.T) {
	sug := &types.ParsedSuggestion{
		Action:   types.ActionAdd,
		Fragment: "\\cite{smith2020}",
		Anchor:   types.Anchor{From: 50, To: 50},
	}

	segs := BuildSegments(sug)

	assert.Len(t, segs, 1, "one segment")
	assert.Equal(t, types.SegmentAdd, segs[0].Kind, "kind")
	assert.Equal(t, 50, segs[0].From, "pure insertion from")
	assert.Equal(t, 50, segs[0].To, "pure insertion to")
	assert.Equal(t, "\\cite{smith2020}", segs[0].Content, "content")
}

func TestBuildSegmentsDelete(t *testing.T) {
	sug := &types.ParsedSuggestion{
		Action: types.ActionDelete,
		Anchor: types.Anchor{From: 10, To: 20, OriginalText: "old stuff\n"},
	}

	segs := BuildSegments(sug)

	assert.Len(t, segs, 1, "one segment")
	assert.Equal(t, types.SegmentDelete, segs[0].Kind, "kind")
	assert.Equal(t, 10, segs[0].From, "from")
	assert.Equal(t, 20, segs[0].To, "to")
	assert.Equal(t, "old stuff\n", segs[0].Content, "content is original text")
}

func TestBuildSegmentsReplace(t *testing.T) {
	segs := BuildSegments(replaceSuggestion())

	assert.Len(t, segs, 2, "delete then add")
	assert.Equal(t, types.SegmentDelete, segs[0].Kind, "first is delete")
	assert.Equal(t, 120, segs[0].From, "delete from")
	assert.Equal(t, 128, segs[0].To, "delete to")
	assert.Equal(t, "Table 1.", segs[0].Content, "delete shows original")
	assert.Equal(t, types.SegmentAdd, segs[1].Kind, "second is add")
	assert.Equal(t, 128, segs[1].From, "add sits at end of deleted range")
	assert.Equal(t, 128, segs[1].To, "add is zero width")
}

func TestBuildSegmentsReplaceEmptyOriginal(t *testing.T) {
	sug := &types.ParsedSuggestion{
		Action:   types.ActionReplace,
		Fragment: "new",
		Anchor:   types.Anchor{From: 5, To: 5, OriginalText: ""},
	}

	segs := BuildSegments(sug)

	assert.Len(t, segs, 1, "no delete segment when nothing is deleted")
	assert.Equal(t, types.SegmentAdd, segs[0].Kind, "kind")
}

func TestPreviewerLifecycle(t *testing.T) {
	p := NewPreviewer()
	assert.Equal(t, PreviewNone, p.State(), "initial state")
	assert.Nil(t, p.Active(), "no active preview")

	preview := p.Begin(replaceSuggestion())
	assert.Equal(t, Previewing, p.State(), "previewing after begin")
	assert.NotNil(t, p.Active(), "active preview set")
	assert.Len(t, preview.Segments, 2, "segments built")

	accepted, err := p.Accept()
	assert.NoError(t, err, "accept from previewing")
	assert.NotNil(t, accepted, "accepted preview returned")
	assert.Equal(t, PreviewAccepted, p.State(), "accepted state")
	assert.Nil(t, p.Active(), "active cleared")
}

func TestPreviewerAcceptWithoutPreview(t *testing.T) {
	p := NewPreviewer()

	_, err := p.Accept()
	assert.Error(t, err, "accept with nothing pending")
}

func TestPreviewerReject(t *testing.T) {
	p := NewPreviewer()
	p.Begin(replaceSuggestion())

	rejected := p.Reject()
	assert.NotNil(t, rejected, "rejected preview returned")
	assert.Equal(t, PreviewRejected, p.State(), "rejected state")

	_, err := p.Accept()
	assert.Error(t, err, "cannot accept after reject")
}

func TestPreviewerNewSuggestionDiscardsPrior(t *testing.T) {
	p := NewPreviewer()
	first := p.Begin(replaceSuggestion())

	second := p.Begin(&types.ParsedSuggestion{
		Action:   types.ActionAdd,
		Fragment: "x",
		Anchor:   types.Anchor{From: 0, To: 0},
	})

	assert.Equal(t, Previewing, p.State(), "still previewing")
	assert.NotEqual(t, first.Segments[0].ID, second.Segments[0].ID, "prior set replaced")
	assert.Equal(t, second, p.Active(), "newest preview is active")
}

func TestApplySuggestion(t *testing.T) {
	doc := "alpha beta gamma"

	add := &types.ParsedSuggestion{
		Action:   types.ActionAdd,
		Fragment: "X ",
		Anchor:   types.Anchor{From: 6, To: 6},
	}
	assert.Equal(t, "alpha X beta gamma", ApplySuggestion(doc, add), "add")

	del := &types.ParsedSuggestion{
		Action: types.ActionDelete,
		Anchor: types.Anchor{From: 5, To: 10, OriginalText: " beta"},
	}
	assert.Equal(t, "alpha gamma", ApplySuggestion(doc, del), "delete")

	rep := &types.ParsedSuggestion{
		Action:   types.ActionReplace,
		Fragment: "delta",
		Anchor:   types.Anchor{From: 6, To: 10, OriginalText: "beta"},
	}
	assert.Equal(t, "alpha delta gamma", ApplySuggestion(doc, rep), "replace")
}

func TestReplaceThenRestoreRoundTrip(t *testing.T) {
	doc := "intro Table 1 outro"
	sug := &types.ParsedSuggestion{
		Action:   types.ActionReplace,
		Fragment: "\\begin{tabular}\\end{tabular}",
		Anchor:   types.Anchor{From: 6, To: 13, OriginalText: "Table 1"},
	}

	mutated := ApplySuggestion(doc, sug)
	assert.Equal(t, "intro \\begin{tabular}\\end{tabular} outro", mutated, "mutated")

	// Undoing the replacement reproduces the original byte-for-byte.
	reverted := ApplyByteRangeEdit(mutated, sug.Anchor.From, sug.Anchor.From+len(sug.Fragment), sug.Anchor.OriginalText)
	assert.Equal(t, doc, reverted, "round trip")
}
