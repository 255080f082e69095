package text

import (
	"fmt"

	"texpilot/types"
)

// PreviewState tracks the lifecycle of the active preview for a document.
type PreviewState int

const (
	PreviewNone PreviewState = iota
	Previewing
	PreviewAccepted
	PreviewRejected
)

// String returns a human-readable name for the state
func (s PreviewState) String() string {
	switch s {
	case PreviewNone:
		return "None"
	case Previewing:
		return "Previewing"
	case PreviewAccepted:
		return "Accepted"
	case PreviewRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Preview is one pending segment set plus the suggestion it renders.
type Preview struct {
	Segments   []types.PreviewSegment
	Suggestion *types.ParsedSuggestion
}

// Previewer enforces the per-document preview state machine:
// None -> Previewing -> {Accepted, Rejected} -> None. At most one segment set
// is active; building a new preview implicitly discards any unaccepted one.
type Previewer struct {
	state  PreviewState
	active *Preview
}

// NewPreviewer returns a previewer in the None state.
func NewPreviewer() *Previewer {
	return &Previewer{state: PreviewNone}
}

// State returns the current preview state.
func (p *Previewer) State() PreviewState {
	return p.state
}

// Active returns the pending preview, or nil outside Previewing.
func (p *Previewer) Active() *Preview {
	if p.state != Previewing {
		return nil
	}
	return p.active
}

// Begin synthesizes segments for a suggestion and makes them the active
// preview, discarding (not merging with) any prior unaccepted preview.
func (p *Previewer) Begin(sug *types.ParsedSuggestion) *Preview {
	preview := &Preview{
		Segments:   BuildSegments(sug),
		Suggestion: sug,
	}
	p.active = preview
	p.state = Previewing
	return preview
}

// Accept transitions the active preview to Accepted and returns it. The
// caller performs snapshot-then-mutate; the previewer only guards ordering.
func (p *Previewer) Accept() (*Preview, error) {
	if p.state != Previewing || p.active == nil {
		return nil, fmt.Errorf("no active preview to accept (state=%s)", p.state)
	}
	preview := p.active
	p.state = PreviewAccepted
	p.active = nil
	return preview, nil
}

// Reject discards the active segment set with no document mutation. The
// terminal state is observable until the next Begin resets the machine.
func (p *Previewer) Reject() *Preview {
	preview := p.active
	p.state = PreviewRejected
	p.active = nil
	return preview
}

// BuildSegments converts a suggestion into overlay segments:
//
//   - add: a single insertion segment at the anchor start, anchor text unused
//   - delete: a single deletion segment covering the anchor range
//   - replace: a deletion over the anchor range followed by an insertion at
//     the end of that range, so offsets stay monotonic for renderers that
//     paint segments left-to-right
func BuildSegments(sug *types.ParsedSuggestion) []types.PreviewSegment {
	a := sug.Anchor
	switch sug.Action {
	case types.ActionAdd:
		return []types.PreviewSegment{{
			ID:      types.NewID(),
			Kind:    types.SegmentAdd,
			From:    a.From,
			To:      a.From,
			Content: sug.Fragment,
		}}

	case types.ActionDelete:
		return []types.PreviewSegment{{
			ID:      types.NewID(),
			Kind:    types.SegmentDelete,
			From:    a.From,
			To:      a.To,
			Content: a.OriginalText,
		}}

	case types.ActionReplace:
		var segments []types.PreviewSegment
		if a.OriginalText != "" {
			segments = append(segments, types.PreviewSegment{
				ID:              types.NewID(),
				Kind:            types.SegmentDelete,
				From:            a.From,
				To:              a.To,
				Content:         a.OriginalText,
				OriginalContent: a.OriginalText,
			})
		}
		segments = append(segments, types.PreviewSegment{
			ID:      types.NewID(),
			Kind:    types.SegmentAdd,
			From:    a.To,
			To:      a.To,
			Content: sug.Fragment,
		})
		return segments
	}
	return nil
}

// ApplySuggestion produces the document content after a suggestion is
// committed. The anchor must have been validated against doc by the caller.
func ApplySuggestion(doc string, sug *types.ParsedSuggestion) string {
	a := sug.Anchor
	switch sug.Action {
	case types.ActionAdd:
		return ApplyByteRangeEdit(doc, a.From, a.From, sug.Fragment)
	case types.ActionDelete:
		return ApplyByteRangeEdit(doc, a.From, a.To, "")
	case types.ActionReplace:
		return ApplyByteRangeEdit(doc, a.From, a.To, sug.Fragment)
	}
	return doc
}
