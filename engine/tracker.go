package engine

import (
	"texpilot/logger"
	"texpilot/types"
)

// The tracker mirrors the editor's selection and cursor. After a document
// mutation the tracked positions predate the new content, so reads are
// refused until the editor sends a fresh selection or cursor event.

func (e *Engine) doTrackSelection(event Event) {
	sel, ok := event.Data.(types.Selection)
	if !ok {
		return
	}
	if sel.From < 0 || sel.To < sel.From || sel.To > len(e.content) {
		logger.Warn("ignoring out-of-bounds selection [%d,%d) doc=%d", sel.From, sel.To, len(e.content))
		return
	}
	e.selection = sel
	e.cursor = sel.To
	e.trackerOK = true
}

func (e *Engine) doClearSelection(event Event) {
	e.selection = types.Selection{From: types.NoPosition, To: types.NoPosition}
	e.cursor = types.NoPosition
	e.trackerOK = true
}

func (e *Engine) doTrackCursor(event Event) {
	offset, ok := event.Data.(int)
	if !ok {
		return
	}
	if offset < 0 || offset > len(e.content) {
		logger.Warn("ignoring out-of-bounds cursor %d doc=%d", offset, len(e.content))
		return
	}
	e.selection = types.Selection{From: types.NoPosition, To: types.NoPosition}
	e.cursor = offset
	e.trackerOK = true
}

func (e *Engine) doSyncDocument(event Event) {
	content, ok := event.Data.(string)
	if !ok {
		return
	}
	e.content = content
	// Positions tracked before this mutation are stale.
	e.trackerOK = false
}

// currentSelection returns the tracked selection, refusing the read when the
// tracker has not been re-synchronized since the last document mutation.
func (e *Engine) currentSelection() (types.Selection, bool) {
	if !e.trackerOK {
		return types.Selection{}, false
	}
	if e.selection.Empty() {
		return types.Selection{}, false
	}
	return e.selection, true
}

// currentCursor returns the tracked cursor offset, or NoPosition.
func (e *Engine) currentCursor() int {
	if !e.trackerOK {
		return types.NoPosition
	}
	return e.cursor
}
