package engine

import (
	"context"
	"strings"

	"texpilot/logger"
	"texpilot/parse"
	"texpilot/text"
	"texpilot/types"
	"texpilot/utils"
)

// requestSnapshot freezes the selection and cursor at submission time so the
// eventual response is resolved against them, not whatever the tracker holds
// by then.
type requestSnapshot struct {
	userText  string
	selection *types.Selection
	cursor    int
	// windowStart is the byte offset of the trimmed context window within
	// the full document, 0 when the document was sent whole. Offsets in the
	// backend's response are relative to the window it was given.
	windowStart int
}

// doRequestCompletion handles a user request from idle or previewing state.
// A previewing suggestion is implicitly discarded, never merged.
func (e *Engine) doRequestCompletion(event Event) {
	userText, ok := event.Data.(string)
	if !ok || strings.TrimSpace(userText) == "" {
		return
	}

	if e.state == statePreviewing {
		e.discardPreview()
	}

	e.appendUser(userText)

	var sel *types.Selection
	if s, ok := e.currentSelection(); ok {
		sel = &s
	}
	cursor := e.currentCursor()
	e.pending = requestSnapshot{userText: userText, selection: sel, cursor: cursor}

	req := &types.CompletionRequest{
		UserRequest:    userText,
		FullDocument:   e.content,
		SelectionFrom:  types.NoPosition,
		SelectionTo:    types.NoPosition,
		CursorPosition: cursor,
	}
	if sel != nil {
		req.SelectedText = sel.Text
		req.SelectionFrom = sel.From
		req.SelectionTo = sel.To
	}
	if e.config.MaxContextTokens > 0 {
		center := cursor
		rangeFrom, rangeTo := center, center
		if sel != nil {
			rangeFrom, rangeTo = sel.From, sel.To
		}
		if rangeFrom == types.NoPosition {
			rangeFrom, rangeTo = 0, 0
		}
		trimmed, windowStart, didTrim := utils.TrimDocumentAroundRange(e.content, rangeFrom, rangeTo, e.config.MaxContextTokens)
		if didTrim {
			req.FullDocument = trimmed
			e.pending.windowStart = windowStart
			// The backend only sees the window, so every offset it receives
			// must be relative to the window start.
			if req.SelectionFrom != types.NoPosition {
				req.SelectionFrom -= windowStart
				req.SelectionTo -= windowStart
			}
			if c := req.CursorPosition; c != types.NoPosition {
				c -= windowStart
				if c < 0 {
					c = 0
				}
				if c > len(trimmed) {
					c = len(trimmed)
				}
				req.CursorPosition = c
			}
		}
	}

	e.requestSeq++
	reqID := e.requestSeq
	e.pendingReqID = reqID
	e.state = statePendingResponse

	base := e.mainCtx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithTimeout(base, e.config.CompletionTimeout)
	e.currentCancel = cancel

	go func() {
		defer cancel()

		resp, err := e.completer.DoCompletion(ctx, req)
		if err != nil {
			e.send(Event{Type: EventCompletionError, Data: &completionFailure{requestID: reqID, err: err}})
			return
		}
		e.send(Event{Type: EventCompletionReady, Data: &completionResult{requestID: reqID, resp: resp}})
	}()
}

// doHandleCompletion turns a backend response into a positioned suggestion
// and an inline diff preview.
func (e *Engine) doHandleCompletion(event Event) {
	result, ok := event.Data.(*completionResult)
	if !ok {
		return
	}
	if result.requestID != e.pendingReqID {
		logger.Debug("discarding response for request %d, latest is %d", result.requestID, e.pendingReqID)
		return
	}
	e.currentCancel = nil
	resp := result.resp

	fragment, explanation, action, hintFrom, hintTo, lowConfidence := e.interpretResponse(resp)

	if strings.TrimSpace(fragment) == "" {
		e.appendError("The response did not contain a usable edit.")
		e.state = stateIdle
		return
	}

	if lowConfidence {
		logger.Warn("suppressing low-confidence suggestion (%d bytes)", len(fragment))
		e.appendAssistantText(explanation +
			"\n\nI couldn't isolate a confident edit from that response, so no preview was generated.")
		e.state = stateIdle
		return
	}

	anchor, downgraded := e.resolveRequestAnchor(hintFrom, hintTo)
	if downgraded {
		action = types.ActionAdd
	}

	sug := &types.ParsedSuggestion{
		Action:      action,
		Fragment:    fragment,
		Explanation: explanation,
		Anchor:      anchor,
		DocLength:   len(e.content),
	}

	preview := e.previewer.Begin(sug)
	if err := e.surface.PreviewInlineDiff(preview.Segments); err != nil {
		logger.Error("preview render failed: %v", err)
		e.previewer.Reject()
		e.appendError("Could not display the edit preview: " + err.Error())
		e.state = stateIdle
		return
	}

	msg := e.appendSuggestion(explanation, sug)
	e.previewMessageID = msg.ID
	e.state = statePreviewing
}

// interpretResponse prefers the backend's pre-parsed fields and falls back
// to the free-text parser chain.
func (e *Engine) interpretResponse(resp *types.CompletionResponse) (fragment, explanation string, action types.ActionKind, hintFrom, hintTo int, lowConfidence bool) {
	hintFrom, hintTo = types.NoPosition, types.NoPosition

	hasSelection := e.pending.selection != nil

	if resp.Suggestion != "" {
		fragment = strings.TrimSpace(resp.Suggestion)
		explanation = strings.TrimSpace(resp.Text)
		if explanation == "" {
			explanation = "Here is a suggested edit."
		}
		if kind := types.ActionKind(resp.ActionType); kind.Valid() {
			action = kind
		} else {
			action = parse.ClassifyAction(e.pending.userText, hasSelection)
		}
		hintFrom = rebaseHint(resp.SelectionFrom, e.pending.windowStart)
		hintTo = rebaseHint(resp.SelectionTo, e.pending.windowStart)
		return
	}

	parsed := parse.Response(resp.Text)
	fragment = parsed.Fragment
	explanation = parsed.Explanation
	action = parse.ClassifyAction(e.pending.userText, hasSelection)
	lowConfidence = parsed.LowConfidence(len(e.content))
	return
}

// rebaseHint maps a window-relative offset from the backend back into
// full-document coordinates.
func rebaseHint(v, windowStart int) int {
	if v == types.NoPosition {
		return v
	}
	return v + windowStart
}

// resolveRequestAnchor resolves the edit anchor against the current document
// using the position captured when the request was submitted. When clamping
// cannot produce a valid range the suggestion is downgraded to an append at
// document end and a warning is recorded in the log.
func (e *Engine) resolveRequestAnchor(hintFrom, hintTo int) (types.Anchor, bool) {
	docLen := len(e.content)

	if hintFrom != types.NoPosition && hintTo != types.NoPosition && hintFrom > hintTo {
		logger.Warn("anchor hint [%d,%d) is inverted, downgrading to add at end", hintFrom, hintTo)
		e.appendAssistantText("The suggested position was invalid, so the edit will be appended at the end of the document.")
		return types.Anchor{From: docLen, To: docLen}, true
	}

	// A selection captured before an intervening edit must not be applied
	// against the new content: the text it named is no longer there.
	sel := e.pending.selection
	if sel != nil && sel.Text != "" {
		captured := types.Anchor{From: sel.From, To: sel.To, OriginalText: sel.Text}
		if text.Stale(e.content, captured) {
			logger.Warn("selection anchor went stale, downgrading to add at end")
			e.appendAssistantText("The selected text changed while the request was in flight, so the edit will be appended at the end of the document.")
			return types.Anchor{From: docLen, To: docLen}, true
		}
	}

	anchor := text.ResolveAnchor(text.ResolveInput{
		Doc:           e.content,
		HintFrom:      hintFrom,
		HintTo:        hintTo,
		Selection:     sel,
		CursorOffset:  e.pending.cursor,
		DefaultAnchor: docLen,
	})

	return anchor, false
}

// doHandleCompletionError converts a backend failure into an assistant
// message; network failures never surface as control-flow errors.
func (e *Engine) doHandleCompletionError(event Event) {
	failure, ok := event.Data.(*completionFailure)
	if !ok {
		return
	}
	if failure.requestID != e.pendingReqID {
		logger.Debug("discarding error for request %d, latest is %d", failure.requestID, e.pendingReqID)
		return
	}
	e.currentCancel = nil

	logger.Error("completion request failed: %v", failure.err)
	e.appendError("The edit request failed: " + failure.err.Error())
	e.state = stateIdle
}
