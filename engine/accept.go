package engine

import (
	"fmt"

	"texpilot/logger"
	"texpilot/text"
	"texpilot/types"
)

// doAccept commits the active preview: checkpoint snapshot, then document
// mutation, then log update, always in that order. If the editor surface
// refuses the mutation nothing is considered committed.
func (e *Engine) doAccept(event Event) {
	preview := e.previewer.Active()
	if preview == nil {
		logger.Warn("accept with no active preview")
		e.state = stateIdle
		return
	}
	sug := preview.Suggestion

	// The anchor was resolved against the content as it stood at preview
	// time. If the document moved since, refuse rather than misapply.
	if sug.Action != types.ActionAdd && text.Stale(e.content, sug.Anchor) {
		logger.Warn("anchor stale at accept time, rejecting suggestion")
		e.discardPreview()
		e.appendError("The document changed since this edit was proposed. The edit was discarded.")
		e.state = stateIdle
		return
	}

	description := describeEdit(sug)
	contentBefore := e.content
	cpID := e.checkpoints.Snapshot(contentBefore, description)

	newContent := text.ApplySuggestion(contentBefore, sug)

	if err := e.surface.ApplySuggestion(sug.Fragment, sug.Anchor.From, sug.Anchor.To, sug.Action); err != nil {
		logger.Error("surface rejected mutation: %v", err)
		// The document did not change, so the snapshot must not occupy a
		// retention slot.
		e.checkpoints.Discard(cpID)
		e.appendError("Applying the edit failed: " + err.Error())
		e.discardPreview()
		e.state = stateIdle
		return
	}

	e.content = newContent
	e.trackerOK = false

	if err := e.checkpoints.Commit(cpID, newContent); err != nil {
		logger.Warn("checkpoint commit failed: %v", err)
	}

	e.surface.ClearInlineDiff()
	if _, err := e.previewer.Accept(); err != nil {
		logger.Warn("preview accept: %v", err)
	}

	e.log.SetApplied(e.previewMessageID, types.StateApplied)
	restoreMsg := e.log.AppendRestore(cpID, description)
	e.persistMessage(restoreMsg)
	e.previewMessageID = ""

	if e.persister != nil {
		additions, deletions := text.DiffStats(contentBefore, newContent)
		if _, err := e.persister.CreateCheckpoint(e.config.DocumentID, e.config.SessionID, CheckpointRecord{
			Name:          description,
			ContentBefore: contentBefore,
			ContentAfter:  newContent,
			MessageID:     restoreMsg.ID,
			Additions:     additions,
			Deletions:     deletions,
			SetCurrent:    true,
		}); err != nil {
			logger.Warn("checkpoint persistence failed: %v", err)
		}
	}

	e.state = stateIdle
	logger.Info("suggestion accepted, checkpoint %s", cpID)
}

// doReject discards the active preview with no document mutation.
func (e *Engine) doReject(event Event) {
	e.discardPreview()
	e.state = stateIdle
	logger.Debug("suggestion rejected")
}

// doRestore reverts the document to a checkpoint's pre-edit content. An
// unknown or evicted id is a reported failure; the document is untouched.
func (e *Engine) doRestore(event Event) {
	cpID, ok := event.Data.(string)
	if !ok {
		return
	}

	restored, err := e.checkpoints.Restore(cpID)
	if err != nil {
		logger.Warn("restore failed: %v", err)
		e.appendError(fmt.Sprintf("Could not restore: checkpoint %s was not found. It may have been evicted.", cpID))
		return
	}

	if err := e.surface.ApplySuggestion(restored, 0, len(e.content), types.ActionReplace); err != nil {
		logger.Error("surface rejected restore: %v", err)
		e.appendError("Restoring the document failed: " + err.Error())
		return
	}

	e.content = restored
	e.trackerOK = false
	e.appendAssistantText("Restored the document to the state before the edit.")
	logger.Info("restored to checkpoint %s", cpID)
}

// discardPreview clears the overlay, resets the preview state machine, and
// marks the suggestion's log message rejected so it never stays pending.
func (e *Engine) discardPreview() {
	if e.previewer.State() != text.Previewing {
		return
	}
	e.surface.ClearInlineDiff()
	e.previewer.Reject()
	if e.previewMessageID != "" {
		e.log.SetApplied(e.previewMessageID, types.StateRejected)
		e.previewMessageID = ""
	}
}

func describeEdit(sug *types.ParsedSuggestion) string {
	const maxLen = 40
	frag := sug.Fragment
	if len(frag) > maxLen {
		frag = frag[:maxLen] + "..."
	}
	return fmt.Sprintf("%s edit: %q", sug.Action, frag)
}

// Log append helpers. Every appended message is mirrored to the persister
// when one is configured; persistence failures are logged, never fatal.

func (e *Engine) appendUser(content string) {
	msg := e.log.AppendUser(content)
	e.persistMessage(msg)
}

func (e *Engine) appendAssistantText(content string) {
	msg := e.log.AppendAssistant(content, nil)
	e.persistMessage(msg)
}

func (e *Engine) appendSuggestion(content string, sug *types.ParsedSuggestion) types.ChatMessage {
	msg := e.log.AppendAssistant(content, sug)
	e.persistMessage(msg)
	return msg
}

func (e *Engine) appendError(description string) {
	msg := e.log.AppendError(description)
	e.persistMessage(msg)
}

func (e *Engine) persistMessage(msg types.ChatMessage) {
	if e.persister == nil {
		return
	}
	if _, err := e.persister.SendChatMessage(e.config.DocumentID, msg); err != nil {
		logger.Warn("message persistence failed: %v", err)
	}
}
