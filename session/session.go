// Package session keeps the ordered chat log for one document: user
// requests, assistant responses, restore affordances, and error notices.
package session

import (
	"time"

	"texpilot/logger"
	"texpilot/types"
)

const welcomeText = "Hi! I can help you edit this document. Select some text or place your cursor, then tell me what to change."

// Log is an append-only message sequence. Messages are never edited in
// place except for their applied flag.
type Log struct {
	messages []types.ChatMessage
}

func NewLog() *Log {
	return &Log{}
}

// Append adds a message, filling in the id and timestamp if absent, and
// returns the stored copy.
func (l *Log) Append(msg types.ChatMessage) types.ChatMessage {
	if msg.ID == "" {
		msg.ID = types.NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	l.messages = append(l.messages, msg)
	return msg
}

// AppendUser appends a user request message.
func (l *Log) AppendUser(content string) types.ChatMessage {
	return l.Append(types.ChatMessage{
		Role:    types.RoleUser,
		Kind:    types.KindUserRequest,
		Content: content,
	})
}

// AppendAssistant appends an assistant response carrying an optional
// suggestion. Suggestions start out pending.
func (l *Log) AppendAssistant(content string, sug *types.ParsedSuggestion) types.ChatMessage {
	msg := types.ChatMessage{
		Role:    types.RoleAssistant,
		Kind:    types.KindResponse,
		Content: content,
	}
	if sug != nil {
		msg.Suggestion = sug
		msg.Applied = types.StatePending
	}
	return l.Append(msg)
}

// AppendError records a failure as an assistant message so the conversation
// stays the single source of truth for what happened.
func (l *Log) AppendError(description string) types.ChatMessage {
	return l.Append(types.ChatMessage{
		Role:    types.RoleAssistant,
		Kind:    types.KindError,
		Content: description,
	})
}

// AppendRestore records a restore affordance pointing at a checkpoint.
func (l *Log) AppendRestore(checkpointID, description string) types.ChatMessage {
	return l.Append(types.ChatMessage{
		Role:         types.RoleAssistant,
		Kind:         types.KindRestore,
		Content:      description,
		CheckpointID: checkpointID,
	})
}

// SetApplied updates the applied flag of the message with the given id.
// Returns false if no such message exists.
func (l *Log) SetApplied(messageID string, state types.AppliedState) bool {
	for i := range l.messages {
		if l.messages[i].ID == messageID {
			l.messages[i].Applied = state
			return true
		}
	}
	return false
}

// Get returns the message with the given id.
func (l *Log) Get(messageID string) (types.ChatMessage, bool) {
	for i := range l.messages {
		if l.messages[i].ID == messageID {
			return l.messages[i], true
		}
	}
	return types.ChatMessage{}, false
}

// Messages returns a copy of the log in order.
func (l *Log) Messages() []types.ChatMessage {
	out := make([]types.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	return len(l.messages)
}

// Reconcile merges a server-confirmed history into the local log. Confirmed
// messages win over local optimistic copies with the same id; local-only
// messages (not yet persisted, e.g. a restore affordance) are preserved and
// re-appended after the confirmed sequence in their original order. An empty
// confirmed history seeds the log with a single welcome message.
func (l *Log) Reconcile(confirmed []types.ChatMessage) {
	if len(confirmed) == 0 && len(l.messages) == 0 {
		l.Append(types.ChatMessage{
			Role:    types.RoleAssistant,
			Kind:    types.KindWelcome,
			Content: welcomeText,
		})
		return
	}

	seen := make(map[string]bool, len(confirmed))
	for _, m := range confirmed {
		seen[m.ID] = true
	}

	var localOnly []types.ChatMessage
	for _, m := range l.messages {
		if !seen[m.ID] {
			localOnly = append(localOnly, m)
		}
	}
	if len(localOnly) > 0 {
		logger.Debug("session: preserving %d unconfirmed local messages", len(localOnly))
	}

	merged := make([]types.ChatMessage, 0, len(confirmed)+len(localOnly))
	merged = append(merged, confirmed...)
	merged = append(merged, localOnly...)
	l.messages = merged
}
