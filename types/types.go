package types

import (
	"crypto/rand"
	"fmt"
	"time"
)

// NoPosition marks an absent optional offset in requests and responses.
const NoPosition = -1

// Selection is the user's current highlighted range in the editor surface.
// Offsets are byte offsets into the document, 0 <= From <= To <= len(doc).
type Selection struct {
	Text string
	From int
	To   int
}

// Empty reports whether the selection covers no text.
func (s *Selection) Empty() bool {
	return s == nil || s.From == s.To
}

// ActionKind is the semantic kind of a proposed edit.
type ActionKind string

const (
	ActionAdd     ActionKind = "add"
	ActionReplace ActionKind = "replace"
	ActionDelete  ActionKind = "delete"
)

// Valid reports whether k is one of the known action kinds.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionAdd, ActionReplace, ActionDelete:
		return true
	}
	return false
}

// Anchor identifies where an edit applies: the byte range [From, To) and the
// text occupying it at resolution time. OriginalText is always captured from
// the live document when the anchor is resolved, never earlier.
type Anchor struct {
	From         int
	To           int
	OriginalText string
}

// ParsedSuggestion is a structured, position-accurate edit proposal extracted
// from a free-text model completion. DocLength records the document length the
// anchor was resolved against, so stale anchors can be detected before apply.
type ParsedSuggestion struct {
	Action        ActionKind
	Fragment      string
	Explanation   string
	Anchor        Anchor
	DocLength     int
	LowConfidence bool
}

// SegmentKind is the visual kind of a preview segment.
type SegmentKind string

const (
	SegmentAdd    SegmentKind = "add"
	SegmentDelete SegmentKind = "delete"
	// SegmentReplace exists for renderers that merge adjacent delete+add
	// pairs; the builder itself always emits the decomposed form.
	SegmentReplace SegmentKind = "replace"
)

// PreviewSegment describes one non-destructive overlay region. A replace
// action decomposes into a delete segment over the old range followed by an
// add segment at the end of that range, so renderers painting left-to-right
// always show the old text struck through before the new text.
type PreviewSegment struct {
	ID              string
	Kind            SegmentKind
	From            int
	To              int
	Content         string
	OriginalContent string
}

// Checkpoint is a full-document snapshot taken immediately before an accepted
// edit mutates the document.
type Checkpoint struct {
	ID            string
	ContentBefore string
	ContentAfter  string
	Timestamp     time.Time
	Description   string
	Additions     int
	Deletions     int
}

// Role is the conversational role of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageKind discriminates synthetic message categories explicitly instead
// of encoding them in id prefixes.
type MessageKind string

const (
	KindUserRequest MessageKind = "user_request"
	KindResponse    MessageKind = "response"
	KindWelcome     MessageKind = "welcome"
	KindRestore     MessageKind = "restore"
	KindError       MessageKind = "error"
)

// AppliedState tracks the outcome of a message's attached suggestion.
type AppliedState string

const (
	StatePending  AppliedState = "pending"
	StateApplied  AppliedState = "applied"
	StateRejected AppliedState = "rejected"
)

// ChatMessage is one entry in the append-only edit session log.
type ChatMessage struct {
	ID           string
	Role         Role
	Kind         MessageKind
	Content      string
	Suggestion   *ParsedSuggestion
	Applied      AppliedState
	CheckpointID string // set on restore messages
	Timestamp    time.Time
}

// CompletionRequest is the payload sent to the AI completion backend.
// SelectionFrom/SelectionTo/CursorPosition are NoPosition when absent.
type CompletionRequest struct {
	SelectedText   string `json:"selected_text"`
	UserRequest    string `json:"user_request"`
	FullDocument   string `json:"full_document"`
	SelectionFrom  int    `json:"selection_range_from"`
	SelectionTo    int    `json:"selection_range_to"`
	CursorPosition int    `json:"cursor_position"`
}

// CompletionResponse is what the backend returns: always the raw completion
// text, optionally pre-parsed fields when the backend isolates the edit
// itself. SelectionFrom/SelectionTo are NoPosition when the backend supplies
// no anchor hint.
type CompletionResponse struct {
	Text          string `json:"text"`
	ActionType    string `json:"action_type,omitempty"`
	SelectionFrom int    `json:"selection_range_from"`
	SelectionTo   int    `json:"selection_range_to"`
	Suggestion    string `json:"latex_suggestion,omitempty"`
}

// NewID returns a random 16-hex-char identifier.
func NewID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", b)
}
