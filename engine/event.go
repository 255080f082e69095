package engine

import (
	"texpilot/types"
)

type EventType string

// Event type constants
const (
	EventUserRequest      EventType = "user_request"
	EventSelectionChanged EventType = "selection_changed"
	EventSelectionCleared EventType = "selection_cleared"
	EventCursorMoved      EventType = "cursor_moved"
	EventDocumentChanged  EventType = "document_changed"
	EventCompletionReady  EventType = "completion_ready"
	EventCompletionError  EventType = "completion_error"
	EventAccept           EventType = "accept"
	EventReject           EventType = "reject"
	EventRestore          EventType = "restore"
)

var eventTypeMap map[string]EventType

func init() {
	eventTypeMap = buildEventTypeMap()
}

func buildEventTypeMap() map[string]EventType {
	eventMap := make(map[string]EventType)

	allEventTypes := []EventType{
		EventUserRequest,
		EventSelectionChanged,
		EventSelectionCleared,
		EventCursorMoved,
		EventDocumentChanged,
		EventCompletionReady,
		EventCompletionError,
		EventAccept,
		EventReject,
		EventRestore,
	}

	for _, eventType := range allEventTypes {
		eventMap[string(eventType)] = eventType
	}

	return eventMap
}

func EventTypeFromString(s string) EventType {
	if eventType, exists := eventTypeMap[s]; exists {
		return eventType
	}
	return ""
}

type Event struct {
	Type EventType
	Data any
}

// completionResult is the payload of EventCompletionReady. The request id
// lets the handler discard responses that no longer match the latest
// outstanding request.
type completionResult struct {
	requestID int64
	resp      *types.CompletionResponse
}

// completionFailure is the payload of EventCompletionError.
type completionFailure struct {
	requestID int64
	err       error
}
