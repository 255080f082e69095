package engine

import (
	"texpilot/logger"
)

// String returns a human-readable name for the state
func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case statePendingResponse:
		return "PendingResponse"
	case statePreviewing:
		return "Previewing"
	default:
		return "Unknown"
	}
}

// Transition represents a valid state transition in the engine's state machine
type Transition struct {
	From   state
	Event  EventType
	Action func(*Engine, Event)
}

// transitions defines all valid state transitions in the engine.
// This table serves as documentation and enables validation of state changes.
//
// State Machine Overview:
//
//	stateIdle
//	├─[UserRequest]──► statePendingResponse
//	│                   │
//	│                   ├─[CompletionReady]──► statePreviewing
//	│                   │                       │
//	│                   │                       ├─[Accept]──► snapshot → mutate → log ──► stateIdle
//	│                   │                       │
//	│                   │                       ├─[Reject]──► stateIdle
//	│                   │                       │
//	│                   │                       └─[UserRequest]──► discards preview ──► statePendingResponse
//	│                   │
//	│                   ├─[CompletionError]──► error message ──► stateIdle
//	│                   │
//	│                   └─[UserRequest]──► rejected, not queued
//	│
//	└─[Restore]──► document reverted, stays idle
//
// Selection, cursor, and document events are tracked in every state.
var transitions = []Transition{
	// From stateIdle
	{stateIdle, EventUserRequest, (*Engine).doRequestCompletion},
	{stateIdle, EventSelectionChanged, (*Engine).doTrackSelection},
	{stateIdle, EventSelectionCleared, (*Engine).doClearSelection},
	{stateIdle, EventCursorMoved, (*Engine).doTrackCursor},
	{stateIdle, EventDocumentChanged, (*Engine).doSyncDocument},
	{stateIdle, EventRestore, (*Engine).doRestore},

	// From statePendingResponse
	{statePendingResponse, EventUserRequest, (*Engine).doRejectBusy},
	{statePendingResponse, EventCompletionReady, (*Engine).doHandleCompletion},
	{statePendingResponse, EventCompletionError, (*Engine).doHandleCompletionError},
	{statePendingResponse, EventSelectionChanged, (*Engine).doTrackSelection},
	{statePendingResponse, EventSelectionCleared, (*Engine).doClearSelection},
	{statePendingResponse, EventCursorMoved, (*Engine).doTrackCursor},
	{statePendingResponse, EventDocumentChanged, (*Engine).doSyncDocument},

	// From statePreviewing
	{statePreviewing, EventAccept, (*Engine).doAccept},
	{statePreviewing, EventReject, (*Engine).doReject},
	{statePreviewing, EventUserRequest, (*Engine).doRequestCompletion},
	{statePreviewing, EventSelectionChanged, (*Engine).doTrackSelection},
	{statePreviewing, EventSelectionCleared, (*Engine).doClearSelection},
	{statePreviewing, EventCursorMoved, (*Engine).doTrackCursor},
	{statePreviewing, EventDocumentChanged, (*Engine).doDocumentChangedPreviewing},
	{statePreviewing, EventRestore, (*Engine).doRestorePreviewing},
	{statePreviewing, EventCompletionReady, (*Engine).doDiscardStale},
	{statePreviewing, EventCompletionError, (*Engine).doDiscardStale},
}

// transitionMap provides O(1) lookup for transitions by (state, event) pair
var transitionMap map[transitionKey]*Transition

type transitionKey struct {
	from  state
	event EventType
}

func init() {
	transitionMap = make(map[transitionKey]*Transition)
	for i := range transitions {
		t := &transitions[i]
		key := transitionKey{from: t.From, event: t.Event}
		transitionMap[key] = t
	}
}

// findTransition looks up a valid transition for the given state and event.
// Returns nil if no valid transition exists.
func findTransition(from state, event EventType) *Transition {
	return transitionMap[transitionKey{from: from, event: event}]
}

// dispatch finds and executes the appropriate transition for an event.
// Returns true if a transition was found and executed, false otherwise.
// Note: The actual state change is performed by the action function,
// which allows for conditional transitions based on runtime state.
func (e *Engine) dispatch(event Event) bool {
	t := findTransition(e.state, event.Type)
	if t == nil {
		logger.Debug("no handler: state=%s event=%s", e.state, event.Type)
		return false
	}
	if t.Action != nil {
		t.Action(e, event)
	}
	return true
}

// Action functions for state transitions.

func (e *Engine) doRejectBusy(event Event) {
	logger.Warn("request rejected: %v", ErrRequestInFlight)
	e.appendError(ErrRequestInFlight.Error() + ". Please wait for it to finish.")
}

func (e *Engine) doDiscardStale(event Event) {
	// A response arriving while previewing belongs to an abandoned request.
	switch data := event.Data.(type) {
	case *completionResult:
		logger.Debug("discarding stale completion for request %d", data.requestID)
	case *completionFailure:
		logger.Debug("discarding stale completion error for request %d", data.requestID)
	}
}

func (e *Engine) doDocumentChangedPreviewing(event Event) {
	// The document moved under the preview; its anchors no longer hold.
	e.discardPreview()
	e.state = stateIdle
	e.doSyncDocument(event)
}

func (e *Engine) doRestorePreviewing(event Event) {
	e.discardPreview()
	e.state = stateIdle
	e.doRestore(event)
}
