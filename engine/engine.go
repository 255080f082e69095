// Package engine drives the AI-assisted edit pipeline for one document: it
// tracks selection and cursor, sends the user's request to the completion
// backend, turns the response into a positioned diff preview, and applies or
// rejects it transactionally against the checkpoint store and message log.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"texpilot/checkpoint"
	"texpilot/client"
	"texpilot/logger"
	"texpilot/session"
	"texpilot/text"
	"texpilot/types"
)

type state int

const (
	stateIdle state = iota
	statePendingResponse
	statePreviewing
)

// ErrRequestInFlight is reported when a new request arrives while one is
// still outstanding. The new request is rejected, not queued.
var ErrRequestInFlight = errors.New("a request is already in progress")

// Surface is the editor collaborator. The engine never touches the document
// directly; every mutation and preview goes through these callbacks.
type Surface interface {
	PreviewInlineDiff(segments []types.PreviewSegment) error
	ClearInlineDiff()
	ApplySuggestion(fragment string, from, to int, action types.ActionKind) error
}

// Persister is the optional storage collaborator for checkpoints and chat
// history. A nil Persister keeps everything in memory.
type Persister interface {
	CreateCheckpoint(documentID, sessionID string, opts CheckpointRecord) (string, error)
	SendChatMessage(documentID string, msg types.ChatMessage) (types.ChatMessage, error)
}

// CheckpointRecord mirrors the persistence API's checkpoint payload.
type CheckpointRecord struct {
	Name          string
	ContentBefore string
	ContentAfter  string
	MessageID     string
	Additions     int
	Deletions     int
	SetCurrent    bool
}

type EngineConfig struct {
	DocumentID         string
	SessionID          string
	CompletionTimeout  time.Duration
	MaxContextTokens   int
	CheckpointCapacity int
}

type Engine struct {
	completer client.Completer
	surface   Surface
	persister Persister

	state       state
	content     string
	selection   types.Selection
	cursor      int
	trackerOK   bool
	previewer   *text.Previewer
	checkpoints *checkpoint.Store
	log         *session.Log

	// id of the log message carrying the active suggestion
	previewMessageID string

	requestSeq    int64
	pendingReqID  int64
	pending       requestSnapshot
	currentCancel context.CancelFunc

	mu        sync.RWMutex
	eventChan chan Event

	mainCtx    context.Context
	mainCancel context.CancelFunc
	stopped    bool
	stopOnce   sync.Once

	config EngineConfig
}

func NewEngine(completer client.Completer, surface Surface, persister Persister, config EngineConfig, initialContent string) *Engine {
	if config.CompletionTimeout <= 0 {
		config.CompletionTimeout = 30 * time.Second
	}
	capacity := config.CheckpointCapacity
	if capacity <= 0 {
		capacity = checkpoint.DefaultCapacity
	}

	return &Engine{
		completer:   completer,
		surface:     surface,
		persister:   persister,
		state:       stateIdle,
		content:     initialContent,
		cursor:      types.NoPosition,
		trackerOK:   true,
		previewer:   text.NewPreviewer(),
		checkpoints: checkpoint.NewStore(capacity),
		log:         session.NewLog(),
		eventChan:   make(chan Event, 100),
		config:      config,
	}
}

func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.mainCtx, e.mainCancel = context.WithCancel(ctx)
	e.mu.Unlock()

	go e.eventLoop(e.mainCtx)
	logger.Info("engine started for document %s", e.config.DocumentID)
}

// Stop gracefully shuts down the engine and cleans up all resources
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		logger.Info("stopping engine...")

		e.stopped = true
		if e.mainCancel != nil {
			e.mainCancel()
		}
		if e.currentCancel != nil {
			e.currentCancel()
			e.currentCancel = nil
		}
		e.state = stateIdle
		close(e.eventChan)

		logger.Info("engine stopped")
	})
}

func (e *Engine) eventLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event loop panic recovered: %v", r)
			e.eventLoop(e.mainCtx)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-e.eventChan:
			if !ok {
				return
			}

			e.mu.RLock()
			stopped := e.stopped
			e.mu.RUnlock()

			if stopped {
				return
			}

			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("event handler panic recovered for event %v: %v", event.Type, r)
					}
				}()
				e.handleEvent(event)
			}()
		}
	}
}

func (e *Engine) handleEvent(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}

	logger.Debug("handle event: %s state=%s", event.Type, e.state)
	e.dispatch(event)
}

// send enqueues an event without blocking a stopped engine.
func (e *Engine) send(event Event) {
	e.mu.RLock()
	stopped, ctx := e.stopped, e.mainCtx
	e.mu.RUnlock()
	if stopped {
		return
	}

	if ctx == nil {
		e.eventChan <- event
		return
	}
	select {
	case e.eventChan <- event:
	case <-ctx.Done():
	}
}

// Submit sends a natural-language edit request. If a request is already
// outstanding it is rejected with an error message in the log.
func (e *Engine) Submit(userText string) {
	e.send(Event{Type: EventUserRequest, Data: userText})
}

// SetSelection updates the tracked selection.
func (e *Engine) SetSelection(sel types.Selection) {
	e.send(Event{Type: EventSelectionChanged, Data: sel})
}

// ClearSelection drops both the selection and the cursor position.
func (e *Engine) ClearSelection() {
	e.send(Event{Type: EventSelectionCleared})
}

// SetCursor updates the tracked cursor offset.
func (e *Engine) SetCursor(offset int) {
	e.send(Event{Type: EventCursorMoved, Data: offset})
}

// SyncDocument tells the engine the document content changed outside an
// accepted suggestion. Any active preview is discarded.
func (e *Engine) SyncDocument(content string) {
	e.send(Event{Type: EventDocumentChanged, Data: content})
}

// Accept applies the active preview.
func (e *Engine) Accept() {
	e.send(Event{Type: EventAccept})
}

// Reject discards the active preview without mutating the document.
func (e *Engine) Reject() {
	e.send(Event{Type: EventReject})
}

// Restore reverts the document to the state captured by a checkpoint.
func (e *Engine) Restore(checkpointID string) {
	e.send(Event{Type: EventRestore, Data: checkpointID})
}

// Post enqueues a named event, for frontends whose transport delivers event
// names as strings. Completion events are internal and cannot be injected.
func (e *Engine) Post(name string, data any) error {
	eventType := EventTypeFromString(name)
	if eventType == "" {
		return fmt.Errorf("unknown event type %q", name)
	}
	if eventType == EventCompletionReady || eventType == EventCompletionError {
		return fmt.Errorf("event type %q is internal", name)
	}
	e.send(Event{Type: eventType, Data: data})
	return nil
}

// Content returns the engine's view of the document.
func (e *Engine) Content() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.content
}

// Messages returns a copy of the chat log.
func (e *Engine) Messages() []types.ChatMessage {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.log.Messages()
}

// Checkpoints returns the retained checkpoints, oldest first.
func (e *Engine) Checkpoints() []*types.Checkpoint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.checkpoints.List()
}

// LoadHistory reconciles a server-confirmed message history into the log,
// seeding a welcome message when there is none.
func (e *Engine) LoadHistory(confirmed []types.ChatMessage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log.Reconcile(confirmed)
}
