package engine

import (
	"context"
	"sync"
	"time"

	"texpilot/types"
)

// --- Mock implementations ---

// mockCompleter implements client.Completer for testing
type mockCompleter struct {
	mu       sync.Mutex
	response *types.CompletionResponse
	err      error
	delay    time.Duration

	calls    int
	lastReq  *types.CompletionRequest
	blocking chan struct{}
}

func newMockCompleter() *mockCompleter {
	return &mockCompleter{
		response: &types.CompletionResponse{
			Text:          "```latex\n\\item replacement\n```",
			SelectionFrom: types.NoPosition,
			SelectionTo:   types.NoPosition,
		},
	}
}

func (c *mockCompleter) DoCompletion(ctx context.Context, req *types.CompletionRequest) (*types.CompletionResponse, error) {
	c.mu.Lock()
	c.calls++
	c.lastReq = req
	resp, err, delay, blocking := c.response, c.err, c.delay, c.blocking
	c.mu.Unlock()

	if blocking != nil {
		select {
		case <-blocking:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *mockCompleter) setResponse(resp *types.CompletionResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.response = resp
}

func (c *mockCompleter) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *mockCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *mockCompleter) lastRequest() *types.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReq
}

// mockSurface implements the Surface interface for testing
type mockSurface struct {
	mu sync.Mutex

	previewCalls int
	lastSegments []types.PreviewSegment
	clearCalls   int

	applyCalls   int
	lastFragment string
	lastFrom     int
	lastTo       int
	lastAction   types.ActionKind

	previewErr error
	applyErr   error
}

func newMockSurface() *mockSurface {
	return &mockSurface{}
}

func (s *mockSurface) PreviewInlineDiff(segments []types.PreviewSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewCalls++
	s.lastSegments = segments
	return s.previewErr
}

func (s *mockSurface) ClearInlineDiff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
}

func (s *mockSurface) ApplySuggestion(fragment string, from, to int, action types.ActionKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applyCalls++
	s.lastFragment = fragment
	s.lastFrom = from
	s.lastTo = to
	s.lastAction = action
	return nil
}

// mockPersister implements the Persister interface for testing
type mockPersister struct {
	mu sync.Mutex

	checkpointCalls int
	lastCheckpoint  CheckpointRecord
	messageCalls    int
	messages        []types.ChatMessage
}

func newMockPersister() *mockPersister {
	return &mockPersister{}
}

func (p *mockPersister) CreateCheckpoint(documentID, sessionID string, opts CheckpointRecord) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkpointCalls++
	p.lastCheckpoint = opts
	return types.NewID(), nil
}

func (p *mockPersister) SendChatMessage(documentID string, msg types.ChatMessage) (types.ChatMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messageCalls++
	p.messages = append(p.messages, msg)
	return msg, nil
}

// createTestEngine builds an engine wired to mocks without starting the
// event loop; tests drive handleEvent directly.
func createTestEngine(completer *mockCompleter, surface *mockSurface, doc string) *Engine {
	eng := NewEngine(completer, surface, nil, EngineConfig{
		DocumentID:        "doc1",
		SessionID:         "sess1",
		CompletionTimeout: 5 * time.Second,
	}, doc)
	eng.mainCtx = context.Background()
	return eng
}

// drainEvent pulls the next event posted by a completion goroutine and
// feeds it through the handler.
func drainEvent(eng *Engine) bool {
	select {
	case ev := <-eng.eventChan:
		eng.handleEvent(ev)
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}
