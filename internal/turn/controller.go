// Package turn owns the per-turn state of the streaming conversation
// loop: the growing response buffer, the dispatch bookkeeping for that
// buffer, and the abort signals of in-flight model streams.
package turn

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/scribe-ai/scribe/internal/dispatch"
	"github.com/scribe-ai/scribe/internal/parser"
)

// Controller drives one conversation. Each assistant turn gets a fresh
// buffer and fresh dispatch state; starting a new turn aborts any stream
// still in flight from the previous one.
type Controller struct {
	dispatcher *dispatch.Dispatcher

	mu      sync.Mutex
	buf     strings.Builder
	state   *dispatch.State
	turnID  string
	cancels map[string]context.CancelFunc
}

// NewController creates a controller around a dispatcher.
func NewController(d *dispatch.Dispatcher) *Controller {
	return &Controller{
		dispatcher: d,
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Begin starts a new assistant turn. Any previous in-flight stream is
// aborted first. The returned context governs the model stream for this
// turn; the returned id names the turn for Abort.
func (c *Controller) Begin(ctx context.Context) (context.Context, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, cancel := range c.cancels {
		cancel()
		delete(c.cancels, id)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	c.cancels[id] = cancel
	c.turnID = id
	c.buf.Reset()
	c.state = dispatch.NewState()
	return streamCtx, id
}

// OnDelta appends one stream delta, re-parses the whole buffer, and lets
// the dispatcher observe the result. The returned blocks are the full,
// current view of the turn for rendering.
//
// Dispatch deliberately runs on a context detached from the stream:
// aborting a stream must not cancel a tool execution that already left
// the gate.
func (c *Controller) OnDelta(ctx context.Context, delta string) []parser.Block {
	c.mu.Lock()
	if c.state == nil {
		c.state = dispatch.NewState()
	}
	c.buf.WriteString(delta)
	buffer := c.buf.String()
	st := c.state
	c.mu.Unlock()

	blocks := parser.Parse(buffer)
	c.dispatcher.Observe(context.WithoutCancel(ctx), st, blocks)
	return blocks
}

// Abort cancels the stream of the named turn, if it is still in flight.
// Tool executions already dispatched run to completion on their own.
func (c *Controller) Abort(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.cancels[id]; ok {
		cancel()
		delete(c.cancels, id)
	}
}

// Buffer returns the accumulated model output of the current turn.
func (c *Controller) Buffer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// State exposes the current turn's dispatch state, for rendering the
// per-call status of a batch.
func (c *Controller) State() *dispatch.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resolve waits for every dispatch spawned during the current turn to
// settle, then releases the turn's state. Call it once the follow-up has
// been produced and the turn's text is final.
func (c *Controller) Resolve() {
	c.mu.Lock()
	st := c.state
	id := c.turnID
	c.mu.Unlock()

	if st != nil {
		st.Wait()
	}

	c.mu.Lock()
	if c.turnID == id {
		c.state = nil
	}
	if cancel, ok := c.cancels[id]; ok {
		cancel()
		delete(c.cancels, id)
	}
	c.mu.Unlock()
}
