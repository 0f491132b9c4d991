package turn

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/scribe-ai/scribe/internal/dispatch"
	"github.com/scribe-ai/scribe/internal/parser"
	"github.com/scribe-ai/scribe/internal/toolcall"
	"github.com/scribe-ai/scribe/pkg/protocol"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingExecutor struct {
	mu    sync.Mutex
	calls []toolcall.ToolCall
	ctxs  []context.Context
	gate  chan struct{} // when set, Execute blocks until the gate closes
}

func (r *recordingExecutor) Execute(ctx context.Context, call toolcall.ToolCall) (string, error) {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	r.ctxs = append(r.ctxs, ctx)
	return "ran " + call.Tool(), nil
}

func (r *recordingExecutor) tools() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Tool()
	}
	return out
}

type captureSubmitter struct {
	mu    sync.Mutex
	turns []protocol.Turn
}

func (c *captureSubmitter) Submit(ctx context.Context, turns []protocol.Turn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
	return nil
}

func (c *captureSubmitter) submitted() []protocol.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.Turn(nil), c.turns...)
}

func newTestController() (*Controller, *recordingExecutor, *captureSubmitter) {
	exec := &recordingExecutor{}
	sub := &captureSubmitter{}
	return NewController(dispatch.New(exec, sub, nil)), exec, sub
}

func TestStreamedTurnDispatchesOnClosingTag(t *testing.T) {
	c, exec, sub := newTestController()
	ctx, _ := c.Begin(context.Background())

	// The closing tag arrives split across deltas; nothing may fire early.
	c.OnDelta(ctx, "Reading it now. <read_file><path>a")
	c.OnDelta(ctx, ".md</path></read")
	assert.Empty(t, exec.tools())

	blocks := c.OnDelta(ctx, "_file>")
	require.Len(t, blocks, 2)
	assert.Equal(t, parser.KindText, blocks[0].Kind)
	assert.True(t, blocks[1].Complete)

	c.Resolve()
	assert.Equal(t, []string{"read_file"}, exec.tools())

	turns := sub.submitted()
	require.Len(t, turns, 1)
	assert.Equal(t, "ran read_file", turns[0].Content)
}

func TestRepeatedDeltasDoNotRedispatch(t *testing.T) {
	c, exec, _ := newTestController()
	ctx, _ := c.Begin(context.Background())

	c.OnDelta(ctx, "<search><query>alpha</query></search>")
	c.State().Wait()
	c.OnDelta(ctx, " more prose")
	c.OnDelta(ctx, " and more")
	c.Resolve()

	assert.Equal(t, []string{"search"}, exec.tools())
}

func TestBeginAbortsPreviousStream(t *testing.T) {
	c, _, _ := newTestController()

	first, _ := c.Begin(context.Background())
	c.OnDelta(first, "partial output")
	assert.Equal(t, "partial output", c.Buffer())

	second, _ := c.Begin(context.Background())
	assert.Error(t, first.Err(), "starting a turn aborts the previous stream")
	assert.NoError(t, second.Err())
	assert.Equal(t, "", c.Buffer(), "a new turn starts from an empty buffer")
	c.Resolve()
}

func TestAbortCancelsStreamButNotDispatch(t *testing.T) {
	c, exec, _ := newTestController()
	ctx, id := c.Begin(context.Background())

	c.OnDelta(ctx, "<read_file><path>a.md</path></read_file>")
	c.Abort(id)
	assert.Error(t, ctx.Err())

	c.Resolve()
	require.Equal(t, []string{"read_file"}, exec.tools())

	// The executor saw a context detached from the aborted stream.
	exec.mu.Lock()
	defer exec.mu.Unlock()
	assert.NoError(t, exec.ctxs[0].Err(), "dispatch must survive stream cancellation")
}

func TestFreshStatePerTurn(t *testing.T) {
	c, exec, _ := newTestController()
	block := "<read_file><path>a.md</path></read_file>"

	ctx, _ := c.Begin(context.Background())
	c.OnDelta(ctx, block)
	c.Resolve()

	// The same block at the same offset in a brand new turn runs again:
	// dedup is scoped to a turn, not the conversation.
	ctx, _ = c.Begin(context.Background())
	c.OnDelta(ctx, block)
	c.Resolve()

	assert.Equal(t, []string{"read_file", "read_file"}, exec.tools())
}

func TestFinalDeltaDuringBatchStillRuns(t *testing.T) {
	c, exec, sub := newTestController()
	gate := make(chan struct{})
	exec.gate = gate
	ctx, _ := c.Begin(context.Background())

	c.OnDelta(ctx, "<read_file><path>a.md</path></read_file>")
	require.True(t, c.State().Busy())

	// The stream's last delta lands while the first batch is in flight,
	// so no further delta will ever re-observe it.
	c.OnDelta(ctx, "<search><query>q</query></search>")
	close(gate)
	c.Resolve()

	assert.Equal(t, []string{"read_file", "search"}, exec.tools())
	turns := sub.submitted()
	require.Len(t, turns, 2)
	assert.Equal(t, "ran search", turns[1].Content)
}

func TestResolveWaitsForBatch(t *testing.T) {
	c, _, sub := newTestController()
	ctx, _ := c.Begin(context.Background())

	c.OnDelta(ctx, "<read_file><path>a.md</path></read_file><search><query>q</query></search>")
	c.Resolve()

	turns := sub.submitted()
	require.Len(t, turns, 1)
	assert.Equal(t, "ran read_file\n\nran search", turns[0].Content)
	assert.Nil(t, c.State(), "resolve releases the turn's state")
}
