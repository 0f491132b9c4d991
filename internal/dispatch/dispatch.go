// Package dispatch turns parsed blocks into executed tool calls exactly
// once, in document order.
//
// Parse passes arrive once per stream delta on a growing buffer, so the
// same completed block is observed many times. The dispatcher owns the
// "have we run this before" bookkeeping the parser deliberately does not
// have: fingerprint dedup, sequential batch execution, and the
// auto-dispatch paths for memory writes and task fetches.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scribe-ai/scribe/internal/parser"
	"github.com/scribe-ai/scribe/internal/toolcall"
	"github.com/scribe-ai/scribe/pkg/protocol"
)

// Executor performs the side effect behind one tool call. The dispatcher
// guarantees it is invoked at most once per block fingerprint.
type Executor interface {
	Execute(ctx context.Context, call toolcall.ToolCall) (string, error)
}

// Submitter appends synthesized follow-up turns and resumes the model
// conversation loop.
type Submitter interface {
	Submit(ctx context.Context, turns []protocol.Turn) error
}

// Notifier surfaces user-visible notices outside the conversation.
type Notifier interface {
	Notify(n protocol.Notice)
}

type nopNotifier struct{}

func (nopNotifier) Notify(protocol.Notice) {}

// Dispatcher wires the executor, submitter and notifier collaborators.
// Per-turn mutable state lives in State, not here: one Dispatcher serves
// many turns.
type Dispatcher struct {
	executor Executor
	submit   Submitter
	notify   Notifier

	// OnAutoResult, when set, receives the result of a successful
	// auto-dispatched call (memory write, task fetch). Auto-dispatch
	// results surface through the host UI, not the conversation.
	OnAutoResult func(call toolcall.ToolCall, result string)

	// OnToolResult, when set, receives the outcome of every executed
	// call, batch and auto alike, including timing.
	OnToolResult func(res protocol.ToolResult)

	// Approve, when set, is consulted before a batch executes. A
	// declined batch is recorded as such and never retried. Nil approves
	// everything.
	Approve func(calls []toolcall.ToolCall) bool

	// AutoApproveSingle runs a batch of exactly one call without
	// consulting Approve.
	AutoApproveSingle bool
}

// New creates a dispatcher. Executor and submitter are required; a nil
// notifier is replaced with a no-op.
func New(executor Executor, submit Submitter, notify Notifier) *Dispatcher {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Dispatcher{
		executor:          executor,
		submit:            submit,
		notify:            notify,
		AutoApproveSingle: true,
	}
}

// Observe processes one parse pass over the current turn's buffer.
//
// Completed auto-dispatch blocks fire immediately and independently.
// Remaining completed, mappable, not-yet-dispatched blocks form a batch:
// a single new call takes the direct path, two or more run through the
// sequencer. Either way execution happens on its own goroutine so
// observing never blocks on tool I/O; a pass arriving while a batch is
// in flight is stashed and re-observed once that batch settles.
func (d *Dispatcher) Observe(ctx context.Context, st *State, blocks []parser.Block) {
	d.autoDispatch(ctx, st, blocks)

	type eligible struct {
		fp   string
		call toolcall.ToolCall
	}
	var batch []eligible

	st.mu.Lock()
	for _, b := range blocks {
		if !b.Complete || isAutoKind(b.Kind) {
			continue
		}
		call := toolcall.FromBlock(b)
		if call == nil {
			continue
		}
		fp := Fingerprint(b)
		if _, seen := st.records[fp]; seen {
			continue
		}
		batch = append(batch, eligible{fp: fp, call: call})
	}

	if st.busy {
		if len(batch) > 0 {
			st.pending = blocks
		}
		st.mu.Unlock()
		return
	}
	st.pending = nil
	if len(batch) == 0 {
		st.mu.Unlock()
		return
	}

	st.busy = true
	recs := make([]*ExecutionRecord, 0, len(batch))
	for _, e := range batch {
		r := &ExecutionRecord{
			ID:          uuid.NewString(),
			Fingerprint: e.fp,
			Tool:        e.call.Tool(),
			Status:      StatusPending,
		}
		st.records[e.fp] = r
		st.order = append(st.order, r)
		recs = append(recs, r)
	}
	st.wg.Add(1)
	st.mu.Unlock()

	calls := make([]toolcall.ToolCall, len(batch))
	for i, e := range batch {
		calls[i] = e.call
	}

	if !d.approved(calls) {
		for _, r := range recs {
			st.setStatus(r, StatusDeclined)
		}
		d.redrive(ctx, st)
		st.wg.Done()
		return
	}
	go d.run(ctx, st, recs, calls)
}

func (d *Dispatcher) approved(calls []toolcall.ToolCall) bool {
	if d.Approve == nil {
		return true
	}
	if d.AutoApproveSingle && len(calls) == 1 {
		return true
	}
	return d.Approve(calls)
}

// redrive clears the busy flag and re-observes the pass stashed while it
// was set, if any. Called once per settled batch so no pass is lost even
// when it carried the stream's final blocks.
func (d *Dispatcher) redrive(ctx context.Context, st *State) {
	st.mu.Lock()
	st.busy = false
	pending := st.pending
	st.pending = nil
	st.mu.Unlock()

	if len(pending) > 0 {
		d.Observe(ctx, st, pending)
	}
}

// run executes a batch strictly in document order, awaiting each call
// before starting the next. A failure does not abort the queue: every
// call gets a chance to run, failures are recorded per item and the
// successful results aggregate into one synthesized user turn.
func (d *Dispatcher) run(ctx context.Context, st *State, recs []*ExecutionRecord, calls []toolcall.ToolCall) {
	defer st.wg.Done()
	defer d.redrive(ctx, st)

	var results []string
	for i, r := range recs {
		st.setStatus(r, StatusExecuting)

		started := time.Now()
		out, err := d.executor.Execute(ctx, calls[i])
		elapsed := time.Since(started).Milliseconds()
		if err != nil {
			st.finish(r, StatusFailed, "", err.Error())
			d.emit(protocol.ToolResult{Tool: r.Tool, Error: err.Error(), DurationMs: elapsed})
			d.notify.Notify(protocol.Notice{Message: "Tool " + r.Tool + " failed: " + err.Error()})
			continue
		}
		st.finish(r, StatusCompleted, out, "")
		d.emit(protocol.ToolResult{Tool: r.Tool, Success: true, Result: out, DurationMs: elapsed})
		results = append(results, out)
	}

	if len(results) == 0 {
		// Every call failed; the failures were already surfaced. There
		// is nothing to feed back to the model.
		return
	}

	turn := protocol.Turn{
		ID:          uuid.NewString(),
		Role:        protocol.RoleUser,
		Content:     strings.Join(results, "\n\n"),
		Synthesized: true,
	}
	if err := d.submit.Submit(ctx, []protocol.Turn{turn}); err != nil {
		d.notify.Notify(protocol.Notice{Message: "Failed to submit tool results: " + err.Error()})
	}
}

func (d *Dispatcher) emit(res protocol.ToolResult) {
	if d.OnToolResult != nil {
		d.OnToolResult(res)
	}
}

// autoDispatch fires the block kinds that execute the instant their
// closing tag is observed, without confirmation and without joining the
// sequential batch.
func (d *Dispatcher) autoDispatch(ctx context.Context, st *State, blocks []parser.Block) {
	for _, b := range blocks {
		if !b.Complete {
			continue
		}

		switch b.Kind {
		case parser.KindAssistantMemory:
			st.mu.Lock()
			if _, done := st.memoryWrites[b.Content]; done {
				st.mu.Unlock()
				continue
			}
			st.memoryWrites[b.Content] = struct{}{}
			st.wg.Add(1)
			st.mu.Unlock()
			go d.runAuto(ctx, st, toolcall.WriteMemory{Content: b.Content})

		case parser.KindFetchTasks:
			key := taskFetchKey(b)
			st.mu.Lock()
			if _, done := st.taskFetches[key]; done {
				st.mu.Unlock()
				continue
			}
			st.taskFetches[key] = struct{}{}
			st.wg.Add(1)
			st.mu.Unlock()
			go d.runAuto(ctx, st, toolcall.FromBlock(b))
		}
	}
}

func (d *Dispatcher) runAuto(ctx context.Context, st *State, call toolcall.ToolCall) {
	defer st.wg.Done()

	started := time.Now()
	out, err := d.executor.Execute(ctx, call)
	elapsed := time.Since(started).Milliseconds()
	if err != nil {
		// No retry; auto-dispatch failures surface as a notice and never
		// block parsing of subsequent blocks.
		d.emit(protocol.ToolResult{Tool: call.Tool(), Error: err.Error(), DurationMs: elapsed})
		d.notify.Notify(protocol.Notice{Message: "Tool " + call.Tool() + " failed: " + err.Error()})
		return
	}
	d.emit(protocol.ToolResult{Tool: call.Tool(), Success: true, Result: out, DurationMs: elapsed})
	if d.OnAutoResult != nil {
		d.OnAutoResult(call, out)
	}
}

func isAutoKind(k parser.Kind) bool {
	return k == parser.KindAssistantMemory || k == parser.KindFetchTasks
}

// taskFetchKey is the composite dedup key of a fetch_tasks block:
// identical filter combinations are suppressed, distinct ones always run.
func taskFetchKey(b parser.Block) string {
	return strings.Join([]string{
		b.Source, b.Status, b.Completion, b.Due, b.Created, b.Start, b.Scheduled,
	}, "\x1f")
}
