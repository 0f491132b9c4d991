package dispatch

import (
	"sync"

	"github.com/scribe-ai/scribe/internal/parser"
)

// Status is the lifecycle state of one dispatched tool call.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusDeclined  Status = "declined"
)

// ExecutionRecord tracks one dispatched tool call. A record never leaves
// a terminal state: a block with the same fingerprint seen again is a
// no-op.
type ExecutionRecord struct {
	ID          string
	Fingerprint string
	Tool        string
	Status      Status
	Result      string
	Err         string
}

// State holds the per-turn dedup bookkeeping. It is created when an
// assistant turn starts and discarded once the turn's follow-up has been
// produced; nothing in it is shared across conversations.
type State struct {
	mu sync.Mutex

	// records maps block fingerprint to its execution record.
	records map[string]*ExecutionRecord
	order   []*ExecutionRecord

	// memoryWrites dedups auto-dispatched memory writes by content
	// equality: identical content is suppressed, distinct content from a
	// later parse of a longer buffer re-dispatches.
	memoryWrites map[string]struct{}

	// taskFetches dedups auto-dispatched task queries by their composite
	// filter key.
	taskFetches map[string]struct{}

	// busy guards against two overlapping sequencer runs being spawned
	// by rapid successive parse passes.
	busy bool

	// pending holds the most recent parse pass that arrived while busy
	// was set. The in-flight run re-observes it after settling, so blocks
	// from a stream's final delta still execute.
	pending []parser.Block

	wg sync.WaitGroup
}

// NewState creates empty per-turn state.
func NewState() *State {
	return &State{
		records:      make(map[string]*ExecutionRecord),
		memoryWrites: make(map[string]struct{}),
		taskFetches:  make(map[string]struct{}),
	}
}

// Records returns a snapshot of all execution records in dispatch order.
func (s *State) Records() []ExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExecutionRecord, 0, len(s.order))
	for _, r := range s.order {
		out = append(out, *r)
	}
	return out
}

// Busy reports whether a sequencer run is in flight.
func (s *State) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Wait blocks until every in-flight dispatch spawned against this state
// has settled. Turn teardown and tests use it.
func (s *State) Wait() {
	s.wg.Wait()
}

func (s *State) setStatus(r *ExecutionRecord, st Status) {
	s.mu.Lock()
	r.Status = st
	s.mu.Unlock()
}

func (s *State) finish(r *ExecutionRecord, st Status, result, errMsg string) {
	s.mu.Lock()
	r.Status = st
	r.Result = result
	r.Err = errMsg
	s.mu.Unlock()
}
