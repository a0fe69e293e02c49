// Package coordinator implements the Coordinator: the single shared
// ingress queue for triggers produced by any thread, the Callback
// registry they distribute into, and the fired-trigger history.
package coordinator

import (
	"context"
	"sync"

	"github.com/cloe-engine/cloe/internal/trigger"
)

// queue is a thread-safe FIFO of pending triggers. Any thread may
// Enqueue (the filesystem parser, the network handler, a model's
// scripting driver, or an action spawning another trigger); only the
// owning simulation thread Drains it, once per cycle, at STEP_END.
type queue struct {
	mu     sync.Mutex
	items  []trigger.Trigger
	closed bool
	signal chan struct{}
}

func newQueue() *queue {
	return &queue{signal: make(chan struct{}, 1)}
}

// Enqueue appends t and wakes up any Wait() caller.
func (q *queue) Enqueue(t trigger.Trigger) {
	q.mu.Lock()
	if !q.closed {
		q.items = append(q.items, t)
	}
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Drain removes and returns every currently queued trigger, in
// insertion order. Called once per cycle from STEP_END.
func (q *queue) Drain() []trigger.Trigger {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// Wait returns a channel that receives once new items may be available.
// Used by a network/model-driven ingestion loop that wants to block
// until there is something to drain, without polling.
func (q *queue) Wait() <-chan struct{} { return q.signal }

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// WaitForContext blocks until either the queue signals new items or ctx
// is cancelled, returning false in the latter case.
func WaitForContext(ctx context.Context, q *queue) bool {
	select {
	case <-q.Wait():
		return true
	case <-ctx.Done():
		return false
	}
}
