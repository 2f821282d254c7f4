// Package queue implements the Request Queue (spec.md §4.C): a FIFO,
// thread-safe, blocking-on-take, effectively unbounded buffer of pending
// allocate requests and their completion callbacks.
//
// Modeled on the teacher's executor.Executor queue (agent/internal/executor),
// but unbounded rather than capacity-16 — spec.md §3 invariant 5 requires
// allocate_async to never drop a request, even before a proxy exists, so
// there is no queueSize limit here the way the teacher's job queue has one.
package queue

import (
	"sync"

	"github.com/nodeforge/uamclient/internal/model"
)

// Queue is a FIFO of model.QueuedRequest. The zero value is not usable;
// create instances with New.
type Queue struct {
	mu      sync.Mutex
	items   []model.QueuedRequest
	notEmpty chan struct{}
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{notEmpty: make(chan struct{}, 1)}
}

// Push appends item to the tail of the queue. Never blocks.
func (q *Queue) Push(item model.QueuedRequest) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
}

// Take blocks until an item is available or done is closed, then pops and
// returns the head of the queue in FIFO order. The bool result is false only
// when done was closed before an item arrived.
func (q *Queue) Take(done <-chan struct{}) (model.QueuedRequest, bool) {
	for {
		if item, ok := q.tryPop(); ok {
			return item, true
		}
		select {
		case <-q.notEmpty:
			continue
		case <-done:
			return model.QueuedRequest{}, false
		}
	}
}

func (q *Queue) tryPop() (model.QueuedRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return model.QueuedRequest{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len reports the current queue depth — exposed for
// Controller.PendingRequestCount (spec.md §4.A Accessors).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
