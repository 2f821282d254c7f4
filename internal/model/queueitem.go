package model

// Callback is invoked by the heartbeat worker once an allocate RPC for the
// associated request completes (or fails without a retry left — see
// spec.md §4.D). It runs on the worker goroutine: callers must not block
// inside it or they stall the heartbeat loop (spec.md §5 Ordering).
type Callback func(resp AllocateResponse, err error)

// QueuedRequest is the plain value record the request queue holds — the
// Go analogue of spec.md §3's "nested inner class for queue item": a single
// value type owned by the controller, not a language-level inner class.
type QueuedRequest struct {
	Request  AllocateRequest
	Callback Callback
}
