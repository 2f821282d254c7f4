// Package heartbeat implements the Heartbeat Worker (spec.md §4.D): the
// single background goroutine that drains the request queue, issues
// allocate RPCs (through the reregister helper), tracks the rolling
// response id, and applies refreshed AMRM tokens.
//
// Modeled directly on the teacher's connection.Manager: a dedicated
// goroutine with a context-based stop signal (here: done channel +
// keepRunning flag, since the queue's blocking Take already needs a
// cancellation channel — ctx.Done() would work just as well but spec.md §9
// Design Notes asks for "a stop flag plus channel close... no reliance on
// thread-interrupt semantics", which this mirrors exactly), an
// uncaught-panic reporter analogous to the teacher's errCh-fed goroutines
// in connection.Manager.connect, and per-iteration error handling that logs
// and continues rather than killing the loop (spec.md §4.D "Failure
// handling inside the loop").
package heartbeat

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nodeforge/uamclient/internal/model"
	"github.com/nodeforge/uamclient/internal/queue"
	"github.com/nodeforge/uamclient/internal/reregister"
)

// Worker drains q and issues allocate RPCs against proxy until Stop is
// called. The zero value is not usable; create with New.
type Worker struct {
	q      *queue.Queue
	proxy  model.MasterProtocol
	creds  *model.CredentialStore
	registerReq model.RegisterRequest
	register    func(ctx context.Context, req model.RegisterRequest) (model.RegisterResponse, error)
	attemptID   model.AttemptID
	logger      *zap.Logger

	lastResponseID atomic.Int32

	mu          sync.Mutex
	keepRunning bool
	done        chan struct{}
	stopped     chan struct{}
}

// New creates a Worker. registerReq is the payload reregister.Do replays on
// session loss; register is bound to the same proxy as a closure so Worker
// never needs to know how to construct a MasterProtocol itself.
func New(
	q *queue.Queue,
	proxy model.MasterProtocol,
	creds *model.CredentialStore,
	attemptID model.AttemptID,
	registerReq model.RegisterRequest,
	logger *zap.Logger,
) *Worker {
	w := &Worker{
		q:           q,
		proxy:       proxy,
		creds:       creds,
		registerReq: registerReq,
		attemptID:   attemptID,
		logger:      logger.Named("uam.heartbeat"),
		keepRunning: true,
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	w.register = func(ctx context.Context, req model.RegisterRequest) (model.RegisterResponse, error) {
		return proxy.RegisterApplicationMaster(ctx, req)
	}
	return w
}

// LastResponseID returns the most recently observed response id. Read-only
// from outside the worker goroutine (spec.md §3 invariant 4).
func (w *Worker) LastResponseID() int32 {
	return w.lastResponseID.Load()
}

// Run drains the queue and processes items until Stop is called. It never
// returns on a single bad iteration — only Stop ends the loop. Intended to
// be started as `go w.Run(ctx, onUncaught)`.
//
// onUncaught, if non-nil, is invoked if the loop exits because of an
// unrecoverable panic, mirroring spec.md §4.D's "uncaught-error reporter":
// observability only, never swallows the condition that caused it.
func (w *Worker) Run(ctx context.Context, onUncaught func(attemptID model.AttemptID, r any)) {
	defer close(w.stopped)
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("heartbeat worker panicked",
				zap.Stringer("attempt_id", w.attemptID),
				zap.Any("panic", r),
			)
			if onUncaught != nil {
				onUncaught(w.attemptID, r)
			}
		}
	}()

	for {
		item, ok := w.q.Take(w.done)
		if !ok {
			return
		}
		if !w.isRunning() {
			return
		}
		w.process(ctx, item)
	}
}

func (w *Worker) isRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.keepRunning
}

// process stamps the request's response id, issues the allocate RPC via the
// reregister helper, advances the response id and credential store on
// success, and always invokes the caller's callback last
// (spec.md §4.D steps 3-7).
func (w *Worker) process(ctx context.Context, item model.QueuedRequest) {
	item.Request.ResponseID = w.lastResponseID.Load()

	resp, err := reregister.Do(ctx, w.logger, w.registerReq, w.register,
		func(ctx context.Context) (model.AllocateResponse, error) {
			return w.proxy.Allocate(ctx, item.Request)
		},
	)
	if err != nil {
		w.logger.Warn("allocate RPC failed, item will not be retried",
			zap.Stringer("attempt_id", w.attemptID),
			zap.Error(err),
		)
		item.Callback(model.AllocateResponse{}, err)
		return
	}

	w.lastResponseID.Store(resp.ResponseID)
	if resp.RefreshedToken != nil {
		w.creds.Set(*resp.RefreshedToken)
	}

	item.Callback(resp, nil)
}

// Stop signals the loop to exit after finishing (or aborting) whatever item
// it is currently processing, and unblocks a pending Take. It does not wait
// for the goroutine to exit — callers that need that should wait on Stopped().
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.keepRunning {
		w.mu.Unlock()
		return
	}
	w.keepRunning = false
	w.mu.Unlock()
	close(w.done)
}

// Stopped returns a channel closed once Run has returned.
func (w *Worker) Stopped() <-chan struct{} {
	return w.stopped
}
