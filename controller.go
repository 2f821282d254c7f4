package uam

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nodeforge/uamclient/internal/heartbeat"
	"github.com/nodeforge/uamclient/internal/model"
	"github.com/nodeforge/uamclient/internal/monitor"
	"github.com/nodeforge/uamclient/internal/queue"
	"github.com/nodeforge/uamclient/internal/reregister"
)

// Controller is the UAM Controller (spec.md §4.A): the public API
// orchestrating submit → register → finish, and owner of all controller
// state. Construct with New; a Controller is used for exactly one
// submit/register/…/finish-or-force-kill lifecycle — there is no restart.
type Controller struct {
	config          Config
	applicationID   ApplicationID
	queueName       string
	submitterUser   string
	appNameSuffix   string
	newClientProxy  ClientProxyFactory
	newMasterProxy  MasterProxyFactory
	logger          *zap.Logger

	mu             sync.Mutex
	attemptID      *AttemptID
	proxyUser      Principal
	masterProxy    MasterProtocol
	creds          *CredentialStore
	registerReq    *RegisterRequest
	worker         *heartbeat.Worker
	clientProxy    ClientProtocol // lazily created for ForceKill; submitter principal

	q *queue.Queue
}

// New creates a Controller. applicationID and submitter must be non-empty
// (spec.md §4.A Construction); zero-valued config fields are replaced by
// their defaults (Config.WithDefaults). queueName may be blank —
// config.DefaultQueueName is used instead. clientProxy/masterProxy are the
// "protected seam" (spec.md §4.A Extension hook) tests use to inject mock
// RPC endpoints; production callers pass factories that dial a real CRM
// (see internal/rpcproxy for a gRPC-backed default).
func New(
	config Config,
	applicationID ApplicationID,
	queueName string,
	submitterUser string,
	appNameSuffix string,
	newClientProxy ClientProxyFactory,
	newMasterProxy MasterProxyFactory,
	logger *zap.Logger,
) (*Controller, error) {
	if applicationID == "" {
		return nil, InvalidArgumentErr("application id must not be empty")
	}
	if submitterUser == "" {
		return nil, InvalidArgumentErr("submitter user must not be empty")
	}
	if newClientProxy == nil || newMasterProxy == nil {
		return nil, InvalidArgumentErr("proxy factories must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		config:         config.WithDefaults(),
		applicationID:  applicationID,
		queueName:      queueName,
		submitterUser:  submitterUser,
		appNameSuffix:  appNameSuffix,
		newClientProxy: newClientProxy,
		newMasterProxy: newMasterProxy,
		logger:         logger.Named("uam"),
		q:              queue.New(),
	}, nil
}

// InvalidArgumentErr constructs the invalid-argument error kind
// (spec.md §7). Exported so callers of AllocateAsync can recognize the
// precondition failure reported for a nil request or callback.
func InvalidArgumentErr(msg string) *Error {
	return model.InvalidArgument(msg)
}

// CreateAndRegister submits the placeholder application, polls until the
// first attempt reaches LAUNCHED, registers as that attempt's master, and —
// only on success — starts the heartbeat worker (spec.md §4.A
// CreateAndRegister). It blocks for up to the configured attempt-launch
// timeout plus one synchronous register RPC (spec.md §5).
func (c *Controller) CreateAndRegister(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	// Stash immediately: this is what lets a concurrent AllocateAsync or
	// Finish observe "registration in flight" (spec.md §3 invariant 1).
	c.mu.Lock()
	c.registerReq = &req
	c.mu.Unlock()

	queueName := c.queueName
	if queueName == "" {
		queueName = c.config.DefaultQueueName
	}

	submitter := Principal{Name: c.submitterUser}
	clientProxy, err := c.newClientProxy(ctx, submitter)
	if err != nil {
		return RegisterResponse{}, model.RPCFailure("failed to create client protocol proxy", err)
	}

	submission := SubmissionContext{
		ApplicationID:   c.applicationID,
		ApplicationName: fmt.Sprintf("UnmanagedAM-%s", c.appNameSuffix),
		Queue:           queueName,
		Resource:        DefaultResource,
		AMContainerSpec: nil,
		Unmanaged:       true,
	}
	if err := clientProxy.SubmitApplication(ctx, submission); err != nil {
		return RegisterResponse{}, model.RPCFailure("submit_application failed", err)
	}
	c.logger.Info("application submitted", zap.String("application_id", string(c.applicationID)))

	mon := monitor.New(clientProxy, c.config.PollInterval, c.config.AttemptLaunchTimeout, c.logger)
	monResult, err := mon.WaitForAttempt(ctx, c.applicationID, AttemptStateLaunched)
	if err != nil {
		return RegisterResponse{}, err
	}

	attemptID := monResult.Attempt.AttemptID
	proxyUser := Principal{
		Name:      fmt.Sprintf("%s/%s", c.submitterUser, attemptID.String()),
		AttemptID: attemptID,
	}

	creds := model.NewCredentialStore(monResult.Token)

	masterProxy, err := c.newMasterProxy(ctx, proxyUser, creds)
	if err != nil {
		return RegisterResponse{}, model.CredentialFailure("failed to create master protocol proxy", err)
	}

	registerResp, err := masterProxy.RegisterApplicationMaster(ctx, req)
	if err != nil {
		return RegisterResponse{}, model.RPCFailure("register_application_master failed", err)
	}

	c.mu.Lock()
	c.attemptID = &attemptID
	c.proxyUser = proxyUser
	c.masterProxy = masterProxy
	c.creds = creds
	c.worker = heartbeat.New(c.q, masterProxy, creds, attemptID, req, c.logger)
	worker := c.worker
	c.mu.Unlock()

	go worker.Run(ctx, func(attemptID AttemptID, r any) {
		c.logger.Error("heartbeat worker terminated by an unrecoverable error",
			zap.Stringer("attempt_id", attemptID),
			zap.Any("panic", r),
		)
	})

	c.logger.Info("registered as application master",
		zap.Stringer("attempt_id", attemptID),
	)
	return registerResp, nil
}

// AllocateAsync enqueues req with callback (spec.md §4.A AllocateAsync).
// Enqueueing always succeeds, even before CreateAndRegister has completed
// (spec.md §3 invariant 5). It fails only for a nil callback (nothing is
// enqueued then) or when called before CreateAndRegister has even started
// (the request is still enqueued).
func (c *Controller) AllocateAsync(req AllocateRequest, callback Callback) error {
	if callback == nil {
		return InvalidArgumentErr("allocate_async callback must not be nil")
	}

	c.mu.Lock()
	hasProxy := c.masterProxy != nil
	hasRegisterReq := c.registerReq != nil
	c.mu.Unlock()

	c.q.Push(model.QueuedRequest{Request: req, Callback: callback})

	if hasProxy || hasRegisterReq {
		return nil
	}
	return model.NotRegistered("allocate_async must not be called before create_and_register")
}

// PendingRequestCount exposes the queue depth — a test/diagnostic accessor
// (spec.md §4.A Accessors).
func (c *Controller) PendingRequestCount() int {
	return c.q.Len()
}

// AttemptID returns the cached attempt id, or nil if registration has not
// completed yet (spec.md §4.A Accessors).
func (c *Controller) AttemptID() *AttemptID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attemptID
}

// ProxyUser returns the principal derived for the attempt's master proxy
// (spec.md §3 Controller state), or the zero Principal before registration
// completes.
func (c *Controller) ProxyUser() Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proxyUser
}

// Finish stops the heartbeat worker and calls finish_application_master
// through the reregister helper (spec.md §4.A Finish).
func (c *Controller) Finish(ctx context.Context, req FinishRequest) (FinishResponse, error) {
	c.stopWorker()

	c.mu.Lock()
	masterProxy := c.masterProxy
	registerReq := c.registerReq
	c.mu.Unlock()

	if masterProxy == nil {
		if registerReq != nil {
			c.logger.Warn("finish called while registration is still in flight on another goroutine")
			return FinishResponse{Unregistered: false}, nil
		}
		return FinishResponse{}, model.NotRegistered("finish called before create_and_register")
	}

	return reregister.Do(ctx, c.logger, *registerReq,
		func(ctx context.Context, r RegisterRequest) (RegisterResponse, error) {
			return masterProxy.RegisterApplicationMaster(ctx, r)
		},
		func(ctx context.Context) (FinishResponse, error) {
			return masterProxy.FinishApplicationMaster(ctx, req)
		},
	)
}

// ForceKill stops the heartbeat worker and calls force_kill_application on
// the client protocol, lazily creating an unauthenticated client proxy
// under the submitter principal if one does not already exist
// (spec.md §4.A ForceKill).
func (c *Controller) ForceKill(ctx context.Context) (KillResponse, error) {
	c.stopWorker()

	c.mu.Lock()
	clientProxy := c.clientProxy
	c.mu.Unlock()

	if clientProxy == nil {
		var err error
		clientProxy, err = c.newClientProxy(ctx, Principal{Name: c.submitterUser})
		if err != nil {
			return KillResponse{}, model.RPCFailure("failed to create client protocol proxy", err)
		}
		c.mu.Lock()
		c.clientProxy = clientProxy
		c.mu.Unlock()
	}

	resp, err := clientProxy.ForceKillApplication(ctx, c.applicationID)
	if err != nil {
		return KillResponse{}, model.RPCFailure("force_kill_application failed", err)
	}
	return resp, nil
}

func (c *Controller) stopWorker() {
	c.mu.Lock()
	w := c.worker
	c.mu.Unlock()
	if w != nil {
		w.Stop()
	}
}
