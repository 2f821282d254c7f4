package uam

import "github.com/nodeforge/uamclient/internal/model"

// Re-exported data model types (spec.md §3). These are plain aliases onto
// internal/model so callers outside this module never import an internal
// package directly, while the implementation packages (monitor, queue,
// heartbeat, reregister, rpcproxy) share exactly one definition of each type.

type (
	ApplicationID   = model.ApplicationID
	AttemptID       = model.AttemptID
	AMRMToken       = model.AMRMToken
	Principal       = model.Principal
	CredentialStore = model.CredentialStore

	ApplicationState = model.ApplicationState
	AttemptState     = model.AttemptState
	Resource         = model.Resource

	SubmissionContext = model.SubmissionContext
	ApplicationReport = model.ApplicationReport
	AttemptReport     = model.AttemptReport
	KillResponse      = model.KillResponse

	RegisterRequest  = model.RegisterRequest
	RegisterResponse = model.RegisterResponse
	AllocateRequest  = model.AllocateRequest
	AllocateResponse = model.AllocateResponse
	FinishRequest    = model.FinishRequest
	FinishResponse   = model.FinishResponse

	Callback           = model.Callback
	ClientProtocol     = model.ClientProtocol
	MasterProtocol     = model.MasterProtocol
	ClientProxyFactory = model.ClientProxyFactory
	MasterProxyFactory = model.MasterProxyFactory

	Config = model.Config

	ErrorKind = model.Kind
	Error     = model.Error
)

const (
	ApplicationStateUnknown  = model.ApplicationStateUnknown
	ApplicationStateAccepted = model.ApplicationStateAccepted
	ApplicationStateRunning  = model.ApplicationStateRunning
	ApplicationStateFailed   = model.ApplicationStateFailed
	ApplicationStateFinished = model.ApplicationStateFinished
	ApplicationStateKilled   = model.ApplicationStateKilled

	AttemptStateUnknown   = model.AttemptStateUnknown
	AttemptStateSubmitted = model.AttemptStateSubmitted
	AttemptStateLaunched  = model.AttemptStateLaunched
	AttemptStateRunning   = model.AttemptStateRunning
	AttemptStateFinished  = model.AttemptStateFinished
	AttemptStateFailed    = model.AttemptStateFailed
	AttemptStateKilled    = model.AttemptStateKilled

	KindInvalidArgument      = model.KindInvalidArgument
	KindNotRegistered        = model.KindNotRegistered
	KindNotFirstAttempt      = model.KindNotFirstAttempt
	KindAttemptLaunchTimeout = model.KindAttemptLaunchTimeout
	KindRPCFailure           = model.KindRPCFailure
	KindCredentialFailure    = model.KindCredentialFailure
)

// DefaultResource is the fixed 1024 MiB / 1 vCPU ask every UAM submission
// uses (spec.md §4.A step 2, §6).
var DefaultResource = model.DefaultResource
