package model

import (
	"context"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// ApplicationState mirrors the CRM's coarse application lifecycle states
// (spec.md §4.B). Only ACCEPTED is an acceptable "still in the first
// attempt's window" state for a UAM; RUNNING/FAILED/FINISHED/KILLED mean a
// later attempt is already in play.
type ApplicationState int

const (
	ApplicationStateUnknown ApplicationState = iota
	ApplicationStateAccepted
	ApplicationStateRunning
	ApplicationStateFailed
	ApplicationStateFinished
	ApplicationStateKilled
)

// AttemptState mirrors the CRM's per-attempt lifecycle states. LAUNCHED is
// the only target state the Attempt Monitor polls for.
type AttemptState int

const (
	AttemptStateUnknown AttemptState = iota
	AttemptStateSubmitted
	AttemptStateLaunched
	AttemptStateRunning
	AttemptStateFinished
	AttemptStateFailed
	AttemptStateKilled
)

// Resource is the minimal, non-negotiated resource ask a UAM submission
// carries (spec.md §4.A step 2, §6): 1024 MiB / 1 vCPU.
type Resource struct {
	MemoryMB int64
	VCores   int32
}

// DefaultResource is the fixed resource ask every UAM submission uses.
var DefaultResource = Resource{MemoryMB: 1024, VCores: 1}

// SubmissionContext is built by the controller and submitted via
// ClientProtocol.SubmitApplication (spec.md §4.A step 2, §6).
type SubmissionContext struct {
	ApplicationID   ApplicationID
	ApplicationName string
	Queue           string
	Resource        Resource
	// AMContainerSpec is intentionally empty for a UAM — the CRM never
	// launches a container for it.
	AMContainerSpec []byte
	Unmanaged       bool
}

// ApplicationReport is returned by ClientProtocol.GetApplicationReport.
type ApplicationReport struct {
	State             ApplicationState
	CurrentAttemptID  *AttemptID
	AMRMToken         *AMRMToken
}

// AttemptReport is returned by ClientProtocol.GetApplicationAttemptReport.
type AttemptReport struct {
	AttemptID  AttemptID
	State      AttemptState
	ObservedAt *timestamppb.Timestamp
}

// KillResponse is returned by ClientProtocol.ForceKillApplication.
type KillResponse struct {
	Accepted bool
}

// RegisterRequest is the caller-supplied registration payload, stashed
// verbatim by the controller so the reregister helper can replay it
// (spec.md §3 invariant 1).
type RegisterRequest struct {
	Host         string
	Port         int32
	TrackingURL  string
}

// RegisterResponse is returned by MasterProtocol.RegisterApplicationMaster.
type RegisterResponse struct {
	MaxCapability Resource
	QueueName     string
}

// AllocateRequest carries the monotonic ResponseID the CRM uses to detect
// resends and deliver only the delta (spec.md §4.D step 3).
type AllocateRequest struct {
	ResponseID  int32
	Ask         []Resource
	ReleaseIDs  []string
}

// AllocateResponse is returned by MasterProtocol.Allocate. RefreshedToken is
// non-nil only when the CRM rotated the AMRM token on this call.
type AllocateResponse struct {
	ResponseID         int32
	AllocatedContainers []string
	RefreshedToken      *AMRMToken
}

// FinishRequest is the caller-supplied payload for MasterProtocol.FinishApplicationMaster.
type FinishRequest struct {
	FinalStatus string
	Diagnostics string
}

// FinishResponse is returned by both a real FinishApplicationMaster call and
// the controller's synthetic in-flight-registration response
// (spec.md §4.A finish step 2).
type FinishResponse struct {
	Unregistered bool
}

// ClientProtocol is "RPC surface A" (spec.md §6): the submitter-principal
// endpoint used before an attempt has a registered master.
type ClientProtocol interface {
	SubmitApplication(ctx context.Context, submission SubmissionContext) error
	GetApplicationReport(ctx context.Context, id ApplicationID) (ApplicationReport, error)
	GetApplicationAttemptReport(ctx context.Context, id AttemptID) (AttemptReport, error)
	ForceKillApplication(ctx context.Context, id ApplicationID) (KillResponse, error)
}

// MasterProtocol is "RPC surface B" (spec.md §6): the attempt-proxy
// principal + AMRM token endpoint used after registration.
type MasterProtocol interface {
	RegisterApplicationMaster(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	Allocate(ctx context.Context, req AllocateRequest) (AllocateResponse, error)
	FinishApplicationMaster(ctx context.Context, req FinishRequest) (FinishResponse, error)
}

// Protocol names the two RPC surfaces. The controller's "protected seam"
// (spec.md §4.A Extension hook) is split into one factory per surface
// (ClientProxyFactory, MasterProxyFactory), neither of which takes a Protocol.
type Protocol int

const (
	ProtocolClient Protocol = iota
	ProtocolMaster
)

// ClientProxyFactory constructs a ClientProtocol bound to principal (no
// token — the client protocol is authenticated by the submitter's own
// credentials, supplied out of band by the caller's RPC layer).
type ClientProxyFactory func(ctx context.Context, principal Principal) (ClientProtocol, error)

// MasterProxyFactory constructs a MasterProtocol bound to principal and a
// credential store. The returned proxy must read the store on every call
// (not just at construction) so a token rotation observed on an allocate
// response takes effect without recreating the proxy. Called once, inside
// Controller.CreateAndRegister.
type MasterProxyFactory func(ctx context.Context, principal Principal, creds *CredentialStore) (MasterProtocol, error)
