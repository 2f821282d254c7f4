package rpcproxy

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/nodeforge/uamclient/internal/model"
)

// tokenMetadataKey is the gRPC metadata key the AMRM token is attached
// under on every master-protocol call, the direct analogue of the
// teacher's "agent-secret" metadata pair in connection.Manager.connect.
const tokenMetadataKey = "amrm-token"

// Dial opens an insecure grpc.ClientConn to addr. Production callers that
// need TLS or a custom dialer should build their own *grpc.ClientConn and
// use NewClientProxy/NewMasterProxy directly instead of Dial.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("rpcproxy: dial %s: %w", addr, err)
	}
	return conn, nil
}

// clientProxy implements model.ClientProtocol ("RPC surface A") over conn.
type clientProxy struct {
	conn      *grpc.ClientConn
	principal model.Principal
}

// NewClientProxy builds a model.ClientProxyFactory bound to conn. Use as:
//
//	uam.New(cfg, appID, queue, user, suffix,
//	    rpcproxy.NewClientProxy(conn), rpcproxy.NewMasterProxy(conn), logger)
func NewClientProxy(conn *grpc.ClientConn) model.ClientProxyFactory {
	return func(ctx context.Context, principal model.Principal) (model.ClientProtocol, error) {
		return &clientProxy{conn: conn, principal: principal}, nil
	}
}

func (p *clientProxy) invoke(ctx context.Context, method string, req, reply any) error {
	err := p.conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype(codecName))
	if err != nil {
		return fmt.Errorf("rpcproxy: %s: %w", method, err)
	}
	return nil
}

func (p *clientProxy) SubmitApplication(ctx context.Context, submission model.SubmissionContext) error {
	var reply struct{}
	return p.invoke(ctx, "/uam.ClientProtocol/SubmitApplication", &submission, &reply)
}

func (p *clientProxy) GetApplicationReport(ctx context.Context, id model.ApplicationID) (model.ApplicationReport, error) {
	req := struct {
		ApplicationID model.ApplicationID
	}{ApplicationID: id}
	var reply model.ApplicationReport
	if err := p.invoke(ctx, "/uam.ClientProtocol/GetApplicationReport", &req, &reply); err != nil {
		return model.ApplicationReport{}, err
	}
	return reply, nil
}

func (p *clientProxy) GetApplicationAttemptReport(ctx context.Context, id model.AttemptID) (model.AttemptReport, error) {
	req := struct {
		AttemptID model.AttemptID
	}{AttemptID: id}
	var reply model.AttemptReport
	if err := p.invoke(ctx, "/uam.ClientProtocol/GetApplicationAttemptReport", &req, &reply); err != nil {
		return model.AttemptReport{}, err
	}
	return reply, nil
}

func (p *clientProxy) ForceKillApplication(ctx context.Context, id model.ApplicationID) (model.KillResponse, error) {
	req := struct {
		ApplicationID model.ApplicationID
	}{ApplicationID: id}
	var reply model.KillResponse
	if err := p.invoke(ctx, "/uam.ClientProtocol/ForceKillApplication", &req, &reply); err != nil {
		return model.KillResponse{}, err
	}
	return reply, nil
}

// masterProxy implements model.MasterProtocol ("RPC surface B") over conn.
// It reads creds on every call so a token rotation observed on an earlier
// Allocate response is honored by the very next RPC without recreating the
// proxy (spec.md §4.D step 6).
type masterProxy struct {
	conn      *grpc.ClientConn
	principal model.Principal
	creds     *model.CredentialStore
}

// NewMasterProxy builds a model.MasterProxyFactory bound to conn.
func NewMasterProxy(conn *grpc.ClientConn) model.MasterProxyFactory {
	return func(ctx context.Context, principal model.Principal, creds *model.CredentialStore) (model.MasterProtocol, error) {
		return &masterProxy{conn: conn, principal: principal, creds: creds}, nil
	}
}

func (p *masterProxy) invoke(ctx context.Context, method string, req, reply any) error {
	token := p.creds.Get()
	ctx = metadata.AppendToOutgoingContext(ctx, tokenMetadataKey, string(token.Material))
	err := p.conn.Invoke(ctx, method, req, reply, grpc.CallContentSubtype(codecName))
	if err != nil {
		return fmt.Errorf("rpcproxy: %s: %w", method, err)
	}
	return nil
}

func (p *masterProxy) RegisterApplicationMaster(ctx context.Context, req model.RegisterRequest) (model.RegisterResponse, error) {
	var reply model.RegisterResponse
	if err := p.invoke(ctx, "/uam.MasterProtocol/RegisterApplicationMaster", &req, &reply); err != nil {
		return model.RegisterResponse{}, err
	}
	return reply, nil
}

func (p *masterProxy) Allocate(ctx context.Context, req model.AllocateRequest) (model.AllocateResponse, error) {
	var reply model.AllocateResponse
	if err := p.invoke(ctx, "/uam.MasterProtocol/Allocate", &req, &reply); err != nil {
		return model.AllocateResponse{}, err
	}
	return reply, nil
}

func (p *masterProxy) FinishApplicationMaster(ctx context.Context, req model.FinishRequest) (model.FinishResponse, error) {
	var reply model.FinishResponse
	if err := p.invoke(ctx, "/uam.MasterProtocol/FinishApplicationMaster", &req, &reply); err != nil {
		return model.FinishResponse{}, err
	}
	return reply, nil
}
