package uam

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nodeforge/uamclient/internal/model"
	"github.com/nodeforge/uamclient/internal/rpcfake"
)

func testConfig() Config {
	return Config{
		PollInterval:         time.Millisecond,
		AttemptLaunchTimeout: time.Second,
	}
}

func newTestProxies(attemptID AttemptID, token AMRMToken) (*rpcfake.Client, *rpcfake.Master, ClientProxyFactory, MasterProxyFactory) {
	client := &rpcfake.Client{
		Reports: []model.ApplicationReport{
			{State: ApplicationStateAccepted, CurrentAttemptID: &attemptID, AMRMToken: &token},
		},
		AttemptReports: []model.AttemptReport{
			{AttemptID: attemptID, State: AttemptStateLaunched},
		},
	}
	master := &rpcfake.Master{}

	newClient := func(context.Context, Principal) (ClientProtocol, error) { return client, nil }
	newMaster := func(context.Context, Principal, *CredentialStore) (MasterProtocol, error) { return master, nil }
	return client, master, newClient, newMaster
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	newClient := func(context.Context, Principal) (ClientProtocol, error) { return nil, nil }
	newMaster := func(context.Context, Principal, *CredentialStore) (MasterProtocol, error) { return nil, nil }

	if _, err := New(testConfig(), "", "q", "user", "s", newClient, newMaster, nil); err == nil {
		t.Fatal("New() with empty applicationID should fail")
	}
	if _, err := New(testConfig(), "app", "q", "", "s", newClient, newMaster, nil); err == nil {
		t.Fatal("New() with empty submitterUser should fail")
	}
	if _, err := New(testConfig(), "app", "q", "user", "s", nil, newMaster, nil); err == nil {
		t.Fatal("New() with nil clientProxy factory should fail")
	}
}

func TestCreateAndRegisterHappyPath(t *testing.T) {
	attemptID := AttemptID{ApplicationID: "app-1", AttemptNumber: 1}
	token := AMRMToken{Identifier: "k1", Material: []byte("secret")}
	client, master, newClient, newMaster := newTestProxies(attemptID, token)
	master.RegisterResp = RegisterResponse{QueueName: "default"}

	c, err := New(testConfig(), "app-1", "", "alice", "s1", newClient, newMaster, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := c.CreateAndRegister(context.Background(), RegisterRequest{Host: "h", Port: 1})
	if err != nil {
		t.Fatalf("CreateAndRegister() error = %v", err)
	}
	if resp.QueueName != "default" {
		t.Fatalf("resp.QueueName = %q, want %q", resp.QueueName, "default")
	}
	if len(client.Submissions) != 1 {
		t.Fatalf("Submissions = %d, want 1", len(client.Submissions))
	}
	if got := c.AttemptID(); got == nil || *got != attemptID {
		t.Fatalf("AttemptID() = %v, want %v", got, attemptID)
	}
	if got := c.ProxyUser(); got.AttemptID != attemptID {
		t.Fatalf("ProxyUser().AttemptID = %v, want %v", got.AttemptID, attemptID)
	}

	c.Finish(context.Background(), FinishRequest{FinalStatus: "SUCCEEDED"})
}

func TestAllocateAsyncBeforeRegisterFails(t *testing.T) {
	attemptID := AttemptID{ApplicationID: "app-2", AttemptNumber: 1}
	token := AMRMToken{}
	_, _, newClient, newMaster := newTestProxies(attemptID, token)

	c, err := New(testConfig(), "app-2", "", "bob", "s2", newClient, newMaster, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = c.AllocateAsync(AllocateRequest{}, func(AllocateResponse, error) {})
	if err == nil {
		t.Fatal("AllocateAsync() before CreateAndRegister should fail")
	}
	if c.PendingRequestCount() != 1 {
		t.Fatalf("PendingRequestCount() = %d, want 1 (request still enqueued despite the error)", c.PendingRequestCount())
	}
}

func TestAllocateAsyncNilCallback(t *testing.T) {
	attemptID := AttemptID{ApplicationID: "app-3", AttemptNumber: 1}
	_, _, newClient, newMaster := newTestProxies(attemptID, AMRMToken{})

	c, err := New(testConfig(), "app-3", "", "carol", "s3", newClient, newMaster, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.AllocateAsync(AllocateRequest{}, nil); err == nil {
		t.Fatal("AllocateAsync() with nil callback should fail")
	}
}

func TestAllocateAsyncAfterRegisterDelivers(t *testing.T) {
	attemptID := AttemptID{ApplicationID: "app-4", AttemptNumber: 1}
	token := AMRMToken{Identifier: "k1"}
	_, master, newClient, newMaster := newTestProxies(attemptID, token)
	master.AllocateResp = AllocateResponse{ResponseID: 1, AllocatedContainers: []string{"c1"}}

	c, err := New(testConfig(), "app-4", "", "dave", "s4", newClient, newMaster, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.CreateAndRegister(context.Background(), RegisterRequest{}); err != nil {
		t.Fatalf("CreateAndRegister() error = %v", err)
	}

	done := make(chan AllocateResponse, 1)
	if err := c.AllocateAsync(AllocateRequest{}, func(resp AllocateResponse, err error) {
		if err != nil {
			t.Errorf("allocate callback error = %v", err)
		}
		done <- resp
	}); err != nil {
		t.Fatalf("AllocateAsync() error = %v", err)
	}

	select {
	case resp := <-done:
		if len(resp.AllocatedContainers) != 1 {
			t.Fatalf("AllocatedContainers = %v, want 1 entry", resp.AllocatedContainers)
		}
	case <-time.After(time.Second):
		t.Fatal("allocate callback never invoked")
	}

	c.Finish(context.Background(), FinishRequest{})
}

func TestForceKillBeforeRegister(t *testing.T) {
	attemptID := AttemptID{ApplicationID: "app-5", AttemptNumber: 1}
	client, _, newClient, newMaster := newTestProxies(attemptID, AMRMToken{})
	client.KillResp = KillResponse{Accepted: true}

	c, err := New(testConfig(), "app-5", "", "erin", "s5", newClient, newMaster, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := c.ForceKill(context.Background())
	if err != nil {
		t.Fatalf("ForceKill() error = %v", err)
	}
	if !resp.Accepted {
		t.Fatal("ForceKill() resp.Accepted = false, want true")
	}
}

func TestFinishBeforeRegisterWithoutInFlightRegistration(t *testing.T) {
	attemptID := AttemptID{ApplicationID: "app-6", AttemptNumber: 1}
	_, _, newClient, newMaster := newTestProxies(attemptID, AMRMToken{})

	c, err := New(testConfig(), "app-6", "", "frank", "s6", newClient, newMaster, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Finish(context.Background(), FinishRequest{})
	if err == nil {
		t.Fatal("Finish() before CreateAndRegister should fail")
	}
}
