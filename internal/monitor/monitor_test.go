package monitor

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nodeforge/uamclient/internal/model"
	"github.com/nodeforge/uamclient/internal/rpcfake"
)

func TestWaitForAttemptSucceedsOnFirstPoll(t *testing.T) {
	attemptID := model.AttemptID{ApplicationID: "app-1", AttemptNumber: 1}
	token := model.AMRMToken{Identifier: "k1", Material: []byte("secret")}

	client := &rpcfake.Client{
		Reports: []model.ApplicationReport{
			{State: model.ApplicationStateAccepted, CurrentAttemptID: &attemptID, AMRMToken: &token},
		},
		AttemptReports: []model.AttemptReport{
			{AttemptID: attemptID, State: model.AttemptStateLaunched},
		},
	}

	m := New(client, time.Millisecond, time.Second, zap.NewNop())
	result, err := m.WaitForAttempt(context.Background(), "app-1", model.AttemptStateLaunched)
	if err != nil {
		t.Fatalf("WaitForAttempt() error = %v", err)
	}
	if result.Attempt.State != model.AttemptStateLaunched {
		t.Fatalf("result.Attempt.State = %v, want Launched", result.Attempt.State)
	}
	if string(result.Token.Material) != "secret" {
		t.Fatalf("result.Token.Material = %q, want %q", result.Token.Material, "secret")
	}
}

func TestWaitForAttemptPollsThroughSubmitted(t *testing.T) {
	attemptID := model.AttemptID{ApplicationID: "app-2", AttemptNumber: 1}

	client := &rpcfake.Client{
		Reports: []model.ApplicationReport{
			{State: model.ApplicationStateUnknown},
			{State: model.ApplicationStateAccepted, CurrentAttemptID: &attemptID},
		},
		AttemptReports: []model.AttemptReport{
			{AttemptID: attemptID, State: model.AttemptStateSubmitted},
			{AttemptID: attemptID, State: model.AttemptStateLaunched},
		},
	}

	m := New(client, time.Millisecond, time.Second, zap.NewNop())
	result, err := m.WaitForAttempt(context.Background(), "app-2", model.AttemptStateLaunched)
	if err != nil {
		t.Fatalf("WaitForAttempt() error = %v", err)
	}
	if result.Attempt.State != model.AttemptStateLaunched {
		t.Fatalf("result.Attempt.State = %v, want Launched", result.Attempt.State)
	}
}

func TestWaitForAttemptNotFirstAttempt(t *testing.T) {
	client := &rpcfake.Client{
		Reports: []model.ApplicationReport{
			{State: model.ApplicationStateRunning},
		},
	}

	m := New(client, time.Millisecond, time.Second, zap.NewNop())
	_, err := m.WaitForAttempt(context.Background(), "app-3", model.AttemptStateLaunched)
	if err == nil {
		t.Fatal("WaitForAttempt() error = nil, want NotFirstAttempt")
	}
	var merr *model.Error
	if !errorsAs(err, &merr) || merr.Kind != model.KindNotFirstAttempt {
		t.Fatalf("WaitForAttempt() error = %v, want KindNotFirstAttempt", err)
	}
}

func TestWaitForAttemptTimesOut(t *testing.T) {
	client := &rpcfake.Client{
		Reports: []model.ApplicationReport{
			{State: model.ApplicationStateUnknown},
		},
	}

	m := New(client, 2*time.Millisecond, 10*time.Millisecond, zap.NewNop())
	_, err := m.WaitForAttempt(context.Background(), "app-4", model.AttemptStateLaunched)
	if err == nil {
		t.Fatal("WaitForAttempt() error = nil, want AttemptLaunchTimeout")
	}
	var merr *model.Error
	if !errorsAs(err, &merr) || merr.Kind != model.KindAttemptLaunchTimeout {
		t.Fatalf("WaitForAttempt() error = %v, want KindAttemptLaunchTimeout", err)
	}
}

func errorsAs(err error, target **model.Error) bool {
	e, ok := err.(*model.Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
