package reregister

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/nodeforge/uamclient/internal/model"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	op := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	register := func(context.Context, model.RegisterRequest) (model.RegisterResponse, error) {
		t.Fatal("register should not be called when op succeeds")
		return model.RegisterResponse{}, nil
	}

	got, err := Do(context.Background(), zap.NewNop(), model.RegisterRequest{}, register, op)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != 42 {
		t.Fatalf("Do() = %d, want 42", got)
	}
	if calls != 1 {
		t.Fatalf("op called %d times, want 1", calls)
	}
}

func TestDoReregistersOnSessionLoss(t *testing.T) {
	opCalls := 0
	op := func(context.Context) (int, error) {
		opCalls++
		if opCalls == 1 {
			return 0, model.SessionLost("attempt unknown to crm", nil)
		}
		return 99, nil
	}
	registerCalls := 0
	register := func(context.Context, model.RegisterRequest) (model.RegisterResponse, error) {
		registerCalls++
		return model.RegisterResponse{}, nil
	}

	got, err := Do(context.Background(), zap.NewNop(), model.RegisterRequest{}, register, op)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != 99 {
		t.Fatalf("Do() = %d, want 99", got)
	}
	if opCalls != 2 {
		t.Fatalf("op called %d times, want 2", opCalls)
	}
	if registerCalls != 1 {
		t.Fatalf("register called %d times, want 1", registerCalls)
	}
}

func TestDoDoesNotRetryNonSessionLossErrors(t *testing.T) {
	opCalls := 0
	sentinel := errors.New("boom")
	op := func(context.Context) (int, error) {
		opCalls++
		return 0, sentinel
	}
	register := func(context.Context, model.RegisterRequest) (model.RegisterResponse, error) {
		t.Fatal("register should not be called for a non-session-loss error")
		return model.RegisterResponse{}, nil
	}

	_, err := Do(context.Background(), zap.NewNop(), model.RegisterRequest{}, register, op)
	if err == nil {
		t.Fatal("Do() error = nil, want wrapped sentinel")
	}
	if opCalls != 1 {
		t.Fatalf("op called %d times, want 1", opCalls)
	}
}

func TestDoSurfacesSecondFailureAfterReregister(t *testing.T) {
	op := func(context.Context) (int, error) {
		return 0, model.SessionLost("attempt unknown to crm", nil)
	}
	register := func(context.Context, model.RegisterRequest) (model.RegisterResponse, error) {
		return model.RegisterResponse{}, nil
	}

	_, err := Do(context.Background(), zap.NewNop(), model.RegisterRequest{}, register, op)
	if err == nil {
		t.Fatal("Do() error = nil, want the second op failure surfaced")
	}
}

func TestDoSurfacesRegisterFailure(t *testing.T) {
	op := func(context.Context) (int, error) {
		return 0, model.SessionLost("attempt unknown to crm", nil)
	}
	registerErr := errors.New("register exploded")
	register := func(context.Context, model.RegisterRequest) (model.RegisterResponse, error) {
		return model.RegisterResponse{}, registerErr
	}

	_, err := Do(context.Background(), zap.NewNop(), model.RegisterRequest{}, register, op)
	if err == nil {
		t.Fatal("Do() error = nil, want register failure surfaced")
	}
	if !errors.Is(err, registerErr) {
		t.Fatalf("Do() error = %v, want wrapping %v", err, registerErr)
	}
}
