// Package reregister implements the Re-register Helper (spec.md §4.E): a
// policy shared by the heartbeat worker's allocate calls and the
// controller's finish call. If the underlying RPC fails because the CRM no
// longer recognizes the attempt, it transparently re-registers using the
// stashed register request and retries the original call exactly once.
//
// This mirrors the teacher's connection.Manager.Run outer reconnect loop in
// spirit (recover a broken session and resume) but is scoped to a single
// call-and-retry rather than an unbounded backoff loop — spec.md §4.E is
// explicit that any further failure after the one retry must surface to the
// caller, never silently swallowed.
package reregister

import (
	"context"

	"go.uber.org/zap"

	"github.com/nodeforge/uamclient/internal/model"
)

// Do calls op once. If op fails with a session-lost condition
// (model.IsSessionLost), it calls register with the stashed request, and on
// success retries op exactly once more. A failure of register itself, or a
// second session-lost failure of op, is returned as model.RPCFailure. Any
// other failure is returned as-is (wrapped as model.RPCFailure when it isn't
// already a *model.Error).
func Do[T any](
	ctx context.Context,
	logger *zap.Logger,
	registerReq model.RegisterRequest,
	register func(ctx context.Context, req model.RegisterRequest) (model.RegisterResponse, error),
	op func(ctx context.Context) (T, error),
) (T, error) {
	result, err := op(ctx)
	if err == nil {
		return result, nil
	}
	if !model.IsSessionLost(err) {
		return result, asRPCFailure(err)
	}

	logger.Debug("master RPC reported session loss, re-registering before retrying",
		zap.Error(err))

	if _, regErr := register(ctx, registerReq); regErr != nil {
		return result, model.RPCFailure("re-register after session loss failed", regErr)
	}

	result, err = op(ctx)
	if err != nil {
		if model.IsSessionLost(err) {
			return result, model.RPCFailure("retry after re-register failed", err)
		}
		return result, asRPCFailure(err)
	}
	return result, nil
}

func asRPCFailure(err error) error {
	if e, ok := err.(*model.Error); ok {
		return e
	}
	return model.RPCFailure("rpc call failed", err)
}
