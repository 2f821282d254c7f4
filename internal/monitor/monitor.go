// Package monitor implements the Attempt Monitor (spec.md §4.B): polling a
// CRM's client-protocol endpoint until a submitted application's first
// attempt reaches a target state, and extracting the AM↔RM token along the
// way.
//
// The two-level check it performs — application state first, then attempt
// state — mirrors the teacher's own staged readiness checks in
// connection.Manager.connect (dial, then register, then start the loops):
// nothing downstream is queried until the thing it depends on exists.
package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nodeforge/uamclient/internal/model"
)

// Monitor polls a ClientProtocol until an attempt reaches a target state.
type Monitor struct {
	client       model.ClientProtocol
	pollInterval time.Duration
	timeout      time.Duration
	logger       *zap.Logger
}

// New creates a Monitor. If pollInterval >= timeout, the degenerate
// configuration spec.md §9 flags ("if the poll interval exceeds the
// timeout, the loop may observe no progress before timing out") is logged
// once here so it is observable instead of silent; behavior is otherwise
// preserved as-is, unclamped.
func New(client model.ClientProtocol, pollInterval, timeout time.Duration, logger *zap.Logger) *Monitor {
	m := &Monitor{
		client:       client,
		pollInterval: pollInterval,
		timeout:      timeout,
		logger:       logger.Named("uam.monitor"),
	}
	if pollInterval >= timeout {
		m.logger.Warn("poll interval is not smaller than the attempt-launch timeout; "+
			"the monitor may observe no progress before timing out",
			zap.Duration("poll_interval", pollInterval),
			zap.Duration("timeout", timeout),
		)
	}
	return m
}

// Result is what WaitForAttempt returns on success: the attempt report at
// the target state, plus whatever AMRM token was most recently observed on
// the application report while polling.
type Result struct {
	Attempt model.AttemptReport
	Token   model.AMRMToken
}

// WaitForAttempt polls id's application and then its first attempt until
// the attempt reaches target, or the configured timeout elapses
// (spec.md §4.B Algorithm).
func (m *Monitor) WaitForAttempt(ctx context.Context, id model.ApplicationID, target model.AttemptState) (Result, error) {
	start := time.Now()
	var attemptID *model.AttemptID
	var token model.AMRMToken

	for {
		if time.Since(start) > m.timeout {
			return Result{}, model.AttemptLaunchTimeout(
				"attempt did not reach target state within the configured timeout")
		}

		if attemptID == nil {
			report, err := m.client.GetApplicationReport(ctx, id)
			if err != nil {
				return Result{}, model.RPCFailure("get_application_report failed", err)
			}
			if report.AMRMToken != nil {
				token = *report.AMRMToken
			}

			switch report.State {
			case model.ApplicationStateAccepted:
				if report.CurrentAttemptID == nil {
					m.logger.Debug("application accepted but no attempt id yet, continuing to poll")
				} else {
					attemptID = report.CurrentAttemptID
					m.logger.Debug("application accepted", zap.Stringer("attempt_id", *attemptID))
				}
			case model.ApplicationStateRunning, model.ApplicationStateFailed,
				model.ApplicationStateFinished, model.ApplicationStateKilled:
				return Result{}, model.NotFirstAttempt(
					"application's first observed state was not ACCEPTED; a later attempt is already in play")
			default:
				m.logger.Debug("application not yet accepted, continuing to poll",
					zap.Int("state", int(report.State)))
			}
		}

		if attemptID != nil {
			attemptReport, err := m.client.GetApplicationAttemptReport(ctx, *attemptID)
			if err != nil {
				return Result{}, model.RPCFailure("get_application_attempt_report failed", err)
			}
			if attemptReport.State == target {
				return Result{Attempt: attemptReport, Token: token}, nil
			}
			m.logger.Debug("attempt not yet at target state, continuing to poll",
				zap.Int("state", int(attemptReport.State)))
		}

		if err := sleep(ctx, m.pollInterval); err != nil {
			// Interruption is informational: log and continue polling. The
			// overall timeout still applies — it shortens, not extends, the
			// waiting window (spec.md §9 Design Notes).
			m.logger.Debug("poll sleep interrupted, continuing", zap.Error(err))
		}
	}
}

// sleep waits for d or until ctx is done, reporting which happened.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
