// Package rpcfake provides hand-written, in-memory implementations of
// model.ClientProtocol and model.MasterProtocol for tests. The teacher repo
// ships no tests of its own and therefore no fake/mock convention to follow;
// this package follows the plain stdlib-testing idiom used elsewhere in the
// pack (nmxmxh-master-ovasabi's hand-declared MockHealthCheck/MockLogger/
// MockService structs) rather than pulling in a mocking framework for a
// handful of narrow interfaces.
package rpcfake

import (
	"context"
	"sync"

	"github.com/nodeforge/uamclient/internal/model"
)

// Client is a scriptable fake model.ClientProtocol. Each field holds the
// next response(s) to return; Reports is consumed in order (one entry per
// GetApplicationReport call) so a test can simulate polling through several
// states before the application is accepted.
type Client struct {
	mu sync.Mutex

	SubmitErr error

	Reports    []model.ApplicationReport
	ReportErr  error
	reportIdx  int

	AttemptReports []model.AttemptReport
	AttemptErr     error
	attemptIdx     int

	KillResp model.KillResponse
	KillErr  error

	Submissions []model.SubmissionContext
}

func (c *Client) SubmitApplication(_ context.Context, submission model.SubmissionContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Submissions = append(c.Submissions, submission)
	return c.SubmitErr
}

func (c *Client) GetApplicationReport(_ context.Context, _ model.ApplicationID) (model.ApplicationReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ReportErr != nil {
		return model.ApplicationReport{}, c.ReportErr
	}
	if len(c.Reports) == 0 {
		return model.ApplicationReport{}, nil
	}
	idx := c.reportIdx
	if idx >= len(c.Reports) {
		idx = len(c.Reports) - 1
	} else {
		c.reportIdx++
	}
	return c.Reports[idx], nil
}

func (c *Client) GetApplicationAttemptReport(_ context.Context, _ model.AttemptID) (model.AttemptReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.AttemptErr != nil {
		return model.AttemptReport{}, c.AttemptErr
	}
	if len(c.AttemptReports) == 0 {
		return model.AttemptReport{}, nil
	}
	idx := c.attemptIdx
	if idx >= len(c.AttemptReports) {
		idx = len(c.AttemptReports) - 1
	} else {
		c.attemptIdx++
	}
	return c.AttemptReports[idx], nil
}

func (c *Client) ForceKillApplication(_ context.Context, _ model.ApplicationID) (model.KillResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.KillResp, c.KillErr
}

// Master is a scriptable fake model.MasterProtocol. AllocateFunc, when set,
// overrides AllocateResp/AllocateErr — useful for tests that
// need Allocate to fail exactly once (a session-lost condition) and succeed
// on retry.
type Master struct {
	mu sync.Mutex

	RegisterResp model.RegisterResponse
	RegisterErr  error
	RegisterCalls []model.RegisterRequest

	AllocateResp  model.AllocateResponse
	AllocateErr   error
	AllocateFunc  func(req model.AllocateRequest) (model.AllocateResponse, error)
	AllocateCalls []model.AllocateRequest

	FinishResp model.FinishResponse
	FinishErr  error
}

func (m *Master) RegisterApplicationMaster(_ context.Context, req model.RegisterRequest) (model.RegisterResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RegisterCalls = append(m.RegisterCalls, req)
	return m.RegisterResp, m.RegisterErr
}

func (m *Master) Allocate(_ context.Context, req model.AllocateRequest) (model.AllocateResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AllocateCalls = append(m.AllocateCalls, req)
	if m.AllocateFunc != nil {
		return m.AllocateFunc(req)
	}
	return m.AllocateResp, m.AllocateErr
}

func (m *Master) FinishApplicationMaster(_ context.Context, _ model.FinishRequest) (model.FinishResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FinishResp, m.FinishErr
}

// FailNTimes returns an AllocateFunc that fails with err for the first n
// calls (counting from zero) and succeeds with resp afterward — the shape a
// session-lost-then-recovered scenario needs.
func FailNTimes(n int, err error, resp model.AllocateResponse) func(model.AllocateRequest) (model.AllocateResponse, error) {
	calls := 0
	return func(model.AllocateRequest) (model.AllocateResponse, error) {
		if calls < n {
			calls++
			return model.AllocateResponse{}, err
		}
		return resp, nil
	}
}
