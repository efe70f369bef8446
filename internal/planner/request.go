package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/talgya/cropplan/internal/plan"
)

// Solver adapts wire-level optimization requests to Run, applying the
// service's timeout policy.
type Solver struct {
	DefaultTimeout time.Duration
	MaxTimeout     time.Duration
	Workers        int
}

// Timeout resolves the effective solve budget for a request.
func (s *Solver) Timeout(req *plan.OptimizationRequest) time.Duration {
	d := s.DefaultTimeout
	if req.TimeoutMs > 0 {
		d = time.Duration(req.TimeoutMs) * time.Millisecond
	}
	if s.MaxTimeout > 0 && d > s.MaxTimeout {
		d = s.MaxTimeout
	}
	return d
}

// Solve validates, normalizes and runs one request. Infeasibility and
// timeouts come back in-band; the error return is reserved for
// cancellation (ErrCanceled) so callers can mark the job accordingly.
func (s *Solver) Solve(req *plan.OptimizationRequest, progress Progress) (*plan.OptimizationResult, error) {
	if req.Plan == nil {
		return errorResult("request carries no plan"), nil
	}
	if err := plan.Validate(req.Plan); err != nil {
		return errorResult(err.Error()), nil
	}

	p := plan.FromAPI(req.Plan)
	cfg := Config{
		Deadline: time.Now().Add(s.Timeout(req)),
		Workers:  s.Workers,
		Progress: progress,
	}

	res, err := Run(p, cfg)
	if err != nil {
		if errors.Is(err, ErrCanceled) {
			return nil, err
		}
		return errorResult(fmt.Sprintf("optimization failed: %v", err)), nil
	}
	return res, nil
}

func errorResult(msg string) *plan.OptimizationResult {
	return &plan.OptimizationResult{
		Status:   plan.ResultError,
		Solution: map[string]any{},
		Stats:    map[string]any{},
		Warnings: []string{msg},
	}
}
