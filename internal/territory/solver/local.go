package solver

import (
	"context"
	"time"
)

// LocalSolver is the in-process solver tried first for small models
// (§4.7 step 1). It runs the shared greedy assignment core within the
// caller's context and budget.
type LocalSolver struct{}

var _ Solve = (*LocalSolver)(nil)

// NewLocalSolver constructs the in-process solver.
func NewLocalSolver() *LocalSolver { return &LocalSolver{} }

func (s *LocalSolver) Solve(ctx context.Context, lpText string, budget time.Duration) (Solution, error) {
	start := time.Now()
	pm := parseLP(lpText)

	select {
	case <-ctx.Done():
		return Solution{Status: StatusError}, ctx.Err()
	default:
	}

	sol := greedySolve(pm)
	sol.SolveTimeMs = time.Since(start).Milliseconds()
	return sol, nil
}
