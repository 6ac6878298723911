// Package solver implements the solver dispatcher (C7): routing a
// rendered assignment model to an in-process solver, a remote MIP
// service, a secondary heuristic solver, or the waterfall fallback,
// based on problem size and availability (§4.7).
//
// No real MIP/LP library is available to this project, so the in-process
// and secondary solvers are hand-written greedy/local-search heuristics —
// see DESIGN.md for why. The remote client speaks the exact wire contract
// of §6.2 against a real external MIP service, so that boundary stays
// solver-agnostic.
package solver

import (
	"context"
	"time"
)

// Status is the closed set of solve outcomes (§4.7).
type Status string

const (
	StatusOptimal     Status = "Optimal"
	StatusTimeLimit   Status = "TimeLimit"
	StatusInfeasible  Status = "Infeasible"
	StatusUnbounded   Status = "Unbounded"
	StatusError       Status = "Error"
)

// Solution is a solver's result: which variables the solver set, and how.
type Solution struct {
	Status         Status
	ObjectiveValue float64
	Columns        map[string]float64 // variable name -> primal value
	SolveTimeMs    int64
}

// Solve is implemented by every solver strategy the dispatcher can route
// to. lpText is CPLEX-LP text rendered by internal/territory/model.
type Solve interface {
	Solve(ctx context.Context, lpText string, budget time.Duration) (Solution, error)
}
