package solver

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

// Thresholds configures the size-based routing of §4.7; zero value is
// invalid, use DefaultThresholds.
type Thresholds struct {
	LocalMaxVars            int
	SecondaryMaxVars        int
	LocalBudget             time.Duration
	RemoteBudget            time.Duration
	RemoteBudgetLarge       time.Duration
	RemoteBudgetLargeCutoff int
	SecondaryBudget         time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LocalMaxVars:            5_000,
		SecondaryMaxVars:        50_000,
		LocalBudget:             30 * time.Second,
		RemoteBudget:            120 * time.Second,
		RemoteBudgetLarge:       300 * time.Second,
		RemoteBudgetLargeCutoff: 50_000,
		SecondaryBudget:         120 * time.Second,
	}
}

// DefaultThresholdsForHardware scales LocalMaxVars with the host's logical
// core count: a greedy local solve over more variables is cheap per-core,
// so a machine with more cores can afford to keep larger models in-process
// rather than spending a remote-call quota slot on them. Falls back to
// DefaultThresholds' fixed value if core detection fails (e.g. inside a
// restricted container).
func DefaultThresholdsForHardware() Thresholds {
	t := DefaultThresholds()
	cores, err := cpu.Counts(true)
	if err != nil || cores <= 0 {
		return t
	}
	t.LocalMaxVars = 5_000 * cores
	if t.LocalMaxVars > t.SecondaryMaxVars {
		t.LocalMaxVars = t.SecondaryMaxVars
	}
	return t
}

// Dispatcher routes a rendered model through local, remote, and secondary
// solvers per §4.7, racing the in-process attempt against the remote one
// when both are eligible (§5).
type Dispatcher struct {
	local      Solve
	remote     Solve
	secondary  Solve
	thresholds Thresholds
	log        zerolog.Logger
}

// NewDispatcher wires the three solver strategies behind the size-based
// routing policy.
func NewDispatcher(local, remote, secondary Solve, thresholds Thresholds, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{local: local, remote: remote, secondary: secondary, thresholds: thresholds, log: log.With().Str("component", "solver_dispatcher").Logger()}
}

// Dispatch runs the dispatch strategy for one model. numVars is the
// binary variable count used for size routing.
func (d *Dispatcher) Dispatch(ctx context.Context, session *Session, lpText string, numVars int) (Solution, error) {
	d.log.Info().Int("vars", numVars).Msg("dispatching solve")

	if numVars >= d.thresholds.SecondaryMaxVars {
		d.log.Warn().Int("vars", numVars).Msg("model too large for any MIP strategy, falling back to waterfall heuristic")
		return Solution{Status: StatusError}, errTooLargeForMIP
	}

	if numVars < d.thresholds.LocalMaxVars && d.local != nil {
		sol, err := d.tryLocalThenRemote(ctx, session, lpText, numVars)
		if err == nil && sol.Status == StatusOptimal {
			return sol, nil
		}
		if err == nil && sol.Status != StatusError {
			return sol, nil
		}
	}

	if d.remote != nil && session.TryConsumeRemoteCall(time.Now()) {
		budget := d.thresholds.RemoteBudget
		if numVars >= d.thresholds.RemoteBudgetLargeCutoff {
			budget = d.thresholds.RemoteBudgetLarge
		}
		sol, err := d.remote.Solve(ctx, lpText, budget)
		if err == nil {
			d.log.Info().Str("status", string(sol.Status)).Msg("remote solve completed")
			return sol, nil
		}
		d.log.Warn().Err(err).Msg("remote solve failed, falling back to secondary")
	} else {
		d.log.Info().Msg("remote quota exhausted or unavailable, skipping to secondary")
	}

	if numVars < d.thresholds.SecondaryMaxVars && d.secondary != nil {
		sol, err := d.secondary.Solve(ctx, lpText, d.thresholds.SecondaryBudget)
		if err == nil {
			return sol, nil
		}
		d.log.Warn().Err(err).Msg("secondary solve failed")
	}

	return Solution{Status: StatusError}, errAllSolversFailed
}

// tryLocalThenRemote races the in-process solver against the remote one
// (§5): the first to return Optimal wins, the other is cancelled.
func (d *Dispatcher) tryLocalThenRemote(ctx context.Context, session *Session, lpText string, numVars int) (Solution, error) {
	if d.remote == nil || !session.TryConsumeRemoteCall(time.Now()) {
		return d.local.Solve(ctx, lpText, d.thresholds.LocalBudget)
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var localSol, remoteSol Solution
	g, gctx := errgroup.WithContext(raceCtx)
	g.Go(func() error {
		sol, err := d.local.Solve(gctx, lpText, d.thresholds.LocalBudget)
		localSol = sol
		if err == nil && sol.Status == StatusOptimal {
			cancel()
		}
		return err
	})
	g.Go(func() error {
		budget := d.thresholds.RemoteBudget
		if numVars >= d.thresholds.RemoteBudgetLargeCutoff {
			budget = d.thresholds.RemoteBudgetLarge
		}
		sol, err := d.remote.Solve(gctx, lpText, budget)
		remoteSol = sol
		if err == nil && sol.Status == StatusOptimal {
			cancel()
		}
		return err
	})
	_ = g.Wait()

	if localSol.Status == StatusOptimal {
		cancel()
		return localSol, nil
	}
	if remoteSol.Status == StatusOptimal {
		cancel()
		return remoteSol, nil
	}
	if localSol.Status != "" {
		return localSol, nil
	}
	return remoteSol, nil
}

var (
	errTooLargeForMIP   = dispatchError("model exceeds every MIP strategy's size threshold")
	errAllSolversFailed = dispatchError("all solver strategies failed or were unavailable")
)

type dispatchError string

func (e dispatchError) Error() string { return strings.TrimSpace(string(e)) }
