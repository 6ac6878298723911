// Package scheduler runs the territory optimizer's one recurring job: a
// periodic full resolve, on the cron schedule the operator configures.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/territory"
)

// Solver is the subset of territory.Engine the periodic resolve job needs.
// Depending on the interface instead of the concrete engine keeps this
// package testable without building a full solve graph.
type Solver interface {
	Solve(ctx context.Context) (territory.SolveResult, error)
}

// ResolveJob runs one full territory resolve and logs its outcome. It never
// returns an error to the cron runner — a failed solve is logged and
// retried on the next scheduled tick rather than crashing the process.
type ResolveJob struct {
	log    zerolog.Logger
	solver Solver
	budget time.Duration
}

// ResolveJobConfig configures a ResolveJob.
type ResolveJobConfig struct {
	Log    zerolog.Logger
	Solver Solver
	Budget time.Duration // zero means no deadline beyond the solver's own
}

// NewResolveJob builds the periodic resolve job.
func NewResolveJob(cfg ResolveJobConfig) *ResolveJob {
	return &ResolveJob{
		log:    cfg.Log.With().Str("job", "periodic_resolve").Logger(),
		solver: cfg.Solver,
		budget: cfg.Budget,
	}
}

// Name returns the job name used in log lines and cron registration.
func (j *ResolveJob) Name() string {
	return "periodic_resolve"
}

// Run executes one resolve. It is the function registered with the cron
// scheduler and is safe to call directly in tests.
func (j *ResolveJob) Run() {
	if j.solver == nil {
		j.log.Warn().Msg("no solver configured, skipping periodic resolve")
		return
	}

	ctx := context.Background()
	if j.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.budget)
		defer cancel()
	}

	start := time.Now()
	result, err := j.solver.Solve(ctx)
	if err != nil {
		j.log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("periodic resolve failed")
		return
	}

	j.log.Info().
		Dur("elapsed", time.Since(start)).
		Str("run_id", result.RunID).
		Int("proposals", len(result.Proposals)).
		Int("unassigned", len(result.Unassigned)).
		Msg("periodic resolve completed")
}
