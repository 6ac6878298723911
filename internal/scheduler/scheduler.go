package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler drives the periodic resolve job on a cron expression.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
	job  *ResolveJob
}

// New builds a Scheduler that will run job on the given cron expression
// (standard five-field syntax, e.g. "0 3 * * *") once Start is called.
func New(expr string, job *ResolveJob, log zerolog.Logger) (*Scheduler, error) {
	log = log.With().Str("component", "scheduler").Logger()

	c := cron.New()
	if _, err := c.AddFunc(expr, job.Run); err != nil {
		return nil, fmt.Errorf("invalid solve schedule %q: %w", expr, err)
	}

	return &Scheduler{cron: c, log: log, job: job}, nil
}

// Start begins running jobs in the background. It returns immediately.
func (s *Scheduler) Start() {
	s.log.Info().Str("job", s.job.Name()).Msg("scheduler starting")
	s.cron.Start()
}

// Stop waits for the running job, if any, to finish and stops future runs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}
