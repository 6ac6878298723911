// Package territory orchestrates a single territory-assignment solve:
// validating configuration, applying stability locks, dispatching to
// whichever engine the configuration selects, and reporting the result
// through the metrics calculator. Everything it touches is a pure value
// or an injected collaborator — no package-level mutable state.
package territory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/events"
	"github.com/aristath/sentinel/internal/territory/locks"
	"github.com/aristath/sentinel/internal/territory/metrics"
	"github.com/aristath/sentinel/internal/territory/model"
	"github.com/aristath/sentinel/internal/territory/rationale"
	"github.com/aristath/sentinel/internal/territory/relaxed"
	"github.com/aristath/sentinel/internal/territory/scoring"
	"github.com/aristath/sentinel/internal/territory/solver"
	"github.com/aristath/sentinel/internal/territory/waterfall"
	"github.com/aristath/sentinel/internal/territory/weights"
)

// SolveResult is the full outcome of one solve, ready for the sink and
// for the HTTP/observability layer to report.
type SolveResult struct {
	RunID       string
	Proposals   []domain.Proposal
	Unassigned  []domain.UnassignedAccount
	Metrics     metrics.Result
	Warnings    []string
	SolveTimeMs int64
}

// ScoringConfig bundles the per-axis sub-score constants that sit below
// Configuration in the object graph (§4.3) — operators tune these far
// less often than the per-solve policy flags, so the Engine owns them as
// fixed construction-time parameters rather than part of Configuration.
type ScoringConfig struct {
	Geography     scoring.GeographyParams
	Continuity    scoring.ContinuityParams
	TeamAlignment scoring.TeamAlignmentParams
	Waterfall     waterfall.Thresholds
	Rationale     rationale.Params
	Metrics       metrics.Params
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Geography:     scoring.DefaultGeographyParams(),
		Continuity:    scoring.DefaultContinuityParams(),
		TeamAlignment: scoring.DefaultTeamAlignmentParams(),
		Waterfall:     waterfall.DefaultThresholds(),
		Rationale:     rationale.DefaultParams(),
		Metrics:       metrics.DefaultParams(),
	}
}

// Engine wires every component package into a single runnable solve.
type Engine struct {
	reader  domain.SnapshotReader
	sink    domain.ProposalSink
	scoring ScoringConfig

	dispatcher *solver.Dispatcher
	session    *solver.Session
	events     *events.Manager

	now func() time.Time
	log zerolog.Logger
}

// NewEngine constructs an Engine. dispatcher and session are long-lived
// (the session carries the daily remote-call quota across solves); the
// reader and sink are the only per-call I/O boundary. events may be nil,
// in which case Solve runs without emitting stage-boundary notifications.
func NewEngine(reader domain.SnapshotReader, sink domain.ProposalSink, dispatcher *solver.Dispatcher, session *solver.Session, scoring ScoringConfig, eventMgr *events.Manager, log zerolog.Logger) *Engine {
	return &Engine{
		reader:     reader,
		sink:       sink,
		scoring:    scoring,
		dispatcher: dispatcher,
		session:    session,
		events:     eventMgr,
		now:        time.Now,
		log:        log.With().Str("component", "territory_engine").Logger(),
	}
}

// Solve runs one full solve end to end: load, validate, lock, dispatch,
// score, and hand off to the sink.
func (e *Engine) Solve(ctx context.Context) (SolveResult, error) {
	start := e.now()
	runID := uuid.NewString()

	e.emit(events.SolveStarted, runID, nil)

	accounts, err := e.reader.LoadAccounts(ctx)
	if err != nil {
		e.emit(events.SolveFailed, runID, map[string]interface{}{"stage": "load_accounts", "error": err.Error()})
		return SolveResult{}, fmt.Errorf("load accounts: %w", err)
	}
	reps, err := e.reader.LoadReps(ctx)
	if err != nil {
		e.emit(events.SolveFailed, runID, map[string]interface{}{"stage": "load_reps", "error": err.Error()})
		return SolveResult{}, fmt.Errorf("load reps: %w", err)
	}
	cfg, err := e.reader.LoadConfiguration(ctx)
	if err != nil {
		e.emit(events.SolveFailed, runID, map[string]interface{}{"stage": "load_configuration", "error": err.Error()})
		return SolveResult{}, fmt.Errorf("load configuration: %w", err)
	}
	e.emit(events.SolveStageCompleted, runID, map[string]interface{}{"stage": "load", "accounts": len(accounts), "reps": len(reps)})

	if err := validateConfiguration(cfg); err != nil {
		e.emit(events.SolveFailed, runID, map[string]interface{}{"stage": "validate", "error": err.Error()})
		return SolveResult{}, err
	}
	if err := validateInputs(accounts, reps); err != nil {
		e.emit(events.SolveFailed, runID, map[string]interface{}{"stage": "validate", "error": err.Error()})
		return SolveResult{}, err
	}

	cfg = normalizeWeights(cfg)

	now := e.now()
	nowFunc := func() int64 { return now.Unix() }

	modelParams := model.Params{
		TerritoryMappings: cfg.TerritoryMappings,
		CustomerWeights:   toModelWeights(cfg.ObjectiveWeights.Customers),
		ProspectWeights:   toModelWeights(cfg.ObjectiveWeights.Prospects),
		Geography:         e.scoring.Geography,
		Continuity:        e.scoring.Continuity,
		TeamAlignment:     e.scoring.TeamAlignment,
		ConstraintFlags:   cfg.ConstraintFlags,
		BalancePenalties:  cfg.BalancePenalties,
		Now:               nowFunc,
	}

	lockedAccounts, freeAccounts := locks.Evaluate(accounts, reps, cfg.StabilityFlags, cfg.ConstraintFlags, now)

	var proposals []domain.Proposal
	var unassigned []domain.UnassignedAccount
	var slackTotal float64
	var warnings []string

	repByID := make(map[string]domain.Rep, len(reps))
	for _, r := range reps {
		repByID[r.ID] = r
	}
	accountByID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		accountByID[a.ID] = a
	}

	switch cfg.Mode {
	case domain.ModeWaterfall:
		out := waterfall.Solve(ctx, accounts, freeAccounts, lockedAccounts, reps, cfg, waterfall.Params{
			ModelParams: modelParams,
			Thresholds:  e.scoring.Waterfall,
			Dispatcher:  e.dispatcher,
			Session:     e.session,
			Log:         e.log,
		})
		proposals = out.Proposals
		unassigned = out.Unassigned
		slackTotal = out.FeasibilitySlackTotal

	case domain.ModeRelaxed:
		proposals = append(proposals, lockProposals(lockedAccounts, accountByID, repByID, modelParams, now)...)
		out := relaxed.Solve(ctx, freeAccounts, reps, cfg, relaxed.Params{
			ModelParams: modelParams,
			Dispatcher:  e.dispatcher,
			Session:     e.session,
		})
		proposals = append(proposals, out.Proposals...)
		unassigned = out.Unassigned
		slackTotal = out.FeasibilitySlackTotal

	default:
		err := &ConfigurationInvalidError{Reason: fmt.Sprintf("unknown solve mode %q", cfg.Mode)}
		e.emit(events.SolveFailed, runID, map[string]interface{}{"stage": "dispatch", "error": err.Error()})
		return SolveResult{}, err
	}
	e.emit(events.SolveStageCompleted, runID, map[string]interface{}{"stage": "dispatch", "proposals": len(proposals), "unassigned": len(unassigned)})

	solveTimeMs := e.now().Sub(start).Milliseconds()

	assignedScores := make([]metrics.AssignedScores, 0, len(proposals))
	for _, p := range proposals {
		geo, cont := 0.0, 0.0
		if p.Scores.Geography != nil {
			geo = *p.Scores.Geography
		}
		if p.Scores.Continuity != nil {
			cont = *p.Scores.Continuity
		}
		assignedScores = append(assignedScores, metrics.AssignedScores{
			AccountID:     p.AccountID,
			RepID:         p.RepID,
			Geography:     geo,
			Continuity:    cont,
			TeamAlignment: p.Scores.TeamAlignment,
		})
	}

	report := metrics.Compute(accounts, reps, assignedScores, slackTotal, solveTimeMs, e.scoring.Metrics)
	e.emit(events.SolveStageCompleted, runID, map[string]interface{}{"stage": "metrics"})

	if err := e.sink.Accept(ctx, proposals, unassigned); err != nil {
		e.emit(events.SolveFailed, runID, map[string]interface{}{"stage": "accept", "error": err.Error()})
		return SolveResult{}, fmt.Errorf("accept proposals: %w", err)
	}

	e.log.Info().
		Str("run_id", runID).
		Int("accounts", len(accounts)).
		Int("proposals", len(proposals)).
		Int("unassigned", len(unassigned)).
		Int64("solve_time_ms", solveTimeMs).
		Msg("solve complete")

	e.emit(events.SolveCompleted, runID, map[string]interface{}{
		"proposals":     len(proposals),
		"unassigned":    len(unassigned),
		"solve_time_ms": solveTimeMs,
	})

	return SolveResult{
		RunID:       runID,
		Proposals:   proposals,
		Unassigned:  unassigned,
		Metrics:     report,
		Warnings:    warnings,
		SolveTimeMs: solveTimeMs,
	}, nil
}

// emit publishes a solve-lifecycle event tagged with runID. It is a no-op
// when the Engine was constructed without an events.Manager.
func (e *Engine) emit(eventType events.EventType, runID string, data map[string]interface{}) {
	if e.events == nil {
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	data["run_id"] = runID
	e.events.Emit(eventType, "territory_engine", data)
}

func toModelWeights(a domain.AxisWeights) model.Weights {
	return model.Weights{Continuity: a.Continuity, Geography: a.Geography, TeamAlignment: a.TeamAlignment}
}

func normalizeWeights(cfg domain.Configuration) domain.Configuration {
	cfg.ObjectiveWeights.Customers = normalizeAxis(cfg.ObjectiveWeights.Customers)
	cfg.ObjectiveWeights.Prospects = normalizeAxis(cfg.ObjectiveWeights.Prospects)
	return cfg
}

func normalizeAxis(a domain.AxisWeights) domain.AxisWeights {
	raw := weights.Triple{Continuity: a.Continuity, Geography: a.Geography, TeamAlignment: a.TeamAlignment}
	enabled := weights.Enabled{Continuity: a.ContinuityEnabled, Geography: a.GeographyEnabled, TeamAlignment: a.TeamAlignmentEnabled}
	normalized := weights.Normalize(raw, enabled)
	a.Continuity = normalized.Continuity
	a.Geography = normalized.Geography
	a.TeamAlignment = normalized.TeamAlignment
	return a
}

func lockProposals(locked []locks.Lock, accountByID map[string]domain.Account, repByID map[string]domain.Rep, params model.Params, now time.Time) []domain.Proposal {
	out := make([]domain.Proposal, 0, len(locked))
	for _, l := range locked {
		a, ok := accountByID[l.AccountID]
		if !ok {
			continue
		}
		rep := repByID[l.RepID]

		label := "P1"
		if l.Kind == locks.KindManual {
			label = "P0"
		}

		geo := scoring.Geography(a.TerritoryRaw, params.TerritoryMappings, rep.Region, params.Geography)
		cont := scoring.Continuity(a, rep, now, params.Continuity)
		team := scoring.TeamAlignment(a.Employees, rep.TeamTier, params.TeamAlignment)

		r := rationale.FromLock(label, fmt.Sprintf("stable account (%s)", l.Kind.String()))
		out = append(out, domain.Proposal{
			AccountID: a.ID,
			RepID:     l.RepID,
			Rationale: r.Render(),
			Scores: domain.Scores{
				Geography:     &geo,
				Continuity:    &cont,
				TeamAlignment: team,
			},
			PriorityLabel: r.Label,
			Confidence:    1.0,
		})
	}
	return out
}

func validateConfiguration(cfg domain.Configuration) error {
	if cfg.Mode != domain.ModeWaterfall && cfg.Mode != domain.ModeRelaxed {
		return &ConfigurationInvalidError{Reason: fmt.Sprintf("mode must be %q or %q, got %q", domain.ModeWaterfall, domain.ModeRelaxed, cfg.Mode)}
	}
	if cfg.Mode == domain.ModeWaterfall {
		seen := make(map[string]bool)
		for _, s := range cfg.PriorityConfig {
			if !s.Enabled {
				continue
			}
			if _, ok := waterfall.ParseStepKind(s.ID); !ok {
				return &ConfigurationInvalidError{Reason: fmt.Sprintf("unknown priority step id %q", s.ID)}
			}
			if seen[s.ID] {
				return &ConfigurationInvalidError{Reason: fmt.Sprintf("duplicate priority step id %q", s.ID)}
			}
			seen[s.ID] = true
		}
	}
	return nil
}

func validateInputs(accounts []domain.Account, reps []domain.Rep) error {
	seen := make(map[string]bool, len(accounts))
	byID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		if seen[a.ID] {
			return &InputInvariantViolationError{AccountID: a.ID, Reason: "duplicate account id"}
		}
		seen[a.ID] = true
		byID[a.ID] = a
	}
	for _, a := range accounts {
		if a.ParentID == nil {
			continue
		}
		if *a.ParentID == a.ID {
			return &InputInvariantViolationError{AccountID: a.ID, Reason: "account references itself as parent"}
		}
		if _, ok := byID[*a.ParentID]; !ok {
			return &InputInvariantViolationError{AccountID: a.ID, Reason: "parent_id references an account not present in the snapshot"}
		}
	}

	seenReps := make(map[string]bool, len(reps))
	for _, r := range reps {
		if seenReps[r.ID] {
			return &InputInvariantViolationError{AccountID: r.ID, Reason: "duplicate rep id"}
		}
		seenReps[r.ID] = true
	}
	return nil
}
