// Package waterfall implements the priority-cascade engine (C8): a
// sequence of filtered sub-problems run in priority order, each either
// pinning a condition-satisfying account or narrowing its eligible-rep
// set, with unplaced accounts carried forward to the next stage.
package waterfall

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/classify"
	"github.com/aristath/sentinel/internal/territory/eligibility"
	"github.com/aristath/sentinel/internal/territory/locks"
	"github.com/aristath/sentinel/internal/territory/model"
	"github.com/aristath/sentinel/internal/territory/rationale"
	"github.com/aristath/sentinel/internal/territory/scoring"
	"github.com/aristath/sentinel/internal/territory/solver"
)

// StepKind is the closed enumeration of waterfall priority stages
// (spec's former string-keyed priority ids). ParseStepKind, label and
// Solve each switch over it; Go does not check those switches for
// exhaustiveness, so a new kind needs its case added to each by hand.
type StepKind int

const (
	StepManualHoldover StepKind = iota
	StepStabilityAccounts
	StepTeamAlignment
	StepGeographyContinuityCombined
	StepContinuityOnly
	StepGeographyOnly
	StepResidualOptimization
)

// ParseStepKind maps a priority_config id string to its StepKind.
func ParseStepKind(id string) (StepKind, bool) {
	switch id {
	case "manual_holdover":
		return StepManualHoldover, true
	case "stability_accounts":
		return StepStabilityAccounts, true
	case "team_alignment":
		return StepTeamAlignment, true
	case "geo_and_continuity":
		return StepGeographyContinuityCombined, true
	case "continuity_only":
		return StepContinuityOnly, true
	case "geography_only":
		return StepGeographyOnly, true
	case "residual_optimization":
		return StepResidualOptimization, true
	default:
		return 0, false
	}
}

func (k StepKind) label() string {
	switch k {
	case StepManualHoldover:
		return "P0"
	case StepStabilityAccounts:
		return "P1"
	case StepTeamAlignment:
		return "P_team_alignment"
	case StepGeographyContinuityCombined:
		return "P_geo_and_continuity"
	case StepContinuityOnly:
		return "P_continuity"
	case StepGeographyOnly:
		return "P_geography"
	case StepResidualOptimization:
		return "RO"
	default:
		return "P?"
	}
}

// Thresholds bundles the configurable predicates each optimization stage
// filters eligibility on (§4.8).
type Thresholds struct {
	MinTierMatchPct           float64 // default 0.80
	SiblingThreshold          float64 // default 0.65
	ParentContinuityThreshold float64 // default 0.50
}

func DefaultThresholds() Thresholds {
	return Thresholds{MinTierMatchPct: 0.80, SiblingThreshold: 0.65, ParentContinuityThreshold: 0.50}
}

// Params bundles everything a stage's model build needs.
type Params struct {
	ModelParams model.Params
	Thresholds  Thresholds
	Dispatcher  *solver.Dispatcher
	Session     *solver.Session
	Log         zerolog.Logger
}

// Outcome is the waterfall engine's result.
type Outcome struct {
	Proposals            []domain.Proposal
	Unassigned           []domain.UnassignedAccount
	FeasibilitySlackTotal float64
}

// Solve runs the priority cascade over free accounts plus any locked
// accounts released by the stability-accounts stage's capacity override,
// per the steps ordered and enabled in cfg.PriorityConfig. allAccounts
// must contain every account in both freeAccounts and lockedAccounts, so
// locked accounts' full records are available for P0/P1 proposals.
func Solve(ctx context.Context, allAccounts []domain.Account, freeAccounts []domain.Account, lockedAccounts []locks.Lock, reps []domain.Rep, cfg domain.Configuration, p Params) Outcome {
	repByID := make(map[string]domain.Rep, len(reps))
	for _, r := range reps {
		repByID[r.ID] = r
	}
	accountByID := make(map[string]domain.Account, len(allAccounts))
	for _, a := range allAccounts {
		accountByID[a.ID] = a
	}

	var out Outcome
	consumed := newUsageTracker()

	residual := append([]domain.Account{}, freeAccounts...)

	steps := orderedSteps(cfg.PriorityConfig)
	for _, step := range steps {
		switch step {
		case StepManualHoldover:
			runManualHoldover(lockedAccounts, accountByID, repByID, p, &out, consumed)
		case StepStabilityAccounts:
			residual = append(residual, runStabilityAccounts(lockedAccounts, accountByID, repByID, p, &out, consumed)...)
		case StepTeamAlignment:
			residual = runFilterStage(ctx, residual, repByID, cfg, p, teamAlignmentPredicate(p.Thresholds.MinTierMatchPct), step.label(), &out, consumed)
		case StepGeographyContinuityCombined:
			residual = runFilterStage(ctx, residual, repByID, cfg, p, combinedPredicate(p.Thresholds), step.label(), &out, consumed)
		case StepContinuityOnly:
			residual = runFilterStage(ctx, residual, repByID, cfg, p, continuityPredicate(p.Thresholds.ParentContinuityThreshold), step.label(), &out, consumed)
		case StepGeographyOnly:
			residual = runFilterStage(ctx, residual, repByID, cfg, p, geographyPredicate(p.Thresholds.SiblingThreshold), step.label(), &out, consumed)
		case StepResidualOptimization:
			residual = runFilterStage(ctx, residual, repByID, cfg, p, nil, step.label(), &out, consumed)
		}
	}

	// Anything left after RO (e.g. RO disabled, or no step configured at
	// all) has no eligible stage to place it in.
	for _, a := range residual {
		out.Unassigned = append(out.Unassigned, domain.UnassignedAccount{
			AccountID: a.ID,
			Cause:     domain.CauseNoEligibleRep,
			Reason:    "no waterfall stage placed this account",
		})
	}

	out.FeasibilitySlackTotal = consumed.slackTotal
	return out
}

func orderedSteps(config []domain.PriorityStep) []StepKind {
	type entry struct {
		kind     StepKind
		position int
	}
	var entries []entry
	for _, s := range config {
		if !s.Enabled {
			continue
		}
		kind, ok := ParseStepKind(s.ID)
		if !ok {
			continue
		}
		entries = append(entries, entry{kind, s.Position})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].position < entries[j].position })
	out := make([]StepKind, len(entries))
	for i, e := range entries {
		out[i] = e.kind
	}
	return out
}

func runManualHoldover(lockedAccounts []locks.Lock, accountByID map[string]domain.Account, repByID map[string]domain.Rep, p Params, out *Outcome, consumed *usageTracker) {
	for _, l := range lockedAccounts {
		if l.Kind != locks.KindManual {
			continue
		}
		a, ok := accountByID[l.AccountID]
		if !ok {
			continue
		}
		out.Proposals = append(out.Proposals, proposalForLock(a, l, repByID[l.RepID], p, StepManualHoldover))
		consumed.commit(l.RepID, a)
	}
}

// runStabilityAccounts emits every non-manual lock as a P1 proposal
// unless committing the account would push the lock target rep over one
// of its configured hard caps, given what earlier stages already
// committed, in which case the lock is released and the account is returned
// for the later optimization stages to place. The release decision is
// made once, at this point in the cascade — not re-evaluated per later
// stage — to avoid oscillation across repeated runs with binding caps.
func runStabilityAccounts(lockedAccounts []locks.Lock, accountByID map[string]domain.Account, repByID map[string]domain.Rep, p Params, out *Outcome, consumed *usageTracker) []domain.Account {
	var released []domain.Account
	for _, l := range lockedAccounts {
		if l.Kind == locks.KindManual || l.Kind == locks.KindNone {
			continue
		}
		a, ok := accountByID[l.AccountID]
		if !ok {
			continue
		}
		rep := repByID[l.RepID]
		if consumed.wouldExceedCap(rep, a) {
			released = append(released, a)
			continue
		}
		out.Proposals = append(out.Proposals, proposalForLock(a, l, rep, p, StepStabilityAccounts))
		consumed.commit(l.RepID, a)
	}
	return released
}

func proposalForLock(a domain.Account, l locks.Lock, rep domain.Rep, p Params, step StepKind) domain.Proposal {
	reason := fmt.Sprintf("stable account (%s)", lockReasonText(l.Kind))
	r := rationale.FromLock(step.label(), reason)

	geo := scoring.Geography(a.TerritoryRaw, p.ModelParams.TerritoryMappings, rep.Region, p.ModelParams.Geography)
	cont := scoring.Continuity(a, rep, nowFromParams(p), p.ModelParams.Continuity)
	team := scoring.TeamAlignment(a.Employees, rep.TeamTier, p.ModelParams.TeamAlignment)

	return domain.Proposal{
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
	}
}

func lockReasonText(k locks.Kind) string {
	switch k {
	case locks.KindManual:
		return "manually excluded from reassignment"
	case locks.KindBackfillMigration:
		return "backfill migration"
	case locks.KindCRERisk:
		return "CRE at-risk"
	case locks.KindRenewalSoon:
		return "renewal window"
	case locks.KindPEFirm:
		return "PE-firm owned"
	case locks.KindRecentChange:
		return "recent ownership change"
	default:
		return "locked"
	}
}

// predicate reports whether (account, rep) satisfies a stage's filter.
type predicate func(a domain.Account, r domain.Rep, p Params) bool

func teamAlignmentPredicate(minPct float64) predicate {
	return func(a domain.Account, r domain.Rep, p Params) bool {
		score := scoring.TeamAlignment(a.Employees, r.TeamTier, p.ModelParams.TeamAlignment)
		return score != nil && *score >= minPct
	}
}

func combinedPredicate(t Thresholds) predicate {
	return func(a domain.Account, r domain.Rep, p Params) bool {
		geo := scoring.Geography(a.TerritoryRaw, p.ModelParams.TerritoryMappings, r.Region, p.ModelParams.Geography)
		cont := scoring.Continuity(a, r, nowFromParams(p), p.ModelParams.Continuity)
		return geo >= t.SiblingThreshold && cont >= t.ParentContinuityThreshold
	}
}

func continuityPredicate(threshold float64) predicate {
	return func(a domain.Account, r domain.Rep, p Params) bool {
		cont := scoring.Continuity(a, r, nowFromParams(p), p.ModelParams.Continuity)
		return cont >= threshold
	}
}

func geographyPredicate(threshold float64) predicate {
	return func(a domain.Account, r domain.Rep, p Params) bool {
		geo := scoring.Geography(a.TerritoryRaw, p.ModelParams.TerritoryMappings, r.Region, p.ModelParams.Geography)
		return geo >= threshold
	}
}

func nowFromParams(p Params) time.Time {
	if p.ModelParams.Now == nil {
		return time.Unix(0, 0).UTC()
	}
	return time.Unix(p.ModelParams.Now(), 0).UTC()
}

func weightsFor(a domain.Account, p Params) rationale.Weights {
	w := p.ModelParams.ProspectWeights
	if classify.IsCustomer(a) {
		w = p.ModelParams.CustomerWeights
	}
	return rationale.Weights{Geography: w.Geography, Continuity: w.Continuity, TeamAlignment: w.TeamAlignment}
}

// runFilterStage builds and solves a mini-MIP over residual accounts,
// restricting eligibility to reps matching pred (nil means no filter, for
// the final residual-optimization stage), and returns accounts left
// unplaced to flow to the next stage.
func runFilterStage(ctx context.Context, residual []domain.Account, repByID map[string]domain.Rep, cfg domain.Configuration, p Params, pred predicate, label string, out *Outcome, consumed *usageTracker) []domain.Account {
	if len(residual) == 0 {
		return nil
	}

	reps := repsSlice(repByID)
	effectiveReps := consumed.reducedCapacityReps(reps)

	elig := eligibility.Compute(residual, effectiveReps, cfg.ConstraintFlags, map[string]string{})
	if pred != nil {
		elig = applyPredicate(elig, residual, effectiveReps, pred, p)
	}

	var stillUnplaced []domain.Account
	var toSolve []domain.Account
	for _, a := range residual {
		if set, ok := elig.Eligible[a.ID]; ok && len(set) > 0 {
			toSolve = append(toSolve, a)
		} else {
			stillUnplaced = append(stillUnplaced, a)
		}
	}

	if len(toSolve) == 0 {
		return stillUnplaced
	}

	builder := model.NewBuilder(toSolve, effectiveReps, elig, p.ModelParams)
	built := builder.Build()
	lpText := built.Render()

	sol, err := p.Dispatcher.Dispatch(ctx, p.Session, lpText, built.NumVars)

	assignedVars := map[string]bool{}
	if err == nil {
		for vn, val := range sol.Columns {
			if val > 0.5 {
				assignedVars[vn] = true
			}
			consumed.addSlack(vn, val)
		}
	}

	for _, a := range toSolve {
		repID, ok := findAssignedRep(a.ID, elig.Eligible[a.ID], assignedVars)
		if !ok {
			if label == "RO" {
				cause := domain.CauseSolverFailure
				if err == nil && sol.Status == solver.StatusInfeasible {
					cause = domain.CauseInfeasibleCapacity
				}
				out.Unassigned = append(out.Unassigned, domain.UnassignedAccount{AccountID: a.ID, Cause: cause, Reason: "residual optimization could not place this account"})
				continue
			}
			stillUnplaced = append(stillUnplaced, a)
			continue
		}
		scores := builder.PairScores[a.ID][repID]
		rez := rationale.FromScores(scores.Geography, scores.Continuity, scores.TeamAlignment, weightsFor(a, p), classify.EffectiveARR(a), func(axis rationale.Axis) string { return label }, rationale.DefaultParams())
		out.Proposals = append(out.Proposals, domain.Proposal{
			AccountID: a.ID,
			RepID:     repID,
			Rationale: rez.Render(),
			Scores: domain.Scores{
				Geography:     &scores.Geography,
				Continuity:    &scores.Continuity,
				TeamAlignment: scores.TeamAlignment,
			},
			PriorityLabel: label,
			Confidence:    1.0,
		})
		consumed.commit(repID, a)
	}

	return stillUnplaced
}

func findAssignedRep(accountID string, set eligibility.Set, assignedVars map[string]bool) (string, bool) {
	for _, r := range set {
		if assignedVars[model.VarName(accountID, r.ID)] {
			return r.ID, true
		}
	}
	return "", false
}

func applyPredicate(elig eligibility.Result, accounts []domain.Account, reps []domain.Rep, pred predicate, p Params) eligibility.Result {
	repByID := make(map[string]domain.Rep, len(reps))
	for _, r := range reps {
		repByID[r.ID] = r
	}
	out := eligibility.Result{Eligible: make(map[string]eligibility.Set)}
	for _, a := range accounts {
		set, ok := elig.Eligible[a.ID]
		if !ok {
			continue
		}
		var filtered eligibility.Set
		for _, r := range set {
			if pred(a, r, p) {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) > 0 {
			out.Eligible[a.ID] = filtered
		}
	}
	return out
}

func repsSlice(byID map[string]domain.Rep) []domain.Rep {
	out := make([]domain.Rep, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
