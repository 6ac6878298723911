// Package relaxed implements the single weighted MIP engine (C9): one
// solve over every free account at once, rather than a priority cascade.
// Parent-child linkage is expressed as equality constraints inside the
// model instead of being resolved by solve order.
package relaxed

import (
	"context"
	"strings"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/classify"
	"github.com/aristath/sentinel/internal/territory/eligibility"
	"github.com/aristath/sentinel/internal/territory/model"
	"github.com/aristath/sentinel/internal/territory/rationale"
	"github.com/aristath/sentinel/internal/territory/solver"
)

// Params bundles everything the relaxed solve needs beyond the accounts
// and reps themselves.
type Params struct {
	ModelParams model.Params
	Dispatcher  *solver.Dispatcher
	Session     *solver.Session
}

// Outcome is the relaxed engine's result.
type Outcome struct {
	Proposals             []domain.Proposal
	Unassigned            []domain.UnassignedAccount
	FeasibilitySlackTotal float64
}

// Solve builds and dispatches one model covering every free account and
// decodes the resulting column values into proposals.
func Solve(ctx context.Context, freeAccounts []domain.Account, reps []domain.Rep, cfg domain.Configuration, p Params) Outcome {
	var out Outcome
	if len(freeAccounts) == 0 {
		return out
	}

	elig := eligibility.Compute(freeAccounts, reps, cfg.ConstraintFlags, map[string]string{})
	out.Unassigned = append(out.Unassigned, elig.Unassigned...)

	var toSolve []domain.Account
	for _, a := range freeAccounts {
		if set, ok := elig.Eligible[a.ID]; ok && len(set) > 0 {
			toSolve = append(toSolve, a)
		}
	}
	if len(toSolve) == 0 {
		return out
	}

	builder := model.NewBuilder(toSolve, reps, elig, p.ModelParams)
	built := builder.Build()
	lpText := built.Render()

	sol, err := p.Dispatcher.Dispatch(ctx, p.Session, lpText, built.NumVars)

	assignedVars := map[string]bool{}
	if err == nil {
		for vn, val := range sol.Columns {
			if val > 0.5 {
				assignedVars[vn] = true
			}
			if strings.HasPrefix(vn, "u_") || strings.HasPrefix(vn, "d_") {
				out.FeasibilitySlackTotal += val
			}
		}
	}

	for _, a := range toSolve {
		repID, ok := findAssignedRep(a.ID, elig.Eligible[a.ID], assignedVars)
		if !ok {
			cause := domain.CauseSolverFailure
			if err == nil && sol.Status == solver.StatusInfeasible {
				cause = domain.CauseInfeasibleCapacity
			}
			out.Unassigned = append(out.Unassigned, domain.UnassignedAccount{
				AccountID: a.ID,
				Cause:     cause,
				Reason:    "relaxed solve could not place this account",
			})
			continue
		}

		scores := builder.PairScores[a.ID][repID]
		weights := weightsFor(a, p.ModelParams)
		rez := rationale.FromScores(scores.Geography, scores.Continuity, scores.TeamAlignment, weights, classify.EffectiveARR(a), dominanceLabel, rationale.DefaultParams())
		out.Proposals = append(out.Proposals, domain.Proposal{
			AccountID: a.ID,
			RepID:     repID,
			Rationale: rez.Render(),
			Scores: domain.Scores{
				Geography:     &scores.Geography,
				Continuity:    &scores.Continuity,
				TeamAlignment: scores.TeamAlignment,
			},
			PriorityLabel: rez.Label,
			Confidence:    1.0,
		})
	}

	return out
}

// dominanceLabel resolves a relaxed-mode proposal's position label:
// unlike the waterfall's fixed per-stage labels, relaxed mode has no
// cascade stage to name, so the label is the dominant axis itself.
func dominanceLabel(axis rationale.Axis) string {
	return string(axis)
}

func weightsFor(a domain.Account, p model.Params) rationale.Weights {
	w := p.ProspectWeights
	if classify.IsCustomer(a) {
		w = p.CustomerWeights
	}
	return rationale.Weights{Geography: w.Geography, Continuity: w.Continuity, TeamAlignment: w.TeamAlignment}
}

func findAssignedRep(accountID string, set eligibility.Set, assignedVars map[string]bool) (string, bool) {
	for _, r := range set {
		if assignedVars[model.VarName(accountID, r.ID)] {
			return r.ID, true
		}
	}
	return "", false
}
