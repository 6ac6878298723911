package solver

import (
	"context"
	"sort"
	"time"
)

// HeuristicSolver is the secondary fallback (§4.7 step 3): the same
// greedy core as the in-process solver, followed by a bounded pairwise
// swap local search that trades two accounts between reps whenever doing
// so strictly improves the objective without breaking capacity. Grounded
// on the general local-search shape of an optimizer engine, not a
// specific MIP algorithm — there is no LP/MIP library in this project's
// dependency set (see DESIGN.md).
type HeuristicSolver struct {
	MaxSwapPasses int
}

var _ Solve = (*HeuristicSolver)(nil)

func NewHeuristicSolver() *HeuristicSolver {
	return &HeuristicSolver{MaxSwapPasses: 3}
}

func (s *HeuristicSolver) Solve(ctx context.Context, lpText string, budget time.Duration) (Solution, error) {
	start := time.Now()
	pm := parseLP(lpText)
	sol := greedySolve(pm)

	for pass := 0; pass < s.MaxSwapPasses; pass++ {
		select {
		case <-ctx.Done():
			sol.SolveTimeMs = time.Since(start).Milliseconds()
			return sol, ctx.Err()
		default:
		}
		if time.Since(start) > budget {
			sol.Status = StatusTimeLimit
			break
		}
		improved := swapPass(pm, &sol)
		if !improved {
			break
		}
	}

	sol.SolveTimeMs = time.Since(start).Milliseconds()
	return sol, nil
}

// swapPass tries every pair of assigned accounts once and performs any
// swap that strictly reduces total objective cost while respecting each
// rep's capacity rows; returns true if at least one swap was applied.
func swapPass(pm parsedModel, sol *Solution) bool {
	assignedVars := make([]string, 0, len(sol.Columns))
	for v := range sol.Columns {
		assignedVars = append(assignedVars, v)
	}
	sort.Strings(assignedVars)

	improved := false
	usage := rebuildUsage(pm, sol.Columns)

	for i := 0; i < len(assignedVars); i++ {
		for j := i + 1; j < len(assignedVars); j++ {
			vi, vj := assignedVars[i], assignedVars[j]
			accI, repI := pm.accountOf[vi], pm.repOf[vi]
			accJ, repJ := pm.accountOf[vj], pm.repOf[vj]
			if repI == repJ {
				continue
			}
			altI := varNameFor(accI, repJ, pm)
			altJ := varNameFor(accJ, repI, pm)
			if altI == "" || altJ == "" {
				continue
			}

			before := pm.objective[vi] + pm.objective[vj]
			after := pm.objective[altI] + pm.objective[altJ]
			if after >= before-1e-12 {
				continue
			}
			if !swapFeasible(pm, usage, accI, repI, repJ, accJ) {
				continue
			}

			delete(sol.Columns, vi)
			delete(sol.Columns, vj)
			sol.Columns[altI] = 1
			sol.Columns[altJ] = 1
			sol.ObjectiveValue += after - before
			usage = rebuildUsage(pm, sol.Columns)
			improved = true
		}
	}
	return improved
}

func rebuildUsage(pm parsedModel, columns map[string]float64) map[string]map[string]float64 {
	usage := map[string]map[string]float64{}
	for v := range columns {
		rep := pm.repOf[v]
		if usage[rep] == nil {
			usage[rep] = map[string]float64{}
		}
		for _, row := range pm.capRows {
			if row.repID != rep {
				continue
			}
			if coeff, ok := row.terms[v]; ok {
				usage[rep][row.rhs2key(rep)] += coeff
			}
		}
	}
	return usage
}

// swapFeasible checks whether swapping accI (currently on repI) and accJ
// (currently on repJ) so that accI moves to repJ and accJ moves to repI
// keeps both reps within their capacity rows.
func swapFeasible(pm parsedModel, usage map[string]map[string]float64, accI, repI, repJ, accJ string) bool {
	trial := map[string]map[string]float64{}
	for rep, dims := range usage {
		trial[rep] = map[string]float64{}
		for k, v := range dims {
			trial[rep][k] = v
		}
	}
	removeUsage(pm, trial, accI, repI)
	removeUsage(pm, trial, accJ, repJ)

	if !capacityAllows(repJ, []string{accI}, pm, trial) {
		return false
	}
	applyUsage(repJ, []string{accI}, pm, trial)
	if !capacityAllows(repI, []string{accJ}, pm, trial) {
		return false
	}
	applyUsage(repI, []string{accJ}, pm, trial)
	return true
}

func removeUsage(pm parsedModel, usage map[string]map[string]float64, account, rep string) {
	vn := varNameFor(account, rep, pm)
	for _, row := range pm.capRows {
		if row.repID != rep {
			continue
		}
		if coeff, ok := row.terms[vn]; ok {
			if usage[rep] != nil {
				usage[rep][row.rhs2key(rep)] -= coeff
			}
		}
	}
}
