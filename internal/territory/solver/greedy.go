package solver

import (
	"sort"
)

// greedySolve is the shared heuristic core for the local and secondary
// solvers: process accounts in id order, assign each to its cheapest
// still-feasible rep, tracking cumulative capacity usage and honoring
// forced-equal linking pairs. It is not a branch-and-bound MIP solver —
// there is no such library in this project's dependency set (see
// DESIGN.md) — but it respects every hard constraint the model encodes
// and is deterministic for a fixed input.
func greedySolve(pm parsedModel) Solution {
	accounts := accountsInOrder(pm)
	union := buildUnionFind(pm)

	usage := map[string]map[string]float64{} // repID -> capName(cap_arr_/cap_cre_/cap_count_) -> running total
	assignment := map[string]string{}        // account -> varName chosen

	groups := groupAccountsByRoot(accounts, union)

	infeasible := false
	for _, group := range groups {
		if pm.zeroVars[group[0]] {
			// forced-zero singleton with no viable rep; nothing to assign.
			continue
		}
		candidateReps := commonCandidateReps(group, pm)
		best, ok := pickCheapestFeasible(candidateReps, group, pm, usage)
		if !ok {
			infeasible = true
			continue
		}
		for _, acc := range group {
			vn := varNameFor(acc, best, pm)
			if vn != "" {
				assignment[acc] = vn
			}
		}
		applyUsage(best, group, pm, usage)
	}

	status := StatusOptimal
	if infeasible {
		status = StatusInfeasible
	}

	columns := make(map[string]float64, len(assignment))
	var objective float64
	for _, vn := range assignment {
		columns[vn] = 1
		objective += pm.objective[vn]
	}

	return Solution{Status: status, ObjectiveValue: objective, Columns: columns}
}

func accountsInOrder(pm parsedModel) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range pm.vars {
		acc := pm.accountOf[v]
		if !seen[acc] {
			seen[acc] = true
			out = append(out, acc)
		}
	}
	sort.Strings(out)
	return out
}

// unionFind groups accounts that a linking constraint forces to share a
// rep, so the greedy pass treats them as one unit.
type unionFind struct {
	parent map[string]string
}

func newUnionFind() *unionFind { return &unionFind{parent: map[string]string{}} }

func (u *unionFind) find(x string) string {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
	}
	if u.parent[x] != x {
		u.parent[x] = u.find(u.parent[x])
	}
	return u.parent[x]
}

func (u *unionFind) union(a, b string) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

func buildUnionFind(pm parsedModel) *unionFind {
	uf := newUnionFind()
	for _, pair := range pm.linkPairs {
		a, _ := splitVarName(pair[0])
		b, _ := splitVarName(pair[1])
		uf.union(a, b)
	}
	return uf
}

func groupAccountsByRoot(accounts []string, uf *unionFind) [][]string {
	byRoot := map[string][]string{}
	var rootOrder []string
	for _, acc := range accounts {
		root := uf.find(acc)
		if _, ok := byRoot[root]; !ok {
			rootOrder = append(rootOrder, root)
		}
		byRoot[root] = append(byRoot[root], acc)
	}
	sort.Strings(rootOrder)
	out := make([][]string, 0, len(rootOrder))
	for _, root := range rootOrder {
		group := byRoot[root]
		sort.Strings(group)
		out = append(out, group)
	}
	return out
}

func commonCandidateReps(group []string, pm parsedModel) []string {
	var reps []string
	counts := map[string]int{}
	for _, acc := range group {
		seenForAcc := map[string]bool{}
		for _, v := range pm.vars {
			if pm.accountOf[v] == acc {
				rep := pm.repOf[v]
				if !seenForAcc[rep] {
					seenForAcc[rep] = true
					counts[rep]++
				}
			}
		}
	}
	for rep, c := range counts {
		if c == len(group) {
			reps = append(reps, rep)
		}
	}
	sort.Strings(reps)
	return reps
}

func varNameFor(account, rep string, pm parsedModel) string {
	for _, v := range pm.vars {
		if pm.accountOf[v] == account && pm.repOf[v] == rep {
			return v
		}
	}
	return ""
}

func pickCheapestFeasible(reps []string, group []string, pm parsedModel, usage map[string]map[string]float64) (string, bool) {
	type candidate struct {
		rep  string
		cost float64
	}
	var candidates []candidate
	for _, rep := range reps {
		var cost float64
		for _, acc := range group {
			cost += pm.objective[varNameFor(acc, rep, pm)]
		}
		candidates = append(candidates, candidate{rep: rep, cost: cost})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].cost != candidates[j].cost {
			return candidates[i].cost < candidates[j].cost
		}
		return candidates[i].rep < candidates[j].rep
	})

	for _, c := range candidates {
		if capacityAllows(c.rep, group, pm, usage) {
			return c.rep, true
		}
	}
	return "", false
}

func capacityAllows(rep string, group []string, pm parsedModel, usage map[string]map[string]float64) bool {
	delta := map[string]float64{}
	for _, row := range pm.capRows {
		if row.repID != rep {
			continue
		}
		var add float64
		for _, acc := range group {
			vn := varNameFor(acc, rep, pm)
			if coeff, ok := row.terms[vn]; ok {
				add += coeff
			}
		}
		delta[row.rhs2key(rep)] += add
	}

	for _, row := range pm.capRows {
		if row.repID != rep {
			continue
		}
		key := row.rhs2key(rep)
		current := 0.0
		if usage[rep] != nil {
			current = usage[rep][key]
		}
		if current+delta[key] > row.rhs+1e-9 {
			return false
		}
	}
	return true
}

func applyUsage(rep string, group []string, pm parsedModel, usage map[string]map[string]float64) {
	if usage[rep] == nil {
		usage[rep] = map[string]float64{}
	}
	for _, row := range pm.capRows {
		if row.repID != rep {
			continue
		}
		key := row.rhs2key(rep)
		var add float64
		for _, acc := range group {
			vn := varNameFor(acc, rep, pm)
			if coeff, ok := row.terms[vn]; ok {
				add += coeff
			}
		}
		usage[rep][key] += add
	}
}

// rhs2key gives each capRow a stable per-rep bucket key distinct across
// the three capacity dimensions sharing a rep.
func (r capRow) rhs2key(rep string) string {
	return rep + ":" + r.dimension
}
