// Package eligibility implements the per-account admissible-rep filter
// (C5): strategic pool closure, parent-child linkage, and the base
// active/included-in-assignments gate.
package eligibility

import (
	"sort"

	"github.com/aristath/sentinel/internal/domain"
)

// Set is the ordered (by rep id) set of reps eligible for one account.
// Ordering matters: §4.6 requires deterministic variable emission in rep
// id order.
type Set []domain.Rep

// Result is the per-account eligibility outcome, including the ids of
// accounts that end up with no eligible rep at all.
type Result struct {
	Eligible   map[string]Set
	Unassigned []domain.UnassignedAccount
}

// Compute derives eligible(a) for every free account per §4.5. assigned
// is the resolved rep id for already-placed accounts (used to resolve
// parent-child linkage — a parent must be solved, or itself resolved,
// before its children's eligibility narrows to the parent's rep).
func Compute(accounts []domain.Account, reps []domain.Rep, flags domain.ConstraintFlags, assigned map[string]string) Result {
	base := make(Set, 0, len(reps))
	for _, r := range reps {
		if r.Eligible() {
			base = append(base, r)
		}
	}
	sort.Slice(base, func(i, j int) bool { return base[i].ID < base[j].ID })

	byID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	result := Result{Eligible: make(map[string]Set, len(accounts))}

	for _, a := range accounts {
		set := filterStrategic(base, a, flags)
		set = filterParentChild(set, a, byID, flags, assigned)

		if len(set) == 0 {
			result.Unassigned = append(result.Unassigned, domain.UnassignedAccount{
				AccountID: a.ID,
				Cause:     domain.CauseNoEligibleRep,
				Reason:    "no rep satisfies eligibility constraints",
			})
			continue
		}
		result.Eligible[a.ID] = set
	}
	return result
}

func filterStrategic(base Set, a domain.Account, flags domain.ConstraintFlags) Set {
	if !flags.StrategicPoolEnabled {
		return base
	}
	out := make(Set, 0, len(base))
	for _, r := range base {
		if a.IsStrategic == r.IsStrategicRep {
			out = append(out, r)
		}
	}
	return out
}

func filterParentChild(set Set, a domain.Account, byID map[string]domain.Account, flags domain.ConstraintFlags, assigned map[string]string) Set {
	if !flags.ParentChildLinkingEnabled || a.ParentID == nil {
		return set
	}
	parent, ok := byID[*a.ParentID]
	if !ok {
		return set
	}
	parentRepID, ok := assigned[parent.ID]
	if !ok {
		return set
	}
	for _, r := range set {
		if r.ID == parentRepID {
			return Set{r}
		}
	}
	return nil
}
