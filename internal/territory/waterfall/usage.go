package waterfall

import (
	"strings"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/classify"
)

// usageTracker accumulates per-rep capacity consumption across waterfall
// stages, so a later stage's model is built against caps already reduced
// by earlier stages' commitments — and so the stability-accounts release
// check (§4.8) can see what P0 already spent before it runs.
type usageTracker struct {
	arr        map[string]float64
	cre        map[string]float64
	count      map[string]float64
	slackTotal float64
}

func newUsageTracker() *usageTracker {
	return &usageTracker{arr: map[string]float64{}, cre: map[string]float64{}, count: map[string]float64{}}
}

func (u *usageTracker) commit(repID string, a domain.Account) {
	u.arr[repID] += classify.EffectiveARR(a)
	u.count[repID]++
	if a.CRERisk {
		u.cre[repID]++
	}
}

// wouldExceedCap reports whether committing account a to rep would push
// any of its configured hard caps over the limit, given what's already
// committed this solve.
func (u *usageTracker) wouldExceedCap(rep domain.Rep, a domain.Account) bool {
	if rep.CapacityMaxARR != nil && u.arr[rep.ID]+classify.EffectiveARR(a) > *rep.CapacityMaxARR+1e-9 {
		return true
	}
	if a.CRERisk && rep.CapacityMaxCRE != nil && u.cre[rep.ID]+1 > *rep.CapacityMaxCRE+1e-9 {
		return true
	}
	if rep.CapacityMaxAccounts != nil && u.count[rep.ID]+1 > float64(*rep.CapacityMaxAccounts)+1e-9 {
		return true
	}
	return false
}

// reducedCapacityReps returns a copy of reps with hard caps lowered by
// consumption already committed in earlier stages, so later-stage models
// never double-spend capacity that P0/P1 already claimed.
func (u *usageTracker) reducedCapacityReps(reps []domain.Rep) []domain.Rep {
	out := make([]domain.Rep, len(reps))
	for i, r := range reps {
		out[i] = r
		if r.CapacityMaxARR != nil {
			remaining := *r.CapacityMaxARR - u.arr[r.ID]
			if remaining < 0 {
				remaining = 0
			}
			out[i].CapacityMaxARR = &remaining
		}
		if r.CapacityMaxCRE != nil {
			remaining := *r.CapacityMaxCRE - u.cre[r.ID]
			if remaining < 0 {
				remaining = 0
			}
			out[i].CapacityMaxCRE = &remaining
		}
		if r.CapacityMaxAccounts != nil {
			remaining := *r.CapacityMaxAccounts - int(u.count[r.ID])
			if remaining < 0 {
				remaining = 0
			}
			out[i].CapacityMaxAccounts = &remaining
		}
	}
	return out
}

// addSlack records a balance-constraint slack variable's solved value
// into the running feasibility-slack total reported to the metrics
// calculator.
func (u *usageTracker) addSlack(varName string, value float64) {
	if strings.HasPrefix(varName, "u_") || strings.HasPrefix(varName, "d_") {
		u.slackTotal += value
	}
}
