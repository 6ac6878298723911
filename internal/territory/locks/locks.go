// Package locks implements the stability lock evaluator (C4): deciding
// which accounts are preassigned to a specific rep before optimization
// runs at all, and why.
package locks

import (
	"time"

	"github.com/aristath/sentinel/internal/domain"
)

// Kind is the closed set of lock reasons, evaluated in this fixed
// priority order — the first match for an account wins.
type Kind int

const (
	KindNone Kind = iota
	KindManual
	KindBackfillMigration
	KindCRERisk
	KindRenewalSoon
	KindPEFirm
	KindRecentChange
)

func (k Kind) String() string {
	switch k {
	case KindManual:
		return "manual"
	case KindBackfillMigration:
		return "backfill_migration"
	case KindCRERisk:
		return "cre_risk"
	case KindRenewalSoon:
		return "renewal_soon"
	case KindPEFirm:
		return "pe_firm"
	case KindRecentChange:
		return "recent_change"
	default:
		return "none"
	}
}

// Lock records that an account is pinned to a target rep before
// optimization, and the reason.
type Lock struct {
	AccountID string
	RepID     string
	Kind      Kind
}

// repByID is built once per Evaluate call so lock evaluation stays O(n).
type repByID map[string]domain.Rep

// Evaluate partitions accounts into locked and free, applying the fixed
// priority order of §4.4. Locks requiring a current owner silently no-op
// (the account falls through to the next rule, and eventually to free)
// when the owner is absent or ineligible for the account in question —
// ineligible reps are invisible to optimization (§3.1) and a lock must
// never pin an account to one.
func Evaluate(accounts []domain.Account, reps []domain.Rep, flags domain.StabilityFlags, constraints domain.ConstraintFlags, now time.Time) (locked []Lock, free []domain.Account) {
	byID := make(repByID, len(reps))
	for _, r := range reps {
		byID[r.ID] = r
	}

	for _, a := range accounts {
		if lock, ok := evaluateOne(a, byID, flags, constraints, now); ok {
			locked = append(locked, lock)
		} else {
			free = append(free, a)
		}
	}
	return locked, free
}

// eligibleOwner reports whether rep is visible to optimization at all,
// and — when the strategic pool is closed — whether account and rep are
// on the same side of the strategic/non-strategic divide.
func eligibleOwner(rep domain.Rep, a domain.Account, constraints domain.ConstraintFlags) bool {
	if !rep.Eligible() {
		return false
	}
	if constraints.StrategicPoolEnabled && a.IsStrategic != rep.IsStrategicRep {
		return false
	}
	return true
}

func evaluateOne(a domain.Account, byID repByID, flags domain.StabilityFlags, constraints domain.ConstraintFlags, now time.Time) (Lock, bool) {
	owner, hasOwner := "", false
	if a.CurrentOwnerID != nil {
		owner = *a.CurrentOwnerID
		if rep, ok := byID[owner]; ok {
			hasOwner = eligibleOwner(rep, a, constraints)
		}
	}

	// 1. Manual lock.
	if flags.ManualLockEnabled && a.ExcludeFromReassignment && hasOwner {
		return Lock{AccountID: a.ID, RepID: owner, Kind: KindManual}, true
	}

	// 2. Backfill migration.
	if flags.BackfillMigrationLockEnabled && hasOwner {
		ownerRep := byID[owner]
		if ownerRep.IsBackfillSource && ownerRep.BackfillTargetRepID != nil {
			if target, ok := byID[*ownerRep.BackfillTargetRepID]; ok && eligibleOwner(target, a, constraints) {
				return Lock{AccountID: a.ID, RepID: target.ID, Kind: KindBackfillMigration}, true
			}
		}
	}

	// 3. CRE risk.
	if flags.CRERiskLockEnabled && a.CRERisk && hasOwner {
		return Lock{AccountID: a.ID, RepID: owner, Kind: KindCRERisk}, true
	}

	// 4. Renewal soon.
	if flags.RenewalSoonLockEnabled && hasOwner && a.RenewalDate != nil {
		days := daysUntil(*a.RenewalDate, now)
		if days >= 0 && days <= flags.RenewalSoonWindowDays {
			return Lock{AccountID: a.ID, RepID: owner, Kind: KindRenewalSoon}, true
		}
	}

	// 5. PE firm.
	if flags.PEFirmLockEnabled && a.PEFirm != nil && hasOwner {
		return Lock{AccountID: a.ID, RepID: owner, Kind: KindPEFirm}, true
	}

	// 6. Recent change.
	if flags.RecentChangeLockEnabled && hasOwner && a.OwnerChangeDate != nil {
		days := daysSince(*a.OwnerChangeDate, now)
		if days >= 0 && days <= flags.RecentChangeWindowDays {
			return Lock{AccountID: a.ID, RepID: owner, Kind: KindRecentChange}, true
		}
	}

	return Lock{}, false
}

func daysUntil(t, now time.Time) int {
	return int(t.Sub(now).Hours() / 24)
}

func daysSince(t, now time.Time) int {
	return int(now.Sub(t).Hours() / 24)
}
