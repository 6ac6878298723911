// Package domain provides the core entities of the territory assignment
// optimizer: accounts, reps, the solve configuration, and the proposals a
// solve produces. These are pure value types with no infrastructure
// dependencies — persistence, transport, and UI are external collaborators
// (see interfaces.go).
package domain

import "time"

// Account is a company that can be assigned to exactly one rep.
type Account struct {
	OwnerChangeDate         *time.Time `json:"owner_change_date"`
	RenewalDate             *time.Time `json:"renewal_date"`
	ParentID                *string    `json:"parent_id"`
	CurrentOwnerID          *string    `json:"current_owner_id"`
	Employees               *int       `json:"employees"`
	TierOverride            *string    `json:"tier_override"`
	TerritoryRaw            *string    `json:"territory_raw"`
	PEFirm                  *string    `json:"pe_firm"`
	ID                      string     `json:"id"`
	Name                    string     `json:"name"`
	ARRPrimary              float64    `json:"arr_primary"`
	ARRFallback             float64    `json:"arr_fallback"`
	ARRLegacy               float64    `json:"arr_legacy"`
	ATR                     float64    `json:"atr"`
	PipelineValue           float64    `json:"pipeline_value"`
	OwnersLifetimeCount     int        `json:"owners_lifetime_count"`
	IsParent                bool       `json:"is_parent"`
	IsStrategic             bool       `json:"is_strategic"`
	ExcludeFromReassignment bool       `json:"exclude_from_reassignment"`
	CRERisk                 bool       `json:"cre_risk"`
}

// Rep is a sales representative eligible to receive account assignments.
type Rep struct {
	BackfillTargetRepID *string  `json:"backfill_target_rep_id"`
	TeamTier            *string  `json:"team_tier"`
	CapacityMaxARR      *float64 `json:"capacity_max_arr"`
	CapacityMaxCRE      *float64 `json:"capacity_max_cre"`
	CapacityMaxAccounts *int     `json:"capacity_max_accounts"`
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Region              string   `json:"region"`
	IsActive            bool     `json:"is_active"`
	IncludeInAssignments bool    `json:"include_in_assignments"`
	IsStrategicRep      bool     `json:"is_strategic_rep"`
	IsBackfillSource    bool     `json:"is_backfill_source"`
}

// Eligible reports whether a rep is visible to optimization at all —
// ineligible reps (inactive, or excluded from assignments) never receive
// accounts regardless of scoring or locks.
func (r Rep) Eligible() bool {
	return r.IsActive && r.IncludeInAssignments
}

// Scores is the per-axis score breakdown attached to a Proposal. A nil
// pointer means "not applicable" (team alignment when tier data is
// unknown), distinct from a score of exactly 0.
type Scores struct {
	Geography     *float64 `json:"geography"`
	Continuity    *float64 `json:"continuity"`
	TeamAlignment *float64 `json:"team_alignment"`
}

// Proposal is the optimizer's output for one account: which rep it should
// go to, why, and the scores that produced that decision.
type Proposal struct {
	AccountID     string  `json:"account_id"`
	RepID         string  `json:"rep_id"`
	Rationale     string  `json:"rationale"`
	Scores        Scores  `json:"scores"`
	PriorityLabel string  `json:"priority_label"`
	Confidence    float64 `json:"confidence"`
}

// UnassignedCause is the closed set of reasons an account can fail to
// receive a proposal (spec.md §6.3).
type UnassignedCause string

const (
	CauseNoEligibleRep      UnassignedCause = "no_eligible_rep"
	CauseInfeasibleCapacity UnassignedCause = "infeasible_capacity"
	CauseSolverFailure      UnassignedCause = "solver_failure"
)

// UnassignedAccount records why an account did not receive a proposal.
type UnassignedAccount struct {
	AccountID string          `json:"account_id"`
	Cause     UnassignedCause `json:"cause"`
	Reason    string          `json:"reason"`
}
