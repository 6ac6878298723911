package domain

// SolveMode selects which engine runs the solve: a priority cascade of
// discrete steps, or a single relaxed MIP over the whole objective.
type SolveMode string

const (
	ModeWaterfall SolveMode = "waterfall"
	ModeRelaxed   SolveMode = "relaxed"
)

// AxisWeights is the (continuity, geography, team_alignment) triple used by
// the scoring objective. Each axis is independently enable-able; enabled
// axes must sum to 1 (see internal/territory/weights).
type AxisWeights struct {
	Continuity         float64 `json:"continuity"`
	Geography          float64 `json:"geography"`
	TeamAlignment      float64 `json:"team_alignment"`
	ContinuityEnabled  bool    `json:"continuity_enabled"`
	GeographyEnabled   bool    `json:"geography_enabled"`
	TeamAlignmentEnabled bool  `json:"team_alignment_enabled"`
}

// ObjectiveWeights carries independent axis weights for customers and
// prospects — the two account populations are weighted separately because
// continuity has no meaning for an account with no prior owner.
type ObjectiveWeights struct {
	Customers AxisWeights `json:"customers"`
	Prospects AxisWeights `json:"prospects"`
}

// StabilityFlags turns individual lock kinds on or off and configures the
// day-windows for the two time-based locks. See internal/territory/locks.
type StabilityFlags struct {
	ManualLockEnabled            bool `json:"manual_lock_enabled"`
	CRERiskLockEnabled           bool `json:"cre_risk_lock_enabled"`
	RenewalSoonLockEnabled       bool `json:"renewal_soon_lock_enabled"`
	RenewalSoonWindowDays        int  `json:"renewal_soon_window_days"`
	PEFirmLockEnabled            bool `json:"pe_firm_lock_enabled"`
	RecentChangeLockEnabled      bool `json:"recent_change_lock_enabled"`
	RecentChangeWindowDays       int  `json:"recent_change_window_days"`
	BackfillMigrationLockEnabled bool `json:"backfill_migration_lock_enabled"`
}

// ConstraintFlags turns hard structural constraints on or off.
type ConstraintFlags struct {
	StrategicPoolEnabled     bool `json:"strategic_pool_enabled"`
	LockedAccountsEnabled    bool `json:"locked_accounts_enabled"`
	ParentChildLinkingEnabled bool `json:"parent_child_linking_enabled"`
	CapacityHardCapEnabled   bool `json:"capacity_hard_cap_enabled"`
}

// BalancePenalty is one metric's contribution to the balance objective term:
// whether it's counted at all, and how heavily.
type BalancePenalty struct {
	Enabled bool    `json:"enabled"`
	Weight  float64 `json:"weight"`
}

// BalancePenalties configures the per-metric balance terms added to the
// relaxed engine's objective and reported by the metrics calculator.
type BalancePenalties struct {
	ARR      BalancePenalty `json:"arr"`
	ATR      BalancePenalty `json:"atr"`
	Pipeline BalancePenalty `json:"pipeline"`
}

// PriorityStep is one stage of the waterfall engine: a named rule, its
// position in the cascade, and whether it runs at all.
type PriorityStep struct {
	ID       string `json:"id"`
	Enabled  bool   `json:"enabled"`
	Position int    `json:"position"`
}

// Configuration is the immutable policy snapshot passed into a single
// solve. Nothing about a solve may read global or mutable state outside
// this struct and the account/rep sets it's paired with.
type Configuration struct {
	Mode               SolveMode         `json:"mode"`
	ObjectiveWeights   ObjectiveWeights  `json:"objective_weights"`
	StabilityFlags     StabilityFlags    `json:"stability_flags"`
	ConstraintFlags    ConstraintFlags   `json:"constraint_flags"`
	BalancePenalties   BalancePenalties  `json:"balance_penalties"`
	TerritoryMappings  map[string]string `json:"territory_mappings"`
	PriorityConfig     []PriorityStep    `json:"priority_config"`
}
