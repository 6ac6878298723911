package waterfall

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/locks"
	"github.com/aristath/sentinel/internal/territory/model"
	"github.com/aristath/sentinel/internal/territory/scoring"
	"github.com/aristath/sentinel/internal/territory/solver"
)

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func baseModelParams() model.Params {
	return model.Params{
		CustomerWeights: model.Weights{Continuity: 0.4, Geography: 0.3, TeamAlignment: 0.3},
		ProspectWeights: model.Weights{Geography: 0.6, TeamAlignment: 0.4},
		Geography:       scoring.DefaultGeographyParams(),
		Continuity:      scoring.DefaultContinuityParams(),
		TeamAlignment:   scoring.DefaultTeamAlignmentParams(),
		Now:             func() int64 { return 1_700_000_000 },
	}
}

func testDispatcher() *solver.Dispatcher {
	return solver.NewDispatcher(solver.NewLocalSolver(), nil, solver.NewHeuristicSolver(), solver.DefaultThresholds(), zerolog.Nop())
}

func TestParseStepKind(t *testing.T) {
	kind, ok := ParseStepKind("geo_and_continuity")
	require.True(t, ok)
	assert.Equal(t, StepGeographyContinuityCombined, kind)

	_, ok = ParseStepKind("not_a_real_step")
	assert.False(t, ok)
}

func TestOrderedSteps_FiltersDisabledAndSortsByPosition(t *testing.T) {
	cfg := []domain.PriorityStep{
		{ID: "residual_optimization", Enabled: true, Position: 2},
		{ID: "manual_holdover", Enabled: true, Position: 0},
		{ID: "team_alignment", Enabled: false, Position: 1},
	}

	steps := orderedSteps(cfg)

	assert.Equal(t, []StepKind{StepManualHoldover, StepResidualOptimization}, steps)
}

func TestSolve_ManualHoldoverEmitsUnconditionalProposal(t *testing.T) {
	owner := "r1"
	a := domain.Account{ID: "a1", CurrentOwnerID: &owner, ARRPrimary: 100, ExcludeFromReassignment: true}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	lockedAccounts := []locks.Lock{{AccountID: "a1", RepID: "r1", Kind: locks.KindManual}}
	cfg := domain.Configuration{
		PriorityConfig: []domain.PriorityStep{{ID: "manual_holdover", Enabled: true, Position: 0}},
	}
	p := Params{
		ModelParams: baseModelParams(),
		Thresholds:  DefaultThresholds(),
		Dispatcher:  testDispatcher(),
		Session:     solver.NewSession(10),
		Log:         zerolog.Nop(),
	}

	out := Solve(context.Background(), []domain.Account{a}, nil, lockedAccounts, reps, cfg, p)

	require.Len(t, out.Proposals, 1)
	assert.Equal(t, "r1", out.Proposals[0].RepID)
	assert.Equal(t, "P0", out.Proposals[0].PriorityLabel)
	assert.Empty(t, out.Unassigned)
	require.NotNil(t, out.Proposals[0].Scores.Geography, "locked proposals must carry real scores, not the zero value")
	require.NotNil(t, out.Proposals[0].Scores.Continuity)
}

func TestSolve_StabilityLockReleasedWhenOverCapacity(t *testing.T) {
	owner := "r1"
	locked := domain.Account{ID: "a1", CurrentOwnerID: &owner, ARRPrimary: 100, CRERisk: true}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true, CapacityMaxAccounts: intPtr(0)}}
	lockedAccounts := []locks.Lock{{AccountID: "a1", RepID: "r1", Kind: locks.KindCRERisk}}
	cfg := domain.Configuration{
		ConstraintFlags: domain.ConstraintFlags{CapacityHardCapEnabled: true},
		PriorityConfig: []domain.PriorityStep{
			{ID: "stability_accounts", Enabled: true, Position: 0},
			{ID: "residual_optimization", Enabled: true, Position: 1},
		},
	}
	p := Params{
		ModelParams: baseModelParams(),
		Thresholds:  DefaultThresholds(),
		Dispatcher:  testDispatcher(),
		Session:     solver.NewSession(10),
		Log:         zerolog.Nop(),
	}

	out := Solve(context.Background(), []domain.Account{locked}, nil, lockedAccounts, reps, cfg, p)

	// Released from its lock by P1 (capacity already at 0), then placed by
	// residual optimization back onto the only rep available — but that
	// rep is still capped at 0 accounts, so it ends up unassigned.
	require.Empty(t, out.Proposals)
	require.Len(t, out.Unassigned, 1)
	assert.Equal(t, "a1", out.Unassigned[0].AccountID)
}

func TestSolve_ResidualOptimizationAssignsFreeAccount(t *testing.T) {
	free := domain.Account{ID: "a1", ARRPrimary: 100}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	cfg := domain.Configuration{
		PriorityConfig: []domain.PriorityStep{{ID: "residual_optimization", Enabled: true, Position: 0}},
	}
	p := Params{
		ModelParams: baseModelParams(),
		Thresholds:  DefaultThresholds(),
		Dispatcher:  testDispatcher(),
		Session:     solver.NewSession(10),
		Log:         zerolog.Nop(),
	}

	out := Solve(context.Background(), []domain.Account{free}, []domain.Account{free}, nil, reps, cfg, p)

	require.Len(t, out.Proposals, 1)
	assert.Equal(t, "r1", out.Proposals[0].RepID)
	assert.Equal(t, "RO", out.Proposals[0].PriorityLabel)
}

func TestSolve_AccountUnassignedWhenNoStepConfigured(t *testing.T) {
	free := domain.Account{ID: "a1", ARRPrimary: 100}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	cfg := domain.Configuration{}
	p := Params{
		ModelParams: baseModelParams(),
		Thresholds:  DefaultThresholds(),
		Dispatcher:  testDispatcher(),
		Session:     solver.NewSession(10),
		Log:         zerolog.Nop(),
	}

	out := Solve(context.Background(), []domain.Account{free}, []domain.Account{free}, nil, reps, cfg, p)

	require.Empty(t, out.Proposals)
	require.Len(t, out.Unassigned, 1)
	assert.Equal(t, domain.CauseNoEligibleRep, out.Unassigned[0].Cause)
}

func TestSolve_GeographyOnlyStageNarrowsThenFallsThroughToResidual(t *testing.T) {
	distant := strPtr("APAC")
	a := domain.Account{ID: "a1", ARRPrimary: 100, TerritoryRaw: distant}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true, Region: "AMER_WEST"}}
	cfg := domain.Configuration{
		PriorityConfig: []domain.PriorityStep{
			{ID: "geography_only", Enabled: true, Position: 0},
			{ID: "residual_optimization", Enabled: true, Position: 1},
		},
	}
	p := Params{
		ModelParams: baseModelParams(),
		Thresholds:  DefaultThresholds(),
		Dispatcher:  testDispatcher(),
		Session:     solver.NewSession(10),
		Log:         zerolog.Nop(),
	}

	out := Solve(context.Background(), []domain.Account{a}, []domain.Account{a}, nil, reps, cfg, p)

	// geography_only rejects the cross-macro pairing, but residual
	// optimization has no predicate and still places it.
	require.Len(t, out.Proposals, 1)
	assert.Equal(t, "RO", out.Proposals[0].PriorityLabel)
}
