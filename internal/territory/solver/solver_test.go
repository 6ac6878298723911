package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/eligibility"
	"github.com/aristath/sentinel/internal/territory/model"
	"github.com/aristath/sentinel/internal/territory/scoring"
)

func buildLP(t *testing.T, accounts []domain.Account, reps []domain.Rep, flags domain.ConstraintFlags) string {
	t.Helper()
	elig := eligibility.Compute(accounts, reps, flags, map[string]string{})
	params := model.Params{
		CustomerWeights: model.Weights{Continuity: 0.4, Geography: 0.3, TeamAlignment: 0.3},
		ProspectWeights: model.Weights{Geography: 0.6, TeamAlignment: 0.4},
		Geography:       scoring.DefaultGeographyParams(),
		Continuity:      scoring.DefaultContinuityParams(),
		TeamAlignment:   scoring.DefaultTeamAlignmentParams(),
		ConstraintFlags: flags,
		Now:             func() int64 { return 1_700_000_000 },
	}
	b := model.NewBuilder(accounts, reps, elig, params)
	return b.Build().Render()
}

func TestParseLP_RoundTripsModelOutput(t *testing.T) {
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	lp := buildLP(t, accounts, reps, domain.ConstraintFlags{})

	pm := parseLP(lp)

	assert.Contains(t, pm.vars, "x_a1_r1")
	assert.Equal(t, "a1", pm.accountOf["x_a1_r1"])
	assert.Equal(t, "r1", pm.repOf["x_a1_r1"])
}

func TestGreedySolve_SingleFeasibleAssignment(t *testing.T) {
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	pm := parseLP(buildLP(t, accounts, reps, domain.ConstraintFlags{}))

	sol := greedySolve(pm)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 1.0, sol.Columns["x_a1_r1"])
}

func TestGreedySolve_RespectsHardCapacity(t *testing.T) {
	cap := 50.0
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true, CapacityMaxARR: &cap}}
	flags := domain.ConstraintFlags{CapacityHardCapEnabled: true}
	pm := parseLP(buildLP(t, accounts, reps, flags))

	sol := greedySolve(pm)

	assert.Equal(t, StatusInfeasible, sol.Status)
	assert.Empty(t, sol.Columns)
}

func TestGreedySolve_PicksCheaperRepWhenBothFeasible(t *testing.T) {
	ownerID := "r1"
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100, CurrentOwnerID: &ownerID}}
	reps := []domain.Rep{
		{ID: "r1", IsActive: true, IncludeInAssignments: true}, // current owner: higher continuity score
		{ID: "r2", IsActive: true, IncludeInAssignments: true},
	}
	pm := parseLP(buildLP(t, accounts, reps, domain.ConstraintFlags{}))

	sol := greedySolve(pm)

	assert.Equal(t, 1.0, sol.Columns["x_a1_r1"])
}

func TestLocalSolver_Solve(t *testing.T) {
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	lp := buildLP(t, accounts, reps, domain.ConstraintFlags{})

	s := NewLocalSolver()
	sol, err := s.Solve(context.Background(), lp, time.Second)

	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
}

func TestLocalSolver_RespectsCancelledContext(t *testing.T) {
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	lp := buildLP(t, accounts, reps, domain.ConstraintFlags{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewLocalSolver()
	_, err := s.Solve(ctx, lp, time.Second)
	assert.Error(t, err)
}

func TestHeuristicSolver_SwapPassImprovesOnGreedyFirstCome(t *testing.T) {
	// a1 is processed first (alphabetical) and only mildly prefers r1,
	// but claims it under naive greedy because it's a1's own cheapest
	// option. a2 — processed second — strongly prefers r1 but is locked
	// out by the count=1 capacity row, leaving a worse total cost than
	// swapping the two accounts' reps would achieve.
	pm := parsedModel{
		vars:      []string{"x_a1_r1", "x_a1_r2", "x_a2_r1", "x_a2_r2"},
		accountOf: map[string]string{"x_a1_r1": "a1", "x_a1_r2": "a1", "x_a2_r1": "a2", "x_a2_r2": "a2"},
		repOf:     map[string]string{"x_a1_r1": "r1", "x_a1_r2": "r2", "x_a2_r1": "r1", "x_a2_r2": "r2"},
		objective: map[string]float64{"x_a1_r1": -0.5, "x_a1_r2": -0.4, "x_a2_r1": -1.0, "x_a2_r2": -0.1},
		zeroVars:  map[string]bool{},
		capRows: []capRow{
			{repID: "r1", dimension: "count", terms: map[string]float64{"x_a1_r1": 1, "x_a2_r1": 1}, rhs: 1},
			{repID: "r2", dimension: "count", terms: map[string]float64{"x_a1_r2": 1, "x_a2_r2": 1}, rhs: 1},
		},
	}

	sol := greedySolve(pm)
	require.Equal(t, StatusOptimal, sol.Status)
	require.Equal(t, 1.0, sol.Columns["x_a1_r1"])
	require.Equal(t, 1.0, sol.Columns["x_a2_r2"])

	improved := swapPass(pm, &sol)

	assert.True(t, improved)
	assert.Equal(t, 1.0, sol.Columns["x_a1_r2"])
	assert.Equal(t, 1.0, sol.Columns["x_a2_r1"])
	assert.InDelta(t, -1.4, sol.ObjectiveValue, 1e-9)
}

func TestHeuristicSolver_Solve(t *testing.T) {
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	lp := buildLP(t, accounts, reps, domain.ConstraintFlags{})

	s := NewHeuristicSolver()
	sol, err := s.Solve(context.Background(), lp, 5*time.Second)

	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, 1.0, sol.Columns["x_a1_r1"])
}

func TestSession_TryConsumeRemoteCall_RespectsQuota(t *testing.T) {
	s := NewSession(2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, s.TryConsumeRemoteCall(now))
	assert.True(t, s.TryConsumeRemoteCall(now))
	assert.False(t, s.TryConsumeRemoteCall(now))
	assert.Equal(t, 2, s.RemoteCallsToday())
}

func TestSession_TryConsumeRemoteCall_ResetsAtMidnightUTC(t *testing.T) {
	s := NewSession(1)
	day1 := time.Date(2026, 1, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 2, 0, 1, 0, 0, time.UTC)

	assert.True(t, s.TryConsumeRemoteCall(day1))
	assert.False(t, s.TryConsumeRemoteCall(day1))
	assert.True(t, s.TryConsumeRemoteCall(day2))
}

func TestDefaultThresholdsForHardware_ScalesLocalMaxVarsButNeverExceedsSecondary(t *testing.T) {
	base := DefaultThresholds()
	scaled := DefaultThresholdsForHardware()

	assert.GreaterOrEqual(t, scaled.LocalMaxVars, base.LocalMaxVars)
	assert.LessOrEqual(t, scaled.LocalMaxVars, scaled.SecondaryMaxVars)
	assert.Equal(t, base.SecondaryMaxVars, scaled.SecondaryMaxVars)
}
