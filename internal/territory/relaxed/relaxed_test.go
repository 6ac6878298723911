package relaxed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/model"
	"github.com/aristath/sentinel/internal/territory/scoring"
	"github.com/aristath/sentinel/internal/territory/solver"
)

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

func TestSolve_NoFreeAccountsReturnsEmptyOutcome(t *testing.T) {
	out := Solve(context.Background(), nil, nil, domain.Configuration{}, Params{})
	assert.Empty(t, out.Proposals)
	assert.Empty(t, out.Unassigned)
}

func TestSolve_AssignsSingleAccountToOnlyEligibleRep(t *testing.T) {
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true}}
	p := Params{ModelParams: baseModelParams(), Dispatcher: testDispatcher(), Session: solver.NewSession(10)}

	out := Solve(context.Background(), accounts, reps, domain.Configuration{}, p)

	require.Len(t, out.Proposals, 1)
	assert.Equal(t, "r1", out.Proposals[0].RepID)
	assert.NotEmpty(t, out.Proposals[0].PriorityLabel)
}

func TestSolve_NoEligibleRepReportsUnassigned(t *testing.T) {
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: false}}
	p := Params{ModelParams: baseModelParams(), Dispatcher: testDispatcher(), Session: solver.NewSession(10)}

	out := Solve(context.Background(), accounts, reps, domain.Configuration{}, p)

	require.Empty(t, out.Proposals)
	require.Len(t, out.Unassigned, 1)
	assert.Equal(t, domain.CauseNoEligibleRep, out.Unassigned[0].Cause)
}

func TestSolve_InfeasibleCapacityReportsSpecificCause(t *testing.T) {
	count0 := 0
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100}}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: true, CapacityMaxAccounts: &count0}}
	cfg := domain.Configuration{ConstraintFlags: domain.ConstraintFlags{CapacityHardCapEnabled: true}}
	p := Params{ModelParams: baseModelParams(), Dispatcher: testDispatcher(), Session: solver.NewSession(10)}

	out := Solve(context.Background(), accounts, reps, cfg, p)

	require.Empty(t, out.Proposals)
	require.Len(t, out.Unassigned, 1)
	assert.Equal(t, domain.CauseInfeasibleCapacity, out.Unassigned[0].Cause)
}

func TestSolve_PrefersCurrentOwnerViaContinuity(t *testing.T) {
	owner := "r1"
	accounts := []domain.Account{{ID: "a1", ARRPrimary: 100, CurrentOwnerID: &owner}}
	reps := []domain.Rep{
		{ID: "r1", IsActive: true, IncludeInAssignments: true},
		{ID: "r2", IsActive: true, IncludeInAssignments: true},
	}
	p := Params{ModelParams: baseModelParams(), Dispatcher: testDispatcher(), Session: solver.NewSession(10)}

	out := Solve(context.Background(), accounts, reps, domain.Configuration{}, p)

	require.Len(t, out.Proposals, 1)
	assert.Equal(t, "r1", out.Proposals[0].RepID)
	require.NotNil(t, out.Proposals[0].Scores.Continuity)
	assert.Greater(t, *out.Proposals[0].Scores.Continuity, 0.0)
}
