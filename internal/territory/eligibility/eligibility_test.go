package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/domain"
)

func strPtr(v string) *string { return &v }

func TestCompute_BaseActiveOnly(t *testing.T) {
	accounts := []domain.Account{{ID: "a1"}}
	reps := []domain.Rep{
		{ID: "r1", IsActive: true, IncludeInAssignments: true},
		{ID: "r2", IsActive: false, IncludeInAssignments: true},
		{ID: "r3", IsActive: true, IncludeInAssignments: false},
	}

	result := Compute(accounts, reps, domain.ConstraintFlags{}, map[string]string{})

	require.Contains(t, result.Eligible, "a1")
	assert.Len(t, result.Eligible["a1"], 1)
	assert.Equal(t, "r1", result.Eligible["a1"][0].ID)
}

func TestCompute_NoEligibleRepProducesUnassigned(t *testing.T) {
	accounts := []domain.Account{{ID: "a1"}}
	reps := []domain.Rep{{ID: "r1", IsActive: false}}

	result := Compute(accounts, reps, domain.ConstraintFlags{}, map[string]string{})

	assert.Empty(t, result.Eligible)
	require.Len(t, result.Unassigned, 1)
	assert.Equal(t, domain.CauseNoEligibleRep, result.Unassigned[0].Cause)
}

func TestCompute_StrategicPoolClosure(t *testing.T) {
	flags := domain.ConstraintFlags{StrategicPoolEnabled: true}
	accounts := []domain.Account{{ID: "a1", IsStrategic: true}}
	reps := []domain.Rep{
		{ID: "r1", IsActive: true, IncludeInAssignments: true, IsStrategicRep: true},
		{ID: "r2", IsActive: true, IncludeInAssignments: true, IsStrategicRep: false},
	}

	result := Compute(accounts, reps, flags, map[string]string{})

	require.Len(t, result.Eligible["a1"], 1)
	assert.Equal(t, "r1", result.Eligible["a1"][0].ID)
}

func TestCompute_ParentChildLinkingNarrowsToParentRep(t *testing.T) {
	flags := domain.ConstraintFlags{ParentChildLinkingEnabled: true}
	parent := domain.Account{ID: "parent"}
	child := domain.Account{ID: "child", ParentID: strPtr("parent")}
	reps := []domain.Rep{
		{ID: "r1", IsActive: true, IncludeInAssignments: true},
		{ID: "r2", IsActive: true, IncludeInAssignments: true},
	}

	result := Compute([]domain.Account{parent, child}, reps, flags, map[string]string{"parent": "r2"})

	require.Len(t, result.Eligible["child"], 1)
	assert.Equal(t, "r2", result.Eligible["child"][0].ID)
}

func TestCompute_ParentUnresolvedLeavesChildUnrestricted(t *testing.T) {
	flags := domain.ConstraintFlags{ParentChildLinkingEnabled: true}
	parent := domain.Account{ID: "parent"}
	child := domain.Account{ID: "child", ParentID: strPtr("parent")}
	reps := []domain.Rep{
		{ID: "r1", IsActive: true, IncludeInAssignments: true},
		{ID: "r2", IsActive: true, IncludeInAssignments: true},
	}

	result := Compute([]domain.Account{parent, child}, reps, flags, map[string]string{})

	assert.Len(t, result.Eligible["child"], 2)
}

func TestCompute_DeterministicOrdering(t *testing.T) {
	accounts := []domain.Account{{ID: "a1"}}
	reps := []domain.Rep{
		{ID: "r3", IsActive: true, IncludeInAssignments: true},
		{ID: "r1", IsActive: true, IncludeInAssignments: true},
		{ID: "r2", IsActive: true, IncludeInAssignments: true},
	}

	result := Compute(accounts, reps, domain.ConstraintFlags{}, map[string]string{})

	ids := []string{result.Eligible["a1"][0].ID, result.Eligible["a1"][1].ID, result.Eligible["a1"][2].ID}
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids)
}
