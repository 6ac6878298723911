package locks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/domain"
)

func strPtr(v string) *string        { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func allFlags() domain.StabilityFlags {
	return domain.StabilityFlags{
		ManualLockEnabled:            true,
		CRERiskLockEnabled:           true,
		RenewalSoonLockEnabled:       true,
		RenewalSoonWindowDays:        60,
		PEFirmLockEnabled:            true,
		RecentChangeLockEnabled:      true,
		RecentChangeWindowDays:       30,
		BackfillMigrationLockEnabled: true,
	}
}

func eligibleRep(id string) domain.Rep {
	return domain.Rep{ID: id, IsActive: true, IncludeInAssignments: true}
}

func TestEvaluate_ManualLockTakesPriority(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), ExcludeFromReassignment: true, CRERisk: true}
	reps := []domain.Rep{eligibleRep("r1")}

	locked, free := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	require.Len(t, locked, 1)
	assert.Empty(t, free)
	assert.Equal(t, KindManual, locked[0].Kind)
	assert.Equal(t, "r1", locked[0].RepID)
}

func TestEvaluate_BackfillMigration(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("source")}
	source := eligibleRep("source")
	source.IsBackfillSource = true
	source.BackfillTargetRepID = strPtr("target")
	reps := []domain.Rep{source, eligibleRep("target")}

	locked, _ := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	require.Len(t, locked, 1)
	assert.Equal(t, KindBackfillMigration, locked[0].Kind)
	assert.Equal(t, "target", locked[0].RepID)
}

func TestEvaluate_BackfillMigrationNoOpsWhenTargetIsIneligible(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("source")}
	source := eligibleRep("source")
	source.IsBackfillSource = true
	source.BackfillTargetRepID = strPtr("target")
	target := eligibleRep("target")
	target.IsActive = false
	reps := []domain.Rep{source, target}

	locked, free := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	assert.Empty(t, locked)
	require.Len(t, free, 1)
}

func TestEvaluate_CRERisk(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), CRERisk: true}
	reps := []domain.Rep{eligibleRep("r1")}

	locked, _ := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	require.Len(t, locked, 1)
	assert.Equal(t, KindCRERisk, locked[0].Kind)
}

func TestEvaluate_RenewalSoonWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	reps := []domain.Rep{eligibleRep("r1")}

	inWindow := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), RenewalDate: timePtr(now.AddDate(0, 0, 30))}
	outOfWindow := domain.Account{ID: "a2", CurrentOwnerID: strPtr("r1"), RenewalDate: timePtr(now.AddDate(0, 0, 90))}
	past := domain.Account{ID: "a3", CurrentOwnerID: strPtr("r1"), RenewalDate: timePtr(now.AddDate(0, 0, -1))}

	locked, free := Evaluate([]domain.Account{inWindow, outOfWindow, past}, reps, allFlags(), domain.ConstraintFlags{}, now)

	require.Len(t, locked, 1)
	assert.Equal(t, "a1", locked[0].AccountID)
	assert.Equal(t, KindRenewalSoon, locked[0].Kind)
	assert.Len(t, free, 2)
}

func TestEvaluate_PEFirm(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), PEFirm: strPtr("Acme Capital")}
	reps := []domain.Rep{eligibleRep("r1")}

	locked, _ := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	require.Len(t, locked, 1)
	assert.Equal(t, KindPEFirm, locked[0].Kind)
}

func TestEvaluate_RecentChangeWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	reps := []domain.Rep{eligibleRep("r1")}
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), OwnerChangeDate: timePtr(now.AddDate(0, 0, -10))}

	locked, _ := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	require.Len(t, locked, 1)
	assert.Equal(t, KindRecentChange, locked[0].Kind)
}

func TestEvaluate_NoOwnerFallsThroughToFree(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CRERisk: true} // no current owner
	reps := []domain.Rep{eligibleRep("r1")}

	locked, free := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	assert.Empty(t, locked)
	require.Len(t, free, 1)
}

func TestEvaluate_OwnerNoLongerEligibleFallsThroughToFree(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("gone"), CRERisk: true}
	reps := []domain.Rep{eligibleRep("r1")}

	locked, free := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	assert.Empty(t, locked)
	require.Len(t, free, 1)
}

func TestEvaluate_OwnerPresentButInactiveFallsThroughToFree(t *testing.T) {
	// The owner exists in the rep set (so a naive map-membership check
	// would pin the account) but is inactive, so it is invisible to
	// optimization and must not receive a lock.
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), CRERisk: true}
	inactive := eligibleRep("r1")
	inactive.IsActive = false
	reps := []domain.Rep{inactive}

	locked, free := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	assert.Empty(t, locked)
	require.Len(t, free, 1)
}

func TestEvaluate_OwnerExcludedFromAssignmentsFallsThroughToFree(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), CRERisk: true}
	reps := []domain.Rep{{ID: "r1", IsActive: true, IncludeInAssignments: false}}

	locked, free := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{}, now)

	assert.Empty(t, locked)
	require.Len(t, free, 1)
}

func TestEvaluate_StrategicPoolClosureBlocksMismatchedOwner(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), CRERisk: true, IsStrategic: true}
	nonStrategicRep := eligibleRep("r1")
	nonStrategicRep.IsStrategicRep = false
	reps := []domain.Rep{nonStrategicRep}

	locked, free := Evaluate([]domain.Account{a}, reps, allFlags(), domain.ConstraintFlags{StrategicPoolEnabled: true}, now)

	assert.Empty(t, locked)
	require.Len(t, free, 1)
}

func TestEvaluate_FlagsDisabledSkipsLock(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	a := domain.Account{ID: "a1", CurrentOwnerID: strPtr("r1"), CRERisk: true}
	reps := []domain.Rep{eligibleRep("r1")}

	locked, free := Evaluate([]domain.Account{a}, reps, domain.StabilityFlags{}, domain.ConstraintFlags{}, now)

	assert.Empty(t, locked)
	require.Len(t, free, 1)
}
