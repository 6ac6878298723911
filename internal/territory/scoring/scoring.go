// Package scoring computes the three per-(account, rep) axis scores that
// drive both the assignment objective and the rationale generator:
// geography, continuity, and team alignment. Every function here is pure,
// deterministic, and total — scores are always in [0, 1] or nil, never an
// error. The style mirrors the teacher's weighted sub-score scorers: a
// clamped weighted sum of normalized sub-signals.
package scoring

import (
	"math"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/classify"
)

// GeographyParams holds the configurable band constants for 4.3.1; zero
// value is invalid, use DefaultGeographyParams.
type GeographyParams struct {
	Unknown    float64
	Sibling    float64
	SameMacro  float64
	CrossMacro float64
}

func DefaultGeographyParams() GeographyParams {
	return GeographyParams{Unknown: 0.50, Sibling: 0.65, SameMacro: 0.40, CrossMacro: 0.20}
}

// Geography scores an (account, rep) pair on region match. Unknown
// territory on either side scores 0.50; identical region scores 1.00;
// sibling regions within the same macro score 0.65; same macro but not
// siblings scores 0.40; otherwise 0.20.
func Geography(territoryRaw *string, territoryMappings map[string]string, repRegion string, p GeographyParams) float64 {
	accountRegion := classify.RegionOf(territoryRaw, territoryMappings)
	repRegionCanon := classify.RegionOf(&repRegion, territoryMappings)
	if repRegionCanon == nil {
		// The rep's region field is itself canonical, not raw; fall back to
		// treating it as already-resolved if it doesn't match a mapping.
		r := classify.Region(repRegion)
		repRegionCanon = &r
	}
	if accountRegion == nil || repRegion == "" {
		return p.Unknown
	}
	if *accountRegion == *repRegionCanon {
		return 1.00
	}
	if classify.AreSiblings(*accountRegion, *repRegionCanon) {
		return p.Sibling
	}
	if classify.RegionParent(*accountRegion) != "" && classify.RegionParent(*accountRegion) == classify.RegionParent(*repRegionCanon) {
		return p.SameMacro
	}
	return p.CrossMacro
}

// ContinuityParams holds the configurable constants for 4.3.2.
type ContinuityParams struct {
	Base          float64
	WeightTenure  float64
	WeightBackfillCount float64
	WeightValue   float64
	TenureMaxDays float64
	MaxOwners     float64
	ValueThreshold float64
}

func DefaultContinuityParams() ContinuityParams {
	return ContinuityParams{
		Base:           0.30,
		WeightTenure:   0.30,
		WeightBackfillCount: 0.20,
		WeightValue:    0.20,
		TenureMaxDays:  730,
		MaxOwners:      5,
		ValueThreshold: 500_000,
	}
}

// Continuity scores how much keeping a rep preserves relationship
// continuity. Returns 0 when the rep is not the account's current owner,
// is a backfill source, or the account has no current owner.
func Continuity(a domain.Account, r domain.Rep, now time.Time, p ContinuityParams) float64 {
	if a.CurrentOwnerID == nil {
		return 0
	}
	if *a.CurrentOwnerID != r.ID {
		return 0
	}
	if r.IsBackfillSource {
		return 0
	}

	var daysSinceChange float64
	if a.OwnerChangeDate != nil {
		daysSinceChange = now.Sub(*a.OwnerChangeDate).Hours() / 24
	}
	tenureTerm := math.Min(1, math.Max(0, daysSinceChange)/p.TenureMaxDays)

	var backfillTerm float64
	if p.MaxOwners > 1 {
		backfillTerm = math.Max(0, 1-(float64(a.OwnersLifetimeCount)-1)/(p.MaxOwners-1))
	}

	valueTerm := math.Min(1, classify.EffectiveARR(a)/p.ValueThreshold)

	score := p.Base + p.WeightTenure*tenureTerm + p.WeightBackfillCount*backfillTerm + p.WeightValue*valueTerm
	return math.Max(0, math.Min(1, score))
}

// TeamAlignmentParams holds the configurable constants for 4.3.3.
type TeamAlignmentParams struct {
	ReachingDownPenalty float64
}

func DefaultTeamAlignmentParams() TeamAlignmentParams {
	return TeamAlignmentParams{ReachingDownPenalty: 0.05}
}

var tierDistanceScore = map[int]float64{0: 1.00, 1: 0.60, 2: 0.25}
const tierDistanceFarScore = 0.05

// TeamAlignment scores tier match between account and rep. Returns nil
// when either side's tier is unknown — callers treat nil as "not
// applicable", never as a mismatch.
func TeamAlignment(employees *int, repTeamTier *string, p TeamAlignmentParams) *float64 {
	if employees == nil || repTeamTier == nil {
		return nil
	}
	repTier, ok := classify.ParseTeamTier(*repTeamTier)
	if !ok {
		return nil
	}
	accountTier := classify.ClassifyTeamTier(employees)

	distance := int(accountTier) - int(repTier)
	absDistance := distance
	if absDistance < 0 {
		absDistance = -absDistance
	}

	var score float64
	if absDistance >= 3 {
		score = tierDistanceFarScore
	} else {
		score = tierDistanceScore[absDistance]
	}

	if int(repTier) > int(accountTier) {
		score = math.Max(0, score-p.ReachingDownPenalty*float64(absDistance))
	}

	return &score
}

// TeamAlignmentOrNeutral replaces a nil team-alignment score with the
// neutral constant used for cost-coefficient purposes only (§4.6); the
// nil distinction itself is preserved for rationale and metrics and must
// not be lost by calling this before those consumers run.
func TeamAlignmentOrNeutral(score *float64) float64 {
	if score == nil {
		return 0.5
	}
	return *score
}
