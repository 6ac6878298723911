// Package metrics computes the post-solve quality metrics of C10:
// per-rep load balance (via coefficient of variation), continuity and
// geography/tier match rates, and capacity utilization.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/classify"
)

const highValueThreshold = 500_000

// Result is the full metrics report for one completed solve.
type Result struct {
	ARRCV                  float64
	ATRCV                  float64
	PipelineCV             float64
	ContinuityRate         float64
	HighValueContinuityRate float64
	GeographyExactRate     float64
	GeographyInRegionRate  float64
	GeographyCrossRegionRate float64
	TierExactRate          float64
	TierOneLevelRate       float64
	TierNARate             float64
	CapacityUtilizationMax float64
	CapacityUtilizationMean float64
	FeasibilitySlackTotal  float64
	TotalAccounts          int
	RepsOverCapacity       int
	SolveTimeMs            int64
}

// Params bundles the thresholds the calculator needs from configuration.
type Params struct {
	SiblingThreshold float64 // geography in-region cutoff, default 0.65
}

func DefaultParams() Params {
	return Params{SiblingThreshold: 0.65}
}

// AssignedScores is the score snapshot for one proposal, as computed by
// the objective builder — reused here rather than recomputed.
type AssignedScores struct {
	AccountID  string
	RepID      string
	Geography  float64
	Continuity float64
	TeamAlignment *float64
}

// Compute derives the full metrics report from the final account/rep
// sets, proposals, and their scores.
func Compute(accounts []domain.Account, reps []domain.Rep, assigned []AssignedScores, feasibilitySlackTotal float64, solveTimeMs int64, p Params) Result {
	accountByID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		accountByID[a.ID] = a
	}
	repByID := make(map[string]domain.Rep, len(reps))
	for _, r := range reps {
		repByID[r.ID] = r
	}

	loadARR := map[string]float64{}
	loadATR := map[string]float64{}
	loadPipeline := map[string]float64{}
	loadCount := map[string]int{}
	loadCRE := map[string]int{}

	var continuityMatches, highValueMatches, highValueTotal int
	var geoExact, geoInRegion, geoCross int
	var tierExact, tierOneLevel, tierNA int

	for _, s := range assigned {
		a := accountByID[s.AccountID]
		loadARR[s.RepID] += classify.EffectiveARR(a)
		loadATR[s.RepID] += a.ATR
		loadPipeline[s.RepID] += a.PipelineValue
		loadCount[s.RepID]++
		if a.CRERisk {
			loadCRE[s.RepID]++
		}

		if a.CurrentOwnerID != nil && *a.CurrentOwnerID == s.RepID {
			continuityMatches++
		}
		isHighValue := classify.EffectiveARR(a) >= highValueThreshold
		if isHighValue {
			highValueTotal++
			if a.CurrentOwnerID != nil && *a.CurrentOwnerID == s.RepID {
				highValueMatches++
			}
		}

		switch {
		case s.Geography == 1.0:
			geoExact++
			geoInRegion++
		case s.Geography >= p.SiblingThreshold:
			geoInRegion++
		case s.Geography <= 0.25:
			geoCross++
		}

		switch {
		case s.TeamAlignment == nil:
			tierNA++
		case *s.TeamAlignment == 1.0:
			tierExact++
			tierOneLevel++
		case *s.TeamAlignment >= 0.6:
			tierOneLevel++
		}
	}

	total := len(assigned)
	result := Result{
		TotalAccounts:         len(accounts),
		FeasibilitySlackTotal: feasibilitySlackTotal,
		SolveTimeMs:           solveTimeMs,
		ContinuityRate:        ratio(continuityMatches, total),
		HighValueContinuityRate: ratio(highValueMatches, highValueTotal),
		GeographyExactRate:    ratio(geoExact, total),
		GeographyInRegionRate: ratio(geoInRegion, total),
		GeographyCrossRegionRate: ratio(geoCross, total),
		TierExactRate:         ratio(tierExact, total),
		TierOneLevelRate:      ratio(tierOneLevel, total),
		TierNARate:            ratio(tierNA, total),
	}

	result.ARRCV = coefficientOfVariation(loadARR, reps)
	result.ATRCV = coefficientOfVariation(loadATR, reps)
	result.PipelineCV = coefficientOfVariation(loadPipeline, reps)

	var utilizations []float64
	for _, r := range reps {
		if r.CapacityMaxARR == nil || *r.CapacityMaxARR <= 0 {
			continue
		}
		u := loadARR[r.ID] / *r.CapacityMaxARR
		utilizations = append(utilizations, u)
		if u > 1.0+1e-9 {
			result.RepsOverCapacity++
		}
	}
	if len(utilizations) > 0 {
		result.CapacityUtilizationMax = maxOf(utilizations)
		result.CapacityUtilizationMean = stat.Mean(utilizations, nil)
	}

	return result
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// coefficientOfVariation computes stddev(load)/mean(load) * 100 over
// every rep's load (zero for reps with no assignments), returning 0 when
// mean is 0.
func coefficientOfVariation(load map[string]float64, reps []domain.Rep) float64 {
	if len(reps) == 0 {
		return 0
	}
	values := make([]float64, 0, len(reps))
	ids := make([]string, 0, len(reps))
	for _, r := range reps {
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	for _, id := range ids {
		values = append(values, load[id])
	}

	mean := stat.Mean(values, nil)
	if mean == 0 {
		return 0
	}
	stddev := stat.StdDev(values, nil)
	return stddev / mean * 100
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
