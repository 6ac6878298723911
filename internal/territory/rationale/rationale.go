// Package rationale builds the structured explanation attached to every
// proposal (C11): a label, a dominant axis, and a percentage breakdown.
// A Rationale is a value, rendered to a string by exactly one serializer
// — never assembled by scattered string interpolation elsewhere.
package rationale

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// Axis names a scoring dimension for breakdown purposes.
type Axis string

const (
	AxisGeography     Axis = "geography"
	AxisContinuity    Axis = "continuity"
	AxisTeamAlignment Axis = "team_alignment"
	AxisCombined      Axis = "geo_and_continuity"
	AxisBalance       Axis = "RO"
)

// Contribution is one axis's percentage share of the total positive
// score, part of the breakdown.
type Contribution struct {
	Axis       Axis
	Percentage float64
}

// Rationale is the full structured explanation for one proposal.
type Rationale struct {
	Label        string
	DominantAxis Axis
	Reason       string
	Breakdown    []Contribution
	AccountValue float64 // effective ARR driving the continuity note; 0 when not applicable
}

var naturalLanguage = map[Axis]string{
	AxisGeography:     "exact geographic match",
	AxisContinuity:    "relationship continuity",
	AxisTeamAlignment: "team tier alignment",
	AxisCombined:      "geography and continuity alignment",
	AxisBalance:       "capacity balance",
}

const breakdownInclusionThreshold = 0.10

// Params bundles the thresholds §4.11 needs from configuration.
type Params struct {
	SiblingThreshold          float64
	ParentContinuityThreshold float64
	LowScoreThreshold         float64 // default 0.30
	HighValueARRThreshold     float64 // effective ARR at or above which a continuity rationale notes the account's value
}

func DefaultParams() Params {
	return Params{SiblingThreshold: 0.65, ParentContinuityThreshold: 0.50, LowScoreThreshold: 0.30, HighValueARRThreshold: 250_000}
}

// Weights are the resolved axis weights used for the proposal being
// explained, so contributions reflect what actually drove the objective.
type Weights struct {
	Geography     float64
	Continuity    float64
	TeamAlignment float64
}

// FromLock builds the rationale for an account pinned by a stability
// lock (§4.4): label is the position the active priority_config resolves
// for the lock's stage, reason names the specific lock.
func FromLock(positionLabel, reason string) Rationale {
	return Rationale{Label: positionLabel, DominantAxis: "", Reason: reason}
}

// FromScores builds the rationale for an optimized (non-locked)
// proposal: dominant-factor selection and breakdown per §4.11, steps 2-5.
// resolveLabel maps the dominant axis to the label for the mode/config in
// effect (e.g. "P_geography" in waterfall, or a dominance label in
// relaxed mode — callers pass whichever their engine computes).
func FromScores(geo, cont float64, team *float64, w Weights, accountValue float64, resolveLabel func(Axis) string, p Params) Rationale {
	teamForCost := 0.5
	if team != nil {
		teamForCost = *team
	}

	type axisScore struct {
		axis   Axis
		score  float64
		weight float64
		null   bool
	}
	axes := []axisScore{
		{AxisGeography, geo, w.Geography, false},
		{AxisContinuity, cont, w.Continuity, false},
		{AxisTeamAlignment, teamForCost, w.TeamAlignment, team == nil},
	}

	var total float64
	weighted := make(map[Axis]float64, len(axes))
	for _, a := range axes {
		if a.null || a.weight <= 0 {
			continue
		}
		w := a.score * a.weight
		weighted[a.axis] = w
		total += w
	}

	var breakdown []Contribution
	contributions := make(map[Axis]float64, len(weighted))
	if total > 0 {
		for _, a := range axes {
			w, ok := weighted[a.axis]
			if !ok {
				continue
			}
			pct := w / total
			contributions[a.axis] = pct
			if pct >= breakdownInclusionThreshold {
				breakdown = append(breakdown, Contribution{Axis: a.axis, Percentage: pct})
			}
		}
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Percentage > breakdown[j].Percentage })

	dominant := dominantAxis(geo, cont, contributions, p)
	if total < p.LowScoreThreshold {
		dominant = AxisBalance
	}

	value := 0.0
	if dominant == AxisContinuity && accountValue >= p.HighValueARRThreshold {
		value = accountValue
	}

	return Rationale{
		Label:        resolveLabel(dominant),
		DominantAxis: dominant,
		Breakdown:    breakdown,
		AccountValue: value,
	}
}

func dominantAxis(geo, cont float64, contributions map[Axis]float64, p Params) Axis {
	if geo >= p.SiblingThreshold && cont >= p.ParentContinuityThreshold {
		return AxisCombined
	}
	var best Axis
	var bestPct float64
	// Iterate a fixed axis order so ties resolve deterministically.
	for _, axis := range []Axis{AxisGeography, AxisContinuity, AxisTeamAlignment} {
		if pct, ok := contributions[axis]; ok && pct > bestPct {
			bestPct = pct
			best = axis
		}
	}
	return best
}

// Render serializes a Rationale to the human-readable string persisted
// on the proposal — the single place breakdown text is assembled.
func (r Rationale) Render() string {
	if r.Reason != "" {
		return r.Reason
	}
	if len(r.Breakdown) == 1 {
		if phrase, ok := naturalLanguage[r.Breakdown[0].Axis]; ok {
			if r.DominantAxis == AxisContinuity && r.AccountValue > 0 {
				return fmt.Sprintf("%s, high-value relationship (%s ARR)", phrase, FormatCurrency(r.AccountValue))
			}
			return phrase
		}
	}
	parts := make([]string, 0, len(r.Breakdown))
	for _, c := range r.Breakdown {
		parts = append(parts, fmt.Sprintf("%s (%.0f%%)", axisDisplayName(c.Axis), c.Percentage*100))
	}
	rendered := strings.Join(parts, ", ")
	if r.DominantAxis == AxisContinuity && r.AccountValue > 0 {
		rendered = fmt.Sprintf("%s, high-value relationship (%s ARR)", rendered, FormatCurrency(r.AccountValue))
	}
	return rendered
}

// FormatCurrency renders a currency amount the way breakdown strings that
// reference value thresholds (e.g. continuity's high-value component)
// present it to a human reader.
func FormatCurrency(amount float64) string {
	return "$" + humanize.Comma(int64(amount))
}

func axisDisplayName(a Axis) string {
	switch a {
	case AxisGeography:
		return "Geography"
	case AxisContinuity:
		return "Continuity"
	case AxisTeamAlignment:
		return "Team alignment"
	case AxisCombined:
		return "Geography + continuity"
	case AxisBalance:
		return "Balance"
	default:
		return string(a)
	}
}
