// Package classify provides the pure domain constants and classification
// functions every other territory package builds on: effective ARR,
// customer/prospect classification, team-tier bucketing, and region
// resolution. Nothing here can fail — these are total functions over the
// domain types.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aristath/sentinel/internal/domain"
)

// TeamTier is the closed set of account/rep size buckets used by the
// team-alignment scorer.
type TeamTier int

const (
	TierSMB TeamTier = iota
	TierGrowth
	TierMM
	TierENT
)

func (t TeamTier) String() string {
	switch t {
	case TierSMB:
		return "SMB"
	case TierGrowth:
		return "Growth"
	case TierMM:
		return "MM"
	case TierENT:
		return "ENT"
	default:
		return "SMB"
	}
}

// ParseTeamTier maps a rep's free-text team_tier label back to the closed
// enum. Unknown or empty labels report ok=false.
func ParseTeamTier(label string) (tier TeamTier, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "SMB":
		return TierSMB, true
	case "GROWTH":
		return TierGrowth, true
	case "MM":
		return TierMM, true
	case "ENT":
		return TierENT, true
	default:
		return TierSMB, false
	}
}

// EffectiveARR returns the first positive value of (arr_primary,
// arr_fallback, arr_legacy) in that priority order; else 0.
func EffectiveARR(a domain.Account) float64 {
	if a.ARRPrimary > 0 {
		return a.ARRPrimary
	}
	if a.ARRFallback > 0 {
		return a.ARRFallback
	}
	if a.ARRLegacy > 0 {
		return a.ARRLegacy
	}
	return 0
}

// IsCustomer reports whether an account is a paying customer. Deliberately
// checks arr_primary alone — not the fallback chain — because customer
// classification must be conservative: a fallback or legacy value implies
// a past relationship, not a current one.
func IsCustomer(a domain.Account) bool {
	return a.ARRPrimary > 0
}

// ClassifyTeamTier buckets an employee count into a team tier. A nil
// employees value (unknown headcount) classifies as SMB for display
// purposes only; scoring callers must treat a nil input as "unknown" and
// consult account.Employees directly rather than relying on this default.
func ClassifyTeamTier(employees *int) TeamTier {
	if employees == nil {
		return TierSMB
	}
	switch {
	case *employees <= 99:
		return TierSMB
	case *employees <= 499:
		return TierGrowth
	case *employees <= 1499:
		return TierMM
	default:
		return TierENT
	}
}

// Region is a canonical region label resolved from raw territory text.
type Region string

const (
	RegionAMERWest Region = "AMER_WEST"
	RegionAMEREast Region = "AMER_EAST"
	RegionEMEA     Region = "EMEA"
	RegionAPAC     Region = "APAC"
)

// macroOf reports the macro-region grouping for hierarchy comparisons.
var macroOf = map[Region]string{
	RegionAMERWest: "AMER",
	RegionAMEREast: "AMER",
	RegionEMEA:     "EMEA",
	RegionAPAC:     "APAC",
}

// siblingPairs are regions considered adjacent within the same macro, but
// not identical — e.g. AMER_WEST and AMER_EAST.
var siblingPairs = map[[2]Region]bool{
	{RegionAMERWest, RegionAMEREast}: true,
	{RegionAMEREast, RegionAMERWest}: true,
}

// aliases maps case/whitespace-insensitive synonyms to canonical regions.
// Matched after explicit territory_mappings fail.
var aliases = map[string]Region{
	"west":      RegionAMERWest,
	"amerwest":  RegionAMERWest,
	"us west":   RegionAMERWest,
	"east":      RegionAMEREast,
	"ameReast":  RegionAMEREast,
	"us east":   RegionAMEREast,
	"emea":      RegionEMEA,
	"europe":    RegionEMEA,
	"apac":      RegionAPAC,
	"asia":      RegionAPAC,
}

var caser = cases.Fold()

func normalizeAlias(raw string) string {
	return caser.String(strings.Join(strings.Fields(raw), " "))
}

// RegionOf resolves a raw territory label to a canonical region: explicit
// mapping first, then a deterministic alias matcher; nil when neither
// matches.
func RegionOf(territoryRaw *string, territoryMappings map[string]string) *Region {
	if territoryRaw == nil {
		return nil
	}
	raw := *territoryRaw
	if canon, ok := territoryMappings[raw]; ok {
		r := Region(canon)
		return &r
	}
	key := normalizeAlias(raw)
	for alias, region := range aliases {
		if normalizeAlias(alias) == key {
			r := region
			return &r
		}
	}
	return nil
}

// RegionParent returns the macro grouping a region belongs to, or "" if
// the region is not recognized.
func RegionParent(r Region) string {
	return macroOf[r]
}

// AreSiblings reports whether two distinct regions are adjacent within the
// same macro per the fixed hierarchy (e.g. AMER_WEST/AMER_EAST).
func AreSiblings(a, b Region) bool {
	if a == b {
		return false
	}
	return siblingPairs[[2]Region{a, b}]
}
