// Package model builds the assignment MIP (C6): decision variables,
// linking and capacity constraints, balance slacks, and the weighted
// objective, rendered as CPLEX-LP text for the solver dispatcher.
//
// The model is a value — built once by Builder.Build and serialized by
// Model.Render, never assembled by
// scattered string concatenation downstream.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/territory/classify"
	"github.com/aristath/sentinel/internal/territory/eligibility"
	"github.com/aristath/sentinel/internal/territory/scoring"
)

// BalanceMetric is one of the three metrics the balance objective term can
// penalize deviation from target on.
type BalanceMetric string

const (
	MetricARR      BalanceMetric = "ARR"
	MetricATR      BalanceMetric = "ATR"
	MetricPipeline BalanceMetric = "Pipeline"
)

// Weights is the resolved per-axis objective weight for one population
// (customers or prospects); see internal/territory/weights.
type Weights struct {
	Continuity    float64
	Geography     float64
	TeamAlignment float64
}

// Params bundles everything the builder needs beyond accounts/reps.
type Params struct {
	TerritoryMappings map[string]string
	CustomerWeights   Weights
	ProspectWeights   Weights
	Geography         scoring.GeographyParams
	Continuity        scoring.ContinuityParams
	TeamAlignment     scoring.TeamAlignmentParams
	ConstraintFlags   domain.ConstraintFlags
	BalancePenalties  domain.BalancePenalties
	Now               func() int64 // unix seconds, for continuity tenure; injected for determinism
}

// VarName returns the canonical decision-variable name for (account, rep),
// stable across renders of the same input.
func VarName(accountID, repID string) string {
	return fmt.Sprintf("x_%s_%s", sanitize(accountID), sanitize(repID))
}

func sanitize(id string) string {
	r := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	return r.Replace(id)
}

// Scores carries the axis scores computed for one (account, rep) pair,
// kept alongside the model so the rationale generator doesn't recompute
// them later.
type Scores struct {
	Geography     float64
	Continuity    float64
	TeamAlignment *float64
}

// Builder accumulates a model incrementally, then renders it once.
type Builder struct {
	params Params

	accounts []domain.Account
	reps     map[string]domain.Rep
	eligible eligibility.Result

	// PairScores is exposed so the rationale generator can reuse the exact
	// scores used to build the objective, avoiding drift between the cost
	// coefficient and the reported breakdown.
	PairScores map[string]map[string]Scores
}

// NewBuilder constructs a builder over the free (unlocked) accounts and
// their precomputed eligibility sets.
func NewBuilder(accounts []domain.Account, reps []domain.Rep, eligible eligibility.Result, params Params) *Builder {
	repsByID := make(map[string]domain.Rep, len(reps))
	for _, r := range reps {
		repsByID[r.ID] = r
	}
	b := &Builder{
		params:     params,
		accounts:   accounts,
		reps:       repsByID,
		eligible:   eligible,
		PairScores: make(map[string]map[string]Scores),
	}
	b.computeScores()
	return b
}

func (b *Builder) computeScores() {
	nowUnix := int64(0)
	if b.params.Now != nil {
		nowUnix = b.params.Now()
	}
	now := time.Unix(nowUnix, 0).UTC()

	for _, a := range b.accounts {
		set, ok := b.eligible.Eligible[a.ID]
		if !ok {
			continue
		}
		perRep := make(map[string]Scores, len(set))
		for _, r := range set {
			geo := scoring.Geography(a.TerritoryRaw, b.params.TerritoryMappings, r.Region, b.params.Geography)
			cont := scoring.Continuity(a, r, now, b.params.Continuity)
			team := scoring.TeamAlignment(a.Employees, r.TeamTier, b.params.TeamAlignment)
			perRep[r.ID] = Scores{Geography: geo, Continuity: cont, TeamAlignment: team}
		}
		b.PairScores[a.ID] = perRep
	}
}

func (b *Builder) weightsFor(a domain.Account) Weights {
	if classify.IsCustomer(a) {
		return b.params.CustomerWeights
	}
	return b.params.ProspectWeights
}

// CostCoefficient returns c[a,r] per §4.6: the negative weighted sum of
// axis scores, so minimizing cost maximizes score.
func (b *Builder) CostCoefficient(accountID, repID string) float64 {
	s := b.PairScores[accountID][repID]
	w := b.weightsFor(b.accountByID(accountID))
	team := scoring.TeamAlignmentOrNeutral(s.TeamAlignment)
	return -(w.Continuity*s.Continuity + w.Geography*s.Geography + w.TeamAlignment*team)
}

func (b *Builder) accountByID(id string) domain.Account {
	for _, a := range b.accounts {
		if a.ID == id {
			return a
		}
	}
	return domain.Account{}
}

// Model is the fully-built assignment program, ready to render.
type Model struct {
	VarNames    []string // binary variable names, in deterministic order
	Objective   map[string]float64
	Constraints []Constraint
	NumVars     int
}

// Constraint is one linear constraint row.
type Constraint struct {
	Name  string
	Terms map[string]float64
	Op    string // "=", "<=", ">="
	RHS   float64
}

// Build assembles the full Model: assignment, linking, capacity, and
// balance constraints, plus the weighted objective. Accounts and reps are
// iterated in id order so two identical inputs render identical models.
func (b *Builder) Build() Model {
	accountIDs := make([]string, 0, len(b.accounts))
	for id := range b.eligible.Eligible {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	m := Model{Objective: make(map[string]float64)}
	seen := make(map[string]bool)

	assignmentRows := make(map[string]*Constraint, len(accountIDs))
	capacityARR := make(map[string]*Constraint)
	capacityCRE := make(map[string]*Constraint)
	capacityCount := make(map[string]*Constraint)

	for _, accID := range accountIDs {
		set := b.eligible.Eligible[accID]
		row := &Constraint{Name: "assign_" + sanitize(accID), Terms: map[string]float64{}, Op: "=", RHS: 1}
		account := b.accountByID(accID)

		for _, r := range set {
			vn := VarName(accID, r.ID)
			if !seen[vn] {
				m.VarNames = append(m.VarNames, vn)
				seen[vn] = true
			}
			m.Objective[vn] = b.CostCoefficient(accID, r.ID)
			row.Terms[vn] = 1

			if b.params.ConstraintFlags.CapacityHardCapEnabled {
				if r.CapacityMaxARR != nil {
					c := getOrInit(capacityARR, r.ID, "cap_arr_"+sanitize(r.ID), "<=", *r.CapacityMaxARR)
					c.Terms[vn] = classify.EffectiveARR(account)
				}
				if r.CapacityMaxCRE != nil && account.CRERisk {
					c := getOrInit(capacityCRE, r.ID, "cap_cre_"+sanitize(r.ID), "<=", *r.CapacityMaxCRE)
					c.Terms[vn] = 1
				}
				if r.CapacityMaxAccounts != nil {
					c := getOrInit(capacityCount, r.ID, "cap_count_"+sanitize(r.ID), "<=", float64(*r.CapacityMaxAccounts))
					c.Terms[vn] = 1
				}
			}
		}
		assignmentRows[accID] = row
	}

	if b.params.ConstraintFlags.ParentChildLinkingEnabled {
		b.addLinkingConstraints(&m, accountIDs)
	}

	b.addBalanceConstraints(&m, accountIDs)

	for _, accID := range accountIDs {
		m.Constraints = append(m.Constraints, *assignmentRows[accID])
	}
	appendSorted(&m, capacityARR)
	appendSorted(&m, capacityCRE)
	appendSorted(&m, capacityCount)

	sort.Strings(m.VarNames)
	m.NumVars = len(m.VarNames)
	return m
}

func getOrInit(bucket map[string]*Constraint, repID, name, op string, rhs float64) *Constraint {
	c, ok := bucket[repID]
	if !ok {
		c = &Constraint{Name: name, Terms: map[string]float64{}, Op: op, RHS: rhs}
		bucket[repID] = c
	}
	return c
}

func appendSorted(m *Model, bucket map[string]*Constraint) {
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Constraints = append(m.Constraints, *bucket[k])
	}
}

// addLinkingConstraints enforces x[c,r] = x[p,r] for every (parent,
// child) pair where both have eligibility entries, restricting reps to
// the intersection (§4.6); reps present only on one side get an explicit
// x = 0 row.
func (b *Builder) addLinkingConstraints(m *Model, accountIDs []string) {
	byID := make(map[string]domain.Account, len(b.accounts))
	for _, a := range b.accounts {
		byID[a.ID] = a
	}

	var pairs []string
	for _, accID := range accountIDs {
		a := byID[accID]
		if a.ParentID == nil {
			continue
		}
		if _, ok := b.eligible.Eligible[*a.ParentID]; ok {
			pairs = append(pairs, accID)
		}
	}
	sort.Strings(pairs)

	for _, childID := range pairs {
		a := byID[childID]
		parentID := *a.ParentID
		childSet := repSet(b.eligible.Eligible[childID])
		parentSet := repSet(b.eligible.Eligible[parentID])

		union := make(map[string]bool)
		for r := range childSet {
			union[r] = true
		}
		for r := range parentSet {
			union[r] = true
		}
		reps := make([]string, 0, len(union))
		for r := range union {
			reps = append(reps, r)
		}
		sort.Strings(reps)

		for _, repID := range reps {
			childVN := VarName(childID, repID)
			parentVN := VarName(parentID, repID)
			name := "link_" + sanitize(childID) + "_" + sanitize(repID)
			switch {
			case childSet[repID] && parentSet[repID]:
				m.Constraints = append(m.Constraints, Constraint{
					Name:  name,
					Terms: map[string]float64{childVN: 1, parentVN: -1},
					Op:    "=", RHS: 0,
				})
			case childSet[repID] && !parentSet[repID]:
				m.Constraints = append(m.Constraints, Constraint{Name: name, Terms: map[string]float64{childVN: 1}, Op: "=", RHS: 0})
			case !childSet[repID] && parentSet[repID]:
				m.Constraints = append(m.Constraints, Constraint{Name: name, Terms: map[string]float64{parentVN: 1}, Op: "=", RHS: 0})
			}
		}
	}
}

func repSet(set eligibility.Set) map[string]bool {
	out := make(map[string]bool, len(set))
	for _, r := range set {
		out[r.ID] = true
	}
	return out
}

// addBalanceConstraints introduces slack variables u/d per (metric, rep)
// and adds the L1 penalty to the objective per §4.6.
func (b *Builder) addBalanceConstraints(m *Model, accountIDs []string) {
	metrics := []struct {
		metric  BalanceMetric
		penalty domain.BalancePenalty
		valueOf func(domain.Account) float64
	}{
		{MetricARR, b.params.BalancePenalties.ARR, func(a domain.Account) float64 { return classify.EffectiveARR(a) }},
		{MetricATR, b.params.BalancePenalties.ATR, func(a domain.Account) float64 { return a.ATR }},
		{MetricPipeline, b.params.BalancePenalties.Pipeline, func(a domain.Account) float64 { return a.PipelineValue }},
	}

	byID := make(map[string]domain.Account, len(b.accounts))
	for _, a := range b.accounts {
		byID[a.ID] = a
	}

	repIDs := make(map[string]bool)
	for _, accID := range accountIDs {
		for _, r := range b.eligible.Eligible[accID] {
			repIDs[r.ID] = true
		}
	}
	sortedReps := make([]string, 0, len(repIDs))
	for r := range repIDs {
		sortedReps = append(sortedReps, r)
	}
	sort.Strings(sortedReps)

	for _, mc := range metrics {
		if !mc.penalty.Enabled || len(sortedReps) == 0 {
			continue
		}
		var total float64
		for _, accID := range accountIDs {
			total += mc.valueOf(byID[accID])
		}
		target := total / float64(len(sortedReps))

		for _, repID := range sortedReps {
			uName := fmt.Sprintf("u_%s_%s", mc.metric, sanitize(repID))
			dName := fmt.Sprintf("d_%s_%s", mc.metric, sanitize(repID))
			row := Constraint{
				Name:  fmt.Sprintf("balance_%s_%s", mc.metric, sanitize(repID)),
				Terms: map[string]float64{uName: -1, dName: 1},
				Op:    "=",
				RHS:   target,
			}
			for _, accID := range accountIDs {
				if _, ok := b.eligible.Eligible[accID]; !ok {
					continue
				}
				eligibleForRep := false
				for _, r := range b.eligible.Eligible[accID] {
					if r.ID == repID {
						eligibleForRep = true
						break
					}
				}
				if !eligibleForRep {
					continue
				}
				row.Terms[VarName(accID, repID)] = mc.valueOf(byID[accID])
			}
			m.Constraints = append(m.Constraints, row)
			m.Objective[uName] += mc.penalty.Weight
			m.Objective[dName] += mc.penalty.Weight
		}
	}
}
