package model

import (
	"fmt"
	"sort"
	"strings"
)

// Render serializes the model to CPLEX-LP text, the wire format expected
// by both the in-process solver and the remote MIP service (§6.2).
// Variables and constraints are emitted in the Model's already-sorted
// order, so identical inputs render byte-identical LP text.
func (m Model) Render() string {
	var sb strings.Builder

	sb.WriteString("Minimize\n obj: ")
	sb.WriteString(renderObjective(m.Objective))
	sb.WriteString("\n")

	sb.WriteString("Subject To\n")
	for _, c := range m.Constraints {
		sb.WriteString(" ")
		sb.WriteString(c.Name)
		sb.WriteString(": ")
		sb.WriteString(renderTerms(c.Terms))
		sb.WriteString(" ")
		sb.WriteString(c.Op)
		sb.WriteString(" ")
		sb.WriteString(formatNum(c.RHS))
		sb.WriteString("\n")
	}

	sb.WriteString("Bounds\n")
	for _, sv := range slackVarNames(m) {
		sb.WriteString(fmt.Sprintf(" %s >= 0\n", sv))
	}

	sb.WriteString("Binary\n")
	for _, v := range m.VarNames {
		sb.WriteString(" ")
		sb.WriteString(v)
		sb.WriteString("\n")
	}

	sb.WriteString("End\n")
	return sb.String()
}

func renderObjective(obj map[string]float64) string {
	names := make([]string, 0, len(obj))
	for n := range obj {
		names = append(names, n)
	}
	sort.Strings(names)
	return renderTermsOrdered(names, obj)
}

func renderTerms(terms map[string]float64) string {
	names := make([]string, 0, len(terms))
	for n := range terms {
		names = append(names, n)
	}
	sort.Strings(names)
	return renderTermsOrdered(names, terms)
}

func renderTermsOrdered(names []string, coeffs map[string]float64) string {
	if len(names) == 0 {
		return "0"
	}
	var parts []string
	for _, n := range names {
		coeff := coeffs[n]
		sign := "+"
		if coeff < 0 {
			sign = "-"
			coeff = -coeff
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", sign, formatNum(coeff), n))
	}
	joined := strings.Join(parts, " ")
	return strings.TrimPrefix(joined, "+ ")
}

func formatNum(v float64) string {
	return fmt.Sprintf("%.10g", v)
}

// slackVarNames returns every non-binary variable referenced in the
// model's constraints — the balance slacks u/d — so they get an explicit
// non-negativity bound. Binary variables default to [0,1] and are
// declared separately.
func slackVarNames(m Model) []string {
	binary := make(map[string]bool, len(m.VarNames))
	for _, v := range m.VarNames {
		binary[v] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range m.Constraints {
		for name := range c.Terms {
			if binary[name] || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
