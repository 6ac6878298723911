package solver

import (
	"bufio"
	"strconv"
	"strings"
)

// parsedModel is the subset of LP structure the hand-written solvers need:
// which binary variables exist, their objective coefficients, which
// account each belongs to, and the capacity/linking rows that constrain
// them. It only ever needs to parse LP text this project's own
// internal/territory/model package produced.
type parsedModel struct {
	vars      []string
	accountOf map[string]string // var -> account id
	repOf     map[string]string // var -> rep id
	objective map[string]float64
	capRows   []capRow
	linkPairs [][2]string // [varA, varB] forced equal
	zeroVars  map[string]bool
}

type capRow struct {
	repID     string
	dimension string // "arr" | "cre" | "count"
	terms     map[string]float64
	rhs       float64
}

func parseLP(lpText string) parsedModel {
	pm := parsedModel{
		accountOf: make(map[string]string),
		repOf:     make(map[string]string),
		objective: make(map[string]float64),
		zeroVars:  make(map[string]bool),
	}

	section := ""
	scanner := bufio.NewScanner(strings.NewReader(lpText))
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Minimize"):
			section = "obj"
			continue
		case strings.HasPrefix(line, "Subject To"):
			section = "rows"
			continue
		case strings.HasPrefix(line, "Bounds"):
			section = "bounds"
			continue
		case strings.HasPrefix(line, "Binary"):
			section = "binary"
			continue
		case strings.HasPrefix(line, "End"):
			section = ""
			continue
		}

		switch section {
		case "obj":
			_, terms := parseRow(line)
			for v, c := range terms {
				pm.objective[v] = c
			}
		case "rows":
			name, terms, op, rhs := parseConstraintLine(line)
			if strings.HasPrefix(name, "cap_") {
				repID := repIDFromCapName(name)
				dim := dimensionFromCapName(name)
				pm.capRows = append(pm.capRows, capRow{repID: repID, dimension: dim, terms: terms, rhs: rhs})
			} else if strings.HasPrefix(name, "link_") && op == "=" && rhs == 0 && len(terms) == 2 {
				var pair [2]string
				i := 0
				for v := range terms {
					pair[i] = v
					i++
				}
				pm.linkPairs = append(pm.linkPairs, pair)
			} else if strings.HasPrefix(name, "link_") && op == "=" && rhs == 0 && len(terms) == 1 {
				for v := range terms {
					pm.zeroVars[v] = true
				}
			}
		case "binary":
			v := line
			pm.vars = append(pm.vars, v)
			account, rep := splitVarName(v)
			pm.accountOf[v] = account
			pm.repOf[v] = rep
		}
	}
	return pm
}

// splitVarName recovers (account, rep) from a name produced by
// model.VarName ("x_<account>_<rep>"). Sanitization is lossy for ids
// containing underscores, which is acceptable here since the solvers only
// need a stable grouping key, not the literal original id.
func splitVarName(v string) (account, rep string) {
	trimmed := strings.TrimPrefix(v, "x_")
	parts := strings.SplitN(trimmed, "_", 2)
	if len(parts) != 2 {
		return trimmed, ""
	}
	return parts[0], parts[1]
}

func repIDFromCapName(name string) string {
	for _, prefix := range []string{"cap_arr_", "cap_cre_", "cap_count_"} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return ""
}

func dimensionFromCapName(name string) string {
	switch {
	case strings.HasPrefix(name, "cap_arr_"):
		return "arr"
	case strings.HasPrefix(name, "cap_cre_"):
		return "cre"
	case strings.HasPrefix(name, "cap_count_"):
		return "count"
	default:
		return ""
	}
}

// parseRow parses a bare term list with no leading "name:" (the
// objective row after "obj: ").
func parseRow(line string) (string, map[string]float64) {
	line = strings.TrimPrefix(line, "obj:")
	return "", parseTerms(line)
}

func parseConstraintLine(line string) (name string, terms map[string]float64, op string, rhs float64) {
	colonIdx := strings.Index(line, ":")
	if colonIdx < 0 {
		return "", map[string]float64{}, "", 0
	}
	name = strings.TrimSpace(line[:colonIdx])
	rest := line[colonIdx+1:]

	for _, candidate := range []string{" <= ", " >= ", " = "} {
		if idx := strings.LastIndex(rest, candidate); idx >= 0 {
			op = strings.TrimSpace(candidate)
			terms = parseTerms(rest[:idx])
			rhs, _ = strconv.ParseFloat(strings.TrimSpace(rest[idx+len(candidate):]), 64)
			return name, terms, op, rhs
		}
	}
	return name, parseTerms(rest), "", 0
}

// parseTerms parses a sequence like "+ 1 x_a_r - 0.5 x_b_s" into a
// variable->coefficient map.
func parseTerms(expr string) map[string]float64 {
	terms := make(map[string]float64)
	fields := strings.Fields(expr)
	sign := 1.0
	var coeff float64
	haveCoeff := false

	flush := func(varName string) {
		if varName == "" {
			return
		}
		c := coeff
		if !haveCoeff {
			c = 1
		}
		terms[varName] += sign * c
		sign = 1
		coeff = 0
		haveCoeff = false
	}

	for _, f := range fields {
		switch f {
		case "+":
			sign = 1
			continue
		case "-":
			sign = -1
			continue
		}
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			coeff = v
			haveCoeff = true
			continue
		}
		flush(f)
	}
	return terms
}
