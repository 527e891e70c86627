package reaction

import (
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

// formulaToken matches one element symbol with an optional trailing count,
// e.g. "H2", "Na", "Cl" in "NaCl" or "H2O".
var formulaToken = regexp.MustCompile(`([A-Z][a-z]?)(\d*)`)

// ParseFormula decomposes a molecular formula string into per-element atom
// counts.  "H2O" yields {H:2, O:1}.  An error is returned when the formula is
// empty, contains characters outside the element-symbol grammar, or names an
// unknown element.
func ParseFormula(formula string) (map[string]int, error) {
	if formula == "" {
		return nil, apperrors.New(apperrors.ErrCodeReactionFormulaInvalid, "formula is empty")
	}

	counts := make(map[string]int)
	consumed := 0
	for _, m := range formulaToken.FindAllStringSubmatch(formula, -1) {
		sym := m[1]
		if !IsElement(sym) {
			return nil, apperrors.New(apperrors.ErrCodeReactionFormulaInvalid,
				"formula "+formula+" contains unknown element "+sym)
		}
		n := 1
		if m[2] != "" {
			parsed, err := strconv.Atoi(m[2])
			if err != nil || parsed < 1 {
				return nil, apperrors.New(apperrors.ErrCodeReactionFormulaInvalid,
					"formula "+formula+" has invalid count for "+sym)
			}
			n = parsed
		}
		counts[sym] += n
		consumed += len(m[0])
	}

	// FindAllStringSubmatch skips characters that match nothing, so a length
	// mismatch means the formula held garbage like lowercase-first symbols
	// or punctuation.
	if consumed != len(formula) {
		return nil, apperrors.New(apperrors.ErrCodeReactionFormulaInvalid,
			"formula "+formula+" is not a valid molecular formula")
	}
	return counts, nil
}

// CountAtoms sums per-element atom counts across a list of formulas.  A
// formula may be a composite label joining several species with "+", as
// multi-product reactions are stored ("OH+H"); each part is parsed
// separately and the counts summed.
func CountAtoms(formulas []string) (map[string]int, error) {
	total := make(map[string]int)
	for _, f := range formulas {
		for _, part := range strings.Split(f, "+") {
			counts, err := ParseFormula(part)
			if err != nil {
				return nil, err
			}
			for sym, n := range counts {
				total[sym] += n
			}
		}
	}
	return total, nil
}

// CountSymbols tallies a reactant symbol list into per-element counts without
// formula parsing.  Symbols are not validated here.
func CountSymbols(reactants []string) map[string]int {
	counts := make(map[string]int, len(reactants))
	for _, sym := range reactants {
		counts[sym]++
	}
	return counts
}
