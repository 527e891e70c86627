// Package rules implements the fourth prediction tier: a deterministic
// heuristic chain that always produces an answer, however weak.  It is the
// only tier that never declines and never fails.
package rules

import (
	"context"
	"sort"
	"strconv"

	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// TierName is the statistics label for this tier.
const TierName = "fallback_rule"

// Rule confidences are fixed policy constants inherited from the reference
// behaviour; they are not derived from anything.
const (
	DiatomicConfidence = 80
	BinaryConfidence   = 60
	UnknownConfidence  = 0
)

// Engine evaluates the heuristics in fixed priority order, first match wins.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Name implements the tier contract.
func (e *Engine) Name() string { return TierName }

// Predict implements the tier contract.  It is a total function over any
// reactant multiset: every input maps to exactly one of the three rules.
func (e *Engine) Predict(_ context.Context, reactants []string, _ int) (*rxn.PredictionResult, error) {
	return e.Apply(reactants), nil
}

// Apply runs the heuristic chain directly.
func (e *Engine) Apply(reactants []string) *rxn.PredictionResult {
	counts := reaction.CountSymbols(reactants)

	// Diatomic rule: exactly two atoms of the same element.
	if len(counts) == 1 && len(reactants) == 2 {
		formula := reactants[0] + "2"
		return &rxn.PredictionResult{
			Products:   []rxn.ProductCandidate{{Formula: formula, Probability: 0.8}},
			Confidence: DiatomicConfidence,
			Method:     rxn.MethodFallbackRule,
			Speed:      rxn.SpeedInstant,
			Reasoning:  "diatomic rule: two atoms of the same element bond",
		}
	}

	// Binary-compound rule: exactly two distinct elements.
	if len(counts) == 2 {
		formula := binaryFormula(counts)
		return &rxn.PredictionResult{
			Products:   []rxn.ProductCandidate{{Formula: formula, Probability: 0.6}},
			Confidence: BinaryConfidence,
			Method:     rxn.MethodFallbackRule,
			Speed:      rxn.SpeedInstant,
			Reasoning:  "binary-compound rule: two distinct elements combine",
		}
	}

	return &rxn.PredictionResult{
		Products:   []rxn.ProductCandidate{{Formula: rxn.UnknownProduct, Probability: 0}},
		Confidence: UnknownConfidence,
		Method:     rxn.MethodFallbackRule,
		Speed:      rxn.SpeedInstant,
		Reasoning:  "no applicable rule",
	}
}

// binaryFormula builds the two-element formula: the element with the higher
// atom count first, ties broken by sorted order, each symbol followed by its
// count when above one.
func binaryFormula(counts map[string]int) string {
	elements := make([]string, 0, 2)
	for sym := range counts {
		elements = append(elements, sym)
	}
	sort.Strings(elements)
	if counts[elements[1]] > counts[elements[0]] {
		elements[0], elements[1] = elements[1], elements[0]
	}

	formula := ""
	for _, sym := range elements {
		formula += sym
		if counts[sym] > 1 {
			formula += strconv.Itoa(counts[sym])
		}
	}
	return formula
}
