// Package reaction holds the chemistry-facing domain model: element tables,
// reactant canonicalization, formula parsing, and the training corpus.  It
// has no knowledge of prediction tiers or infrastructure.
package reaction

import (
	"fmt"

	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

// ValidateReactants checks that a reactant multiset is usable as prediction
// input: non-empty, every entry a known element symbol.
func ValidateReactants(reactants []string) error {
	if len(reactants) == 0 {
		return apperrors.New(apperrors.ErrCodeReactionEmptyReactants, "reactant list is empty")
	}
	for _, sym := range reactants {
		if !IsElement(sym) {
			return apperrors.New(apperrors.ErrCodeReactionInvalidElement,
				fmt.Sprintf("unknown element symbol %q", sym))
		}
	}
	return nil
}
