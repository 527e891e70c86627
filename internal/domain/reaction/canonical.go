package reaction

import (
	"sort"
	"strings"
)

// KeySeparator joins sorted reactant symbols into a canonical key.  The comma
// can never appear inside an element symbol, so keys parse back unambiguously.
const KeySeparator = ","

// EmptyKey is the sentinel returned for an empty reactant list.  Callers must
// treat it as invalid input; it never appears in a trained index.
const EmptyKey = ""

// Canonicalize maps a reactant multiset to its order-independent string
// identity: the symbols sorted lexicographically and joined with
// KeySeparator.  The same multiset always yields the same key regardless of
// input order.  The input slice is not modified.
func Canonicalize(reactants []string) string {
	if len(reactants) == 0 {
		return EmptyKey
	}
	sorted := make([]string, len(reactants))
	copy(sorted, reactants)
	sort.Strings(sorted)
	return strings.Join(sorted, KeySeparator)
}

// SplitKey parses a canonical key back into its sorted symbol list.  The
// empty key yields nil.
func SplitKey(key string) []string {
	if key == EmptyKey {
		return nil
	}
	return strings.Split(key, KeySeparator)
}
