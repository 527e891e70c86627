// Package patternml implements the second prediction tier: a fixed-length
// reaction fingerprint fed into a trained tree-ensemble classifier over a
// closed product vocabulary.
package patternml

import (
	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
)

// NumFeatures is the fingerprint length: one count channel per element in
// the periodic table plus the aggregate descriptors appended by Fingerprint.
var NumFeatures = len(reaction.PeriodicTable) + 19

// Fingerprint encodes a reactant multiset as a fixed-length numeric vector.
// Layout, in order:
//
//	[0..117]  per-element atom counts, indexed by atomic number - 1
//	[118]     total atom count
//	[119]     distinct element count
//	[120]     max per-element count
//	[121]     min per-element count
//	[122..125] H, C, O, N counts
//	[126]     electronegative atom count (F, O, N, Cl)
//	[127]     electropositive atom count (alkali/alkaline-earth subset)
//	[128]     H:C ratio (divisor clamped to 1)
//	[129]     O:C ratio (divisor clamped to 1)
//	[130]     heavy atom count (non-hydrogen)
//	[131..133] diatomic, binary, organic flags
//	[134..136] metal, halogen, noble-gas presence flags
//
// The encoding is deterministic and depends only on the periodic table, not
// on any trained vocabulary, so fingerprints are comparable across model
// versions.
func Fingerprint(reactants []string) []float64 {
	features := make([]float64, NumFeatures)
	counts := reaction.CountSymbols(reactants)

	totalAtoms := len(reactants)
	maxCount, minCount := 0, 0
	for sym, n := range counts {
		if idx, ok := reaction.AtomicNumber(sym); ok {
			features[idx-1] = float64(n)
		}
		if n > maxCount {
			maxCount = n
		}
		if minCount == 0 || n < minCount {
			minCount = n
		}
	}

	hCount := counts["H"]
	cCount := counts["C"]
	oCount := counts["O"]
	nCount := counts["N"]

	var electronegative, electropositive int
	hasMetal, hasHalogen, hasNobleGas := false, false, false
	for sym, n := range counts {
		if reaction.IsElectronegative(sym) {
			electronegative += n
		}
		if reaction.IsElectropositive(sym) {
			electropositive += n
		}
		hasMetal = hasMetal || reaction.IsMetal(sym)
		hasHalogen = hasHalogen || reaction.IsHalogen(sym)
		hasNobleGas = hasNobleGas || reaction.IsNobleGas(sym)
	}

	base := len(reaction.PeriodicTable)
	features[base+0] = float64(totalAtoms)
	features[base+1] = float64(len(counts))
	features[base+2] = float64(maxCount)
	features[base+3] = float64(minCount)
	features[base+4] = float64(hCount)
	features[base+5] = float64(cCount)
	features[base+6] = float64(oCount)
	features[base+7] = float64(nCount)
	features[base+8] = float64(electronegative)
	features[base+9] = float64(electropositive)
	features[base+10] = float64(hCount) / float64(max(cCount, 1))
	features[base+11] = float64(oCount) / float64(max(cCount, 1))
	features[base+12] = float64(totalAtoms - hCount)
	features[base+13] = boolToFloat(len(counts) == 1 && totalAtoms == 2)
	features[base+14] = boolToFloat(len(counts) == 2)
	features[base+15] = boolToFloat(cCount > 0)
	features[base+16] = boolToFloat(hasMetal)
	features[base+17] = boolToFloat(hasHalogen)
	features[base+18] = boolToFloat(hasNobleGas)

	return features
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
