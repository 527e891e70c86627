package reaction

// PeriodicTable lists all element symbols in atomic-number order.  Index i
// holds the element with atomic number i+1.  The fingerprint encoder and the
// symbol validator both derive from this single source.
var PeriodicTable = []string{
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

// atomicNumber maps a symbol to its 1-based atomic number.
var atomicNumber = func() map[string]int {
	m := make(map[string]int, len(PeriodicTable))
	for i, sym := range PeriodicTable {
		m[sym] = i + 1
	}
	return m
}()

// AtomicNumber returns the atomic number for sym and whether sym is a known
// element symbol.
func AtomicNumber(sym string) (int, bool) {
	n, ok := atomicNumber[sym]
	return n, ok
}

// IsElement reports whether sym is a known element symbol.
func IsElement(sym string) bool {
	_, ok := atomicNumber[sym]
	return ok
}

// Chemical category sets used by the fingerprint encoder and the rule tier.
// These are deliberately crude groupings tuned for coarse reactivity
// descriptors, not authoritative chemistry.
var (
	electronegativeElements = map[string]bool{
		"F": true, "O": true, "N": true, "Cl": true,
	}
	electropositiveElements = map[string]bool{
		"Li": true, "Na": true, "K": true, "Rb": true,
		"Cs": true, "Ca": true, "Mg": true,
	}
	metalElements = map[string]bool{
		"Li": true, "Na": true, "K": true, "Mg": true, "Ca": true,
		"Fe": true, "Cu": true, "Zn": true, "Al": true,
	}
	halogenElements = map[string]bool{
		"F": true, "Cl": true, "Br": true, "I": true,
	}
	nobleGasElements = map[string]bool{
		"He": true, "Ne": true, "Ar": true, "Kr": true, "Xe": true, "Rn": true,
	}
)

// IsElectronegative reports membership in the crude high-electronegativity set.
func IsElectronegative(sym string) bool { return electronegativeElements[sym] }

// IsElectropositive reports membership in the crude low-electronegativity set.
func IsElectropositive(sym string) bool { return electropositiveElements[sym] }

// IsMetal reports membership in the common-metal set.
func IsMetal(sym string) bool { return metalElements[sym] }

// IsHalogen reports whether sym is a halogen.
func IsHalogen(sym string) bool { return halogenElements[sym] }

// IsNobleGas reports whether sym is a noble gas.
func IsNobleGas(sym string) bool { return nobleGasElements[sym] }
