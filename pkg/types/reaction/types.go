// Package reaction defines the shared data model of the reaction-prediction
// engine: reactant multisets, prediction results, quantum-feature records, and
// the training-corpus wire format.  These types cross every layer boundary and
// therefore live in pkg/ rather than internal/.
package reaction

// Method identifies which prediction tier produced a result.
type Method string

const (
	MethodExactMatch        Method = "exact_match"
	MethodMLPattern         Method = "ml_pattern"
	MethodExternalReasoning Method = "external_reasoning"
	MethodFallbackRule      Method = "fallback_rule"
)

// Speed is the coarse latency class of a prediction tier.
type Speed string

const (
	SpeedInstant Speed = "instant"
	SpeedFast    Speed = "fast"
	SpeedSlow    Speed = "slow"
)

// UnknownProduct is the sentinel formula emitted when no tier can produce a
// prediction.  It is the only user-visible "no answer" surface of the engine.
const UnknownProduct = "UNKNOWN"

// ProductCandidate is one predicted product with its estimated probability.
type ProductCandidate struct {
	Formula     string  `json:"formula"`
	Name        string  `json:"name,omitempty"`
	Probability float64 `json:"probability"`
}

// PredictionResult is the immutable outcome of a single prediction call.
// Candidates are ordered most-likely first.  Confidence is on a 0–100 scale;
// candidate probabilities are on a 0–1 scale.
type PredictionResult struct {
	Products         []ProductCandidate `json:"products"`
	Confidence       float64            `json:"confidence"`
	Method           Method             `json:"method"`
	Speed            Speed              `json:"speed"`
	Reasoning        string             `json:"reasoning"`
	Mechanism        string             `json:"mechanism,omitempty"`
	TrainingExamples int                `json:"training_examples,omitempty"`
}

// TopProduct returns the formula of the most likely candidate, or
// UnknownProduct when the result carries no candidates.
func (r *PredictionResult) TopProduct() string {
	if r == nil || len(r.Products) == 0 {
		return UnknownProduct
	}
	return r.Products[0].Formula
}

// StabilityMetrics is the stability slice of a quantum-feature record.
type StabilityMetrics struct {
	IsStable                bool    `json:"is_stable"`
	ElectronicBindingEnergy float64 `json:"electronic_binding_energy"`
}

// ReactivityIndicators is the reactivity slice of a quantum-feature record.
type ReactivityIndicators struct {
	IsRadical   bool   `json:"is_radical"`
	GapCategory string `json:"gap_category"` // "stable" | "moderate" | "highly_reactive" | "unknown"
}

// QuantumRecord is the fixed-shape record produced by the external
// quantum-calculation service.  The engine treats it as an opaque collaborator
// output: it is forwarded to the reasoning tier and inspected by the
// validation scorer, never computed locally.
type QuantumRecord struct {
	VQEEnergy           float64              `json:"vqe_energy"`
	HFEnergy            float64              `json:"hf_energy"`
	EnergyImprovement   float64              `json:"energy_improvement"`
	NuclearRepulsion    float64              `json:"nuclear_repulsion"`
	NumElectrons        int                  `json:"num_electrons"`
	NumAtoms            int                  `json:"num_atoms"`
	BasisSet            string               `json:"basis_set,omitempty"`
	MOEnergies          []float64            `json:"mo_energies,omitempty"`
	OrbitalOccupations  []float64            `json:"orbital_occupations,omitempty"`
	BondLengths         map[string]float64   `json:"bond_lengths,omitempty"`
	Stability           StabilityMetrics     `json:"stability_metrics"`
	Reactivity          ReactivityIndicators `json:"reactivity_indicators"`
}

// Record is a single labeled reaction in the training corpus.
type Record struct {
	Reactants []string `json:"reactants"`
	Products  []string `json:"products"`
	Type      string   `json:"type,omitempty"`
}

// Corpus is the training-corpus wire format produced by the dataset
// collaborators: {reactions: [...], count: N}.
type Corpus struct {
	Reactions []Record `json:"reactions"`
	Count     int      `json:"count"`
}

// ValidationVerdict is the coarse classification of a validation run.
type ValidationVerdict string

const (
	VerdictLikelyCorrect   ValidationVerdict = "LIKELY_CORRECT"
	VerdictUncertain       ValidationVerdict = "UNCERTAIN"
	VerdictLikelyIncorrect ValidationVerdict = "LIKELY_INCORRECT"
)

// CheckOutcome is the result of one independent validation check.
type CheckOutcome struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// ValidationReport is the advisory output of the validation scorer.  It never
// mutates the PredictionResult it describes.  Confidence is on a 0–1 scale.
type ValidationReport struct {
	Verdict        ValidationVerdict `json:"result"`
	Confidence     float64           `json:"confidence"`
	ChecksPassed   int               `json:"checks_passed"`
	ChecksTotal    int               `json:"checks_total"`
	Checks         []CheckOutcome    `json:"detailed_checks"`
	Warnings       []string          `json:"warnings"`
	Recommendation string            `json:"recommendation"`
}

// RouterStats is the read-only statistics snapshot exposed by the router.
// Percentages are computed on demand and are zero when no predictions have
// been recorded.
type RouterStats struct {
	Level1Hits       int64   `json:"level1_hits"`
	Level2Hits       int64   `json:"level2_hits"`
	Level3Hits       int64   `json:"level3_hits"`
	Level4Hits       int64   `json:"level4_hits"`
	TotalPredictions int64   `json:"total_predictions"`
	Level1Percentage float64 `json:"level1_percentage"`
	Level2Percentage float64 `json:"level2_percentage"`
	Level3Percentage float64 `json:"level3_percentage"`
	Level4Percentage float64 `json:"level4_percentage"`
}
