package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// BuildPrompt renders the reasoning prompt for a set of reactants.  When a
// quantum record is available its energies, orbital data and geometry are
// embedded so the model grounds its answer in the calculation instead of
// free-associating; without one the prompt degrades to a plain prediction
// request.  The response contract at the end is what parsePayload expects.
func BuildPrompt(reactants []string, quantum *rxn.QuantumRecord) string {
	var b strings.Builder

	b.WriteString("Predict the outcome of a chemical reaction.\n\n")
	fmt.Fprintf(&b, "REACTANTS: %s\n", strings.Join(reactants, " + "))

	if quantum != nil {
		b.WriteString("\nQUANTUM CALCULATION DATA (VQE with Hartree-Fock initial guess):\n")
		fmt.Fprintf(&b, "- Ground state energy: %.6f Hartree\n", quantum.VQEEnergy)
		fmt.Fprintf(&b, "- Hartree-Fock energy: %.6f Hartree\n", quantum.HFEnergy)
		fmt.Fprintf(&b, "- Energy improvement (VQE vs HF): %.6f Hartree\n", quantum.EnergyImprovement)
		fmt.Fprintf(&b, "- Nuclear repulsion energy: %.6f Hartree\n", quantum.NuclearRepulsion)
		fmt.Fprintf(&b, "- Electrons: %d, atoms: %d\n", quantum.NumElectrons, quantum.NumAtoms)
		if quantum.BasisSet != "" {
			fmt.Fprintf(&b, "- Basis set: %s\n", quantum.BasisSet)
		}
		if len(quantum.MOEnergies) > 0 {
			fmt.Fprintf(&b, "- Molecular orbital energies: %v\n", quantum.MOEnergies)
		}
		if len(quantum.OrbitalOccupations) > 0 {
			fmt.Fprintf(&b, "- Orbital occupations: %v\n", quantum.OrbitalOccupations)
		}
		if len(quantum.BondLengths) > 0 {
			if geom, err := json.Marshal(quantum.BondLengths); err == nil {
				fmt.Fprintf(&b, "- Bond lengths: %s\n", geom)
			}
		}
	}

	b.WriteString(`
Based on this, predict:
1. The most likely reaction products. Balance the overall equation sensibly
   (stoichiometry need not be one-to-one with the reactant list), list each
   product as its own entry, and assign each a formation probability. The
   probabilities must sum to 1.0.
2. The reaction mechanism as a short step-by-step description.
3. Thermodynamic feasibility: is the reaction spontaneous? One sentence,
   justified from the quantum data where available.
4. Your confidence in the prediction as a percentage from 0 to 100.

Respond with exactly this JSON structure and no other text:
{
  "products": [
    {"formula": "H2O", "name": "Water", "probability": 0.85},
    {"formula": "O2", "name": "Oxygen", "probability": 0.15}
  ],
  "mechanism": "step-by-step description",
  "thermodynamics": "feasible or not, one sentence",
  "confidence": 85,
  "reasoning": "the specific numbers that drove the prediction"
}

Every product needs "formula", "name" and "probability" (a decimal in [0,1]).
`)

	return b.String()
}
