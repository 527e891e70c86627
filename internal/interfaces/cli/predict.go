package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/ChemReact-Intelligence/internal/app"
	"github.com/turtacn/ChemReact-Intelligence/internal/application/prediction"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// NewPredictCmd creates the predict subcommand.  Prediction runs in-process:
// the engine is wired from the same configuration the server uses, so a
// local predict and a served predict answer identically.
func NewPredictCmd() *cobra.Command {
	var quantumPath string

	cmd := &cobra.Command{
		Use:   "predict ELEMENT...",
		Short: "Predict reaction products for a set of reactant elements",
		Example: `  chemreact predict H H
  chemreact predict Na Cl --quantum vqe_run.json -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			var quantum *rxn.QuantumRecord
			if quantumPath != "" {
				quantum, err = loadQuantumRecord(quantumPath)
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			engine, err := app.New(ctx, cliCtx.Config, cliCtx.Logger)
			if err != nil {
				return err
			}
			defer engine.Close()

			resp, err := engine.Service.Predict(ctx, args, quantum)
			if err != nil {
				return err
			}

			if strings.EqualFold(cliCtx.OutputFormat, "json") {
				return PrintResult(cmd, resp)
			}
			return PrintResult(cmd, formatPrediction(resp))
		},
	}

	cmd.Flags().StringVar(&quantumPath, "quantum", "", "path to a quantum-feature record JSON file")
	return cmd
}

func loadQuantumRecord(path string) (*rxn.QuantumRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quantum record: %w", err)
	}
	var record rxn.QuantumRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("parse quantum record %s: %w", path, err)
	}
	return &record, nil
}

func formatPrediction(resp *prediction.Response) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Reactants:  %s\n", strings.Join(resp.Reactants, " + "))

	if p := resp.Prediction; p != nil {
		for i, cand := range p.Products {
			label := "Product:   "
			if i > 0 {
				label = "           "
			}
			if cand.Name != "" {
				fmt.Fprintf(&sb, "%s %s (%s, p=%.2f)\n", label, cand.Formula, cand.Name, cand.Probability)
			} else {
				fmt.Fprintf(&sb, "%s %s (p=%.2f)\n", label, cand.Formula, cand.Probability)
			}
		}
		fmt.Fprintf(&sb, "Method:     %s (%s)\n", p.Method, p.Speed)
		fmt.Fprintf(&sb, "Confidence: %.1f\n", p.Confidence)
		if p.Reasoning != "" {
			fmt.Fprintf(&sb, "Reasoning:  %s\n", p.Reasoning)
		}
	}
	if v := resp.Validation; v != nil {
		fmt.Fprintf(&sb, "Validation: %s (%.2f, %d/%d checks)\n",
			v.Verdict, v.Confidence, v.ChecksPassed, v.ChecksTotal)
	}
	if resp.Cached {
		sb.WriteString("Cached:     true\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
