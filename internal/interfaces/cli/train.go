package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ChemReact-Intelligence/internal/application/prediction"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/exactmatch"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/patternml"
	"github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

// NewTrainCmd creates the train subcommand.  It builds a fresh index and
// classifier from a corpus file and writes the classifier artifact, which
// a running server picks up through its artifact watcher.
func NewTrainCmd() *cobra.Command {
	var (
		corpusPath   string
		artifactPath string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the prediction tiers from a reaction corpus",
		Example: `  chemreact train --corpus reactions.json
  chemreact train --corpus reactions.json --artifact models/forest.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if corpusPath == "" {
				corpusPath = cliCtx.Config.Predictor.CorpusPath
			}
			if corpusPath == "" {
				return errors.New(errors.ErrCodeReactionCorpusNotFound,
					"no corpus file given; use --corpus or set predictor.corpus_path")
			}
			if artifactPath == "" {
				artifactPath = cliCtx.Config.Predictor.ArtifactPath
			}

			trainer := prediction.NewTrainer(
				exactmatch.NewIndex(cliCtx.Logger),
				patternml.NewClassifier(cliCtx.Logger),
				artifactPath,
				cliCtx.Logger)

			summary, err := trainer.TrainFromFile(cmd.Context(), corpusPath)
			if err != nil {
				return err
			}

			if cliCtx.OutputFormat == "json" {
				return PrintResult(cmd, summary)
			}
			msg := fmt.Sprintf("trained on %d reactions (%d product classes, %d trees) in %s",
				summary.Reactions, summary.Products, summary.Trees, summary.Elapsed.Round(time.Millisecond))
			if summary.Artifact != "" {
				msg += fmt.Sprintf("\nartifact written to %s", summary.Artifact)
			}
			return PrintResult(cmd, msg)
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "path to the training corpus JSON file")
	cmd.Flags().StringVar(&artifactPath, "artifact", "", "where to write the classifier artifact")
	return cmd
}
