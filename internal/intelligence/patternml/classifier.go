package patternml

import (
	"context"
	"sync/atomic"

	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// TierName is the statistics label for this tier.
const TierName = "ml_pattern"

// Classifier is the Level 2 tier.  It holds the active model behind an
// atomic pointer so the artifact watcher can swap in a retrained model while
// predictions are in flight.  An untrained classifier declines every call.
type Classifier struct {
	model  atomic.Pointer[Model]
	logger logging.Logger
}

func NewClassifier(logger logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Classifier{logger: logger.Named("patternml")}
}

// SetModel installs a model.  A nil model disables the tier.
func (c *Classifier) SetModel(model *Model) {
	c.model.Store(model)
	if model != nil {
		c.logger.Info("classifier model installed",
			logging.Int("products", len(model.Products)),
			logging.Int("trees", len(model.Trees)),
			logging.Int("examples", model.Examples))
	}
}

// Ready reports whether a trained model is installed.
func (c *Classifier) Ready() bool {
	return c.model.Load() != nil
}

// Name implements the tier contract.
func (c *Classifier) Name() string { return TierName }

// Predict implements the tier contract.  Confidence is 100 times the maximum
// class probability.  The product vocabulary is closed at training time:
// formulas outside it can never be predicted, by design.  An untrained
// classifier returns a nil result with no error; the threshold decision
// belongs to the router, not here.
func (c *Classifier) Predict(_ context.Context, reactants []string, topK int) (*rxn.PredictionResult, error) {
	model := c.model.Load()
	if model == nil {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}

	probs := model.PredictProbs(Fingerprint(reactants))
	candidates := model.TopK(probs, topK)
	if len(candidates) == 0 {
		return nil, nil
	}

	return &rxn.PredictionResult{
		Products:         candidates,
		Confidence:       candidates[0].Probability * 100,
		Method:           rxn.MethodMLPattern,
		Speed:            rxn.SpeedFast,
		Reasoning:        "tree-ensemble fingerprint classification",
		TrainingExamples: model.Examples,
	}, nil
}
