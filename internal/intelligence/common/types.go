// Package common holds the contracts shared by the prediction tiers:
// the Tier interface the router consumes and the metrics surface every tier
// reports through.
package common

import (
	"context"

	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// DefaultTopK is the number of product candidates a tier returns when the
// caller does not ask for a specific count.
const DefaultTopK = 3

// Tier is one strategy in the prediction cascade.  Implementations must be
// safe for concurrent use; Predict must not mutate its input slice.
//
// A nil result with a nil error means the tier declines (miss or
// below-threshold confidence) and the router moves on.  A non-nil error
// means the tier attempted and failed; the router logs it and falls
// through.  Only the rule tier is total and never declines.
type Tier interface {
	// Name identifies the tier in logs and statistics.
	Name() string

	// Predict attempts a prediction for the reactant multiset.
	Predict(ctx context.Context, reactants []string, topK int) (*rxn.PredictionResult, error)
}

// ReadyChecker is implemented by tiers that may be absent for the process
// lifetime, such as a classifier without a trained artifact.  The router
// skips a tier whose Ready reports false without counting it as failed.
type ReadyChecker interface {
	Ready() bool
}
