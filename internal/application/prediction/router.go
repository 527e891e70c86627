// Package prediction hosts the application layer of the engine: the tier
// router that cascades a request through the four prediction levels, and the
// service that wraps routing with caching, validation and event publishing.
package prediction

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/turtacn/ChemReact-Intelligence/internal/domain/reaction"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/common"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// ReasoningTier is the contract the router requires from the Level 3 engine.
// Unlike the plain tiers it receives the quantum record, and Ready gates
// whether an attempt is made at all.
type ReasoningTier interface {
	Name() string
	Ready() bool
	Predict(ctx context.Context, reactants []string, quantum *rxn.QuantumRecord, topK int) (*rxn.PredictionResult, error)
}

// RouterConfig carries the routing policy knobs.
type RouterConfig struct {
	// PatternThreshold is the minimum Level 2 confidence (exclusive, 0-100
	// scale) required to accept the classifier's answer instead of
	// escalating further.
	PatternThreshold float64
	// TopK is the number of product candidates requested from each tier.
	TopK int
}

// Router walks the tiers in fixed order and returns the first accepted
// answer.  Exactly one tier is credited per successful call, so the per-tier
// hit counters always sum to the total.
type Router struct {
	exact     common.Tier
	pattern   common.Tier
	reasoning ReasoningTier
	rules     common.Tier

	cfg     RouterConfig
	logger  logging.Logger
	metrics common.TierMetrics

	level1Hits atomic.Int64
	level2Hits atomic.Int64
	level3Hits atomic.Int64
	level4Hits atomic.Int64
	total      atomic.Int64
}

func NewRouter(cfg RouterConfig, exact, pattern common.Tier, reasoning ReasoningTier, rules common.Tier, logger logging.Logger, metrics common.TierMetrics) *Router {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = common.NewNoopTierMetrics()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = common.DefaultTopK
	}
	return &Router{
		exact:     exact,
		pattern:   pattern,
		reasoning: reasoning,
		rules:     rules,
		cfg:       cfg,
		logger:    logger.Named("router"),
		metrics:   metrics,
	}
}

// Predict cascades through the tiers.  Level 1 wins on any hit, Level 2 wins
// when its confidence clears the threshold, Level 3 wins when the external
// call succeeds, and Level 4 is total so a valid request always yields a
// result.  The only error path is invalid input.
func (r *Router) Predict(ctx context.Context, reactants []string, quantum *rxn.QuantumRecord) (*rxn.PredictionResult, error) {
	if err := reaction.ValidateReactants(reactants); err != nil {
		return nil, err
	}
	start := time.Now()

	// Level 1: exact corpus match.
	if result, err := r.exact.Predict(ctx, reactants, r.cfg.TopK); err != nil {
		r.logger.Warn("exact-match tier failed", logging.Err(err))
	} else if result != nil {
		return r.accept(ctx, &r.level1Hits, result, start), nil
	}

	// Level 2: pattern classifier, accepted only above the threshold.
	if result, err := r.pattern.Predict(ctx, reactants, r.cfg.TopK); err != nil {
		r.logger.Warn("pattern tier failed", logging.Err(err))
	} else if result != nil && result.Confidence > r.cfg.PatternThreshold {
		return r.accept(ctx, &r.level2Hits, result, start), nil
	}

	// Level 3: external reasoning.  Failures here are logged and absorbed;
	// the tier stays eligible for the next request.
	if r.reasoning != nil && r.reasoning.Ready() {
		result, err := r.reasoning.Predict(ctx, reactants, quantum, r.cfg.TopK)
		switch {
		case err != nil:
			r.logger.Warn("reasoning tier failed, falling back to rules",
				logging.Strings("reactants", reactants),
				logging.Err(err))
		case result != nil:
			return r.accept(ctx, &r.level3Hits, result, start), nil
		}
	}

	// Level 4: rules never decline.
	result, err := r.rules.Predict(ctx, reactants, r.cfg.TopK)
	if err != nil || result == nil {
		// Not reachable with the stock rule engine, but the counter
		// invariant must hold even with a misbehaving replacement.
		r.logger.Error("rule tier failed", logging.Err(err))
		result = &rxn.PredictionResult{
			Products:   []rxn.ProductCandidate{{Formula: rxn.UnknownProduct, Name: "Unknown", Probability: 0}},
			Confidence: 0,
			Method:     rxn.MethodFallbackRule,
			Speed:      rxn.SpeedInstant,
			Reasoning:  "rule engine unavailable",
		}
	}
	return r.accept(ctx, &r.level4Hits, result, start), nil
}

func (r *Router) accept(ctx context.Context, counter *atomic.Int64, result *rxn.PredictionResult, start time.Time) *rxn.PredictionResult {
	counter.Add(1)
	r.total.Add(1)
	r.metrics.RecordPrediction(ctx, &common.PredictionMetricParams{
		Tier:       string(result.Method),
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Success:    true,
		Confidence: result.Confidence,
	})
	r.logger.Debug("prediction routed",
		logging.String("method", string(result.Method)),
		logging.Float64("confidence", result.Confidence),
		logging.Duration("elapsed", time.Since(start)))
	return result
}

// Stats returns a point-in-time snapshot of routing counters.  Percentages
// are zero when nothing has been predicted yet.
func (r *Router) Stats() rxn.RouterStats {
	stats := rxn.RouterStats{
		Level1Hits:       r.level1Hits.Load(),
		Level2Hits:       r.level2Hits.Load(),
		Level3Hits:       r.level3Hits.Load(),
		Level4Hits:       r.level4Hits.Load(),
		TotalPredictions: r.total.Load(),
	}
	if stats.TotalPredictions == 0 {
		return stats
	}
	total := float64(stats.TotalPredictions)
	stats.Level1Percentage = float64(stats.Level1Hits) / total * 100
	stats.Level2Percentage = float64(stats.Level2Hits) / total * 100
	stats.Level3Percentage = float64(stats.Level3Hits) / total * 100
	stats.Level4Percentage = float64(stats.Level4Hits) / total * 100
	return stats
}
