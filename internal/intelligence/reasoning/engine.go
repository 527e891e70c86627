package reasoning

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/ChemReact-Intelligence/internal/config"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/common"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// TierName is the statistics label for this tier.
const TierName = "external_reasoning"

// Engine is the Level 3 reasoning tier.  The underlying client is built
// lazily on first use; a failed initialization (no API key configured) is
// reported as an error on every call rather than latched, so supplying the
// key and restarting is the only recovery needed and a transient fault never
// permanently disables the tier.
type Engine struct {
	cfg    config.ReasoningConfig
	logger logging.Logger

	mu     sync.Mutex
	client *Client
}

func NewEngine(cfg config.ReasoningConfig, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.Named("reasoning"),
	}
}

// Name implements the tier contract.
func (e *Engine) Name() string { return TierName }

// Ready reports whether the tier can be attempted at all.  The router skips
// Level 3 entirely when no API key is configured.
func (e *Engine) Ready() bool { return e.cfg.APIKey != "" }

func (e *Engine) ensureClient() (*Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return e.client, nil
	}
	if e.cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.ErrCodeModelNotAvailable, "reasoning API key not configured")
	}
	e.client = NewClient(e.cfg)
	e.logger.Info("reasoning client initialized",
		logging.String("model", e.cfg.Model),
		logging.Int("max_retries", e.cfg.MaxRetries))
	return e.client, nil
}

// Predict asks the external model for products, retrying transient call and
// parse failures up to the configured attempt budget.  Each attempt runs
// under its own timeout derived from ctx.  A non-nil error means the tier
// was attempted and failed; the router logs it and falls through to rules.
func (e *Engine) Predict(ctx context.Context, reactants []string, quantum *rxn.QuantumRecord, topK int) (*rxn.PredictionResult, error) {
	if len(reactants) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeModelInputInvalid, "no reactants for reasoning")
	}
	client, err := e.ensureClient()
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(reactants, quantum)
	attempts := e.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		payload, err := e.attempt(ctx, client, prompt)
		if err == nil {
			return e.toResult(payload, topK), nil
		}
		lastErr = err
		e.logger.Warn("reasoning attempt failed",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", attempts),
			logging.Err(err))
		if attempt < attempts {
			select {
			case <-time.After(e.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeReasoningCallFailed, "reasoning aborted")
			}
		}
	}
	return nil, lastErr
}

func (e *Engine) attempt(ctx context.Context, client *Client, prompt string) (*responsePayload, error) {
	callCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}
	content, err := client.Complete(callCtx, prompt)
	if err != nil {
		return nil, err
	}
	return parsePayload(content)
}

func (e *Engine) toResult(payload *responsePayload, topK int) *rxn.PredictionResult {
	if topK <= 0 {
		topK = common.DefaultTopK
	}
	candidates := payload.candidates()
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Probability > candidates[j].Probability
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	confidence := float64(payload.Confidence)
	// Models occasionally answer on a 0-1 scale despite the contract.
	if confidence > 0 && confidence <= 1 {
		confidence *= 100
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 100 {
		confidence = 100
	}

	reasoning := payload.Reasoning
	if payload.Thermodynamics != "" {
		if reasoning != "" {
			reasoning += " "
		}
		reasoning += "Thermodynamics: " + payload.Thermodynamics
	}

	return &rxn.PredictionResult{
		Products:   candidates,
		Confidence: confidence,
		Method:     rxn.MethodExternalReasoning,
		Speed:      rxn.SpeedSlow,
		Reasoning:  reasoning,
		Mechanism:  payload.Mechanism,
	}
}
