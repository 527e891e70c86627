package prediction

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/cache"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
	promwrap "github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ChemReact-Intelligence/internal/intelligence/validator"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// ResultCache is what the service needs from the cache layer.
type ResultCache interface {
	Get(ctx context.Context, elements []string, geometry map[string]float64) (json.RawMessage, bool, error)
	Set(ctx context.Context, elements []string, geometry map[string]float64, data interface{}) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*cache.Stats, error)
}

// EventPublisher is what the service needs from the messaging layer.
type EventPublisher interface {
	PublishPrediction(ctx context.Context, event *kafka.PredictionEvent) error
}

// Response is the full answer for one prediction request: the tier result,
// the advisory validation report and whether it came from the cache.
type Response struct {
	Reactants  []string              `json:"reactants"`
	Prediction *rxn.PredictionResult `json:"prediction"`
	Validation *rxn.ValidationReport `json:"validation,omitempty"`
	Cached     bool                  `json:"cached"`
}

// Service orchestrates one prediction end to end.  Cache, publisher and
// metrics are all optional; the service degrades to plain routing plus
// validation without them.
type Service struct {
	router    *Router
	validator *validator.Validator
	cache     ResultCache
	publisher EventPublisher
	metrics   *promwrap.AppMetrics
	backend   string
	logger    logging.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithCache attaches a result cache.  The backend name is only a metrics
// label.
func WithCache(c ResultCache, backend string) ServiceOption {
	return func(s *Service) {
		s.cache = c
		s.backend = backend
	}
}

// WithPublisher attaches a prediction-event publisher.
func WithPublisher(p EventPublisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics attaches the application metrics bundle.
func WithMetrics(m *promwrap.AppMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(router *Router, v *validator.Validator, logger logging.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Service{
		router:    router,
		validator: v,
		backend:   "none",
		logger:    logger.Named("prediction"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict answers one request.  The cache is consulted first; on a miss the
// router cascades through the tiers and the validator scores the winner.
// Cache writes and event publishing are best effort and never fail the call.
func (s *Service) Predict(ctx context.Context, reactants []string, quantum *rxn.QuantumRecord) (*Response, error) {
	start := time.Now()

	var geometry map[string]float64
	if quantum != nil {
		geometry = quantum.BondLengths
	}

	if cached, ok := s.fromCache(ctx, reactants, geometry); ok {
		return cached, nil
	}

	result, err := s.router.Predict(ctx, reactants, quantum)
	if err != nil {
		if s.metrics != nil {
			s.metrics.PredictionErrors.WithLabelValues("invalid_input").Inc()
		}
		return nil, err
	}

	report := s.validator.Validate(reactants, result, quantum)
	resp := &Response{
		Reactants:  reactants,
		Prediction: result,
		Validation: &report,
	}

	s.toCache(ctx, reactants, geometry, resp)
	s.publish(ctx, reactants, result, report.Verdict)

	if s.metrics != nil {
		s.metrics.PredictionsTotal.WithLabelValues(string(result.Method)).Inc()
		s.metrics.PredictionDuration.WithLabelValues(string(result.Method)).Observe(time.Since(start).Seconds())
		s.metrics.ValidationsTotal.WithLabelValues(string(report.Verdict)).Inc()
		s.metrics.ValidationConfidence.WithLabelValues().Observe(report.Confidence)
	}
	return resp, nil
}

func (s *Service) fromCache(ctx context.Context, reactants []string, geometry map[string]float64) (*Response, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, reactants, geometry)
	if err != nil {
		s.logger.Warn("cache lookup failed", logging.Err(err))
		return nil, false
	}
	if !ok {
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues(s.backend).Inc()
		}
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn("discarding undecodable cache entry", logging.Err(err))
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues(s.backend).Inc()
	}
	resp.Cached = true
	return &resp, true
}

func (s *Service) toCache(ctx context.Context, reactants []string, geometry map[string]float64, resp *Response) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, reactants, geometry, resp); err != nil {
		s.logger.Warn("cache write failed", logging.Err(err))
	}
}

func (s *Service) publish(ctx context.Context, reactants []string, result *rxn.PredictionResult, verdict rxn.ValidationVerdict) {
	if s.publisher == nil {
		return
	}
	event := &kafka.PredictionEvent{
		Reactants:  reactants,
		Products:   result.Products,
		Method:     result.Method,
		Confidence: result.Confidence,
		Verdict:    verdict,
	}
	if err := s.publisher.PublishPrediction(ctx, event); err != nil {
		s.logger.Warn("prediction event not published", logging.Err(err))
	}
}

// Validate scores a caller-supplied prediction without routing it through
// the tiers.  Used by the validation endpoint to re-check external results.
func (s *Service) Validate(reactants []string, result *rxn.PredictionResult, quantum *rxn.QuantumRecord) rxn.ValidationReport {
	return s.validator.Validate(reactants, result, quantum)
}

// ServiceStats aggregates the observable state of the prediction path.
type ServiceStats struct {
	Router     rxn.RouterStats `json:"router"`
	Validation validator.Stats `json:"validation"`
	Cache      *cache.Stats    `json:"cache,omitempty"`
}

func (s *Service) Stats(ctx context.Context) ServiceStats {
	stats := ServiceStats{
		Router:     s.router.Stats(),
		Validation: s.validator.GetStats(),
	}
	if s.cache != nil {
		if cs, err := s.cache.Stats(ctx); err == nil {
			stats.Cache = cs
		} else {
			s.logger.Warn("cache stats unavailable", logging.Err(err))
		}
	}
	return stats
}

// ClearCache drops every cached response.
func (s *Service) ClearCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}
