package prometheus

// AppMetrics bundles every instrument the engine records.  All components
// receive the bundle by injection; registration happens once in
// NewAppMetrics.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Prediction pipeline
	PredictionsTotal   CounterVec // labels: method
	PredictionDuration HistogramVec
	PredictionErrors   CounterVec

	// Result cache
	CacheHitsTotal      CounterVec
	CacheMissesTotal    CounterVec
	CacheEvictionsTotal CounterVec
	CacheEntries        GaugeVec

	// External reasoning tier
	ReasoningRequestsTotal CounterVec // labels: outcome
	ReasoningDuration      HistogramVec
	ReasoningRetriesTotal  CounterVec

	// Validation scorer
	ValidationsTotal     CounterVec // labels: verdict
	ValidationConfidence HistogramVec

	// Training
	CorpusReactionsLoaded GaugeVec
	TrainingDuration      HistogramVec

	// System
	ErrorsTotal CounterVec
}

var (
	DefaultHTTPDurationBuckets      = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultReasoningDurationBuckets = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	DefaultTrainingDurationBuckets  = []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60}
	DefaultConfidenceBuckets        = []float64{.1, .2, .3, .4, .5, .6, .7, .8, .9, 1}
)

// NewAppMetrics registers every instrument on the collector and returns the
// populated bundle.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	m.PredictionsTotal = collector.RegisterCounter("predictions_total", "Predictions served, by tier", "method")
	m.PredictionDuration = collector.RegisterHistogram("prediction_duration_seconds", "End-to-end prediction duration", DefaultHTTPDurationBuckets, "method")
	m.PredictionErrors = collector.RegisterCounter("prediction_errors_total", "Prediction requests that returned an error", "reason")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Result cache hits", "backend")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Result cache misses", "backend")
	m.CacheEvictionsTotal = collector.RegisterCounter("cache_evictions_total", "Result cache evictions", "backend")
	m.CacheEntries = collector.RegisterGauge("cache_entries", "Tracked result cache entries", "backend")

	m.ReasoningRequestsTotal = collector.RegisterCounter("reasoning_requests_total", "External reasoning calls", "outcome")
	m.ReasoningDuration = collector.RegisterHistogram("reasoning_duration_seconds", "External reasoning call duration", DefaultReasoningDurationBuckets, "outcome")
	m.ReasoningRetriesTotal = collector.RegisterCounter("reasoning_retries_total", "External reasoning retry attempts")

	m.ValidationsTotal = collector.RegisterCounter("validations_total", "Validation runs, by verdict", "verdict")
	m.ValidationConfidence = collector.RegisterHistogram("validation_confidence", "Validation confidence distribution", DefaultConfidenceBuckets)

	m.CorpusReactionsLoaded = collector.RegisterGauge("corpus_reactions_loaded", "Reactions in the active training corpus")
	m.TrainingDuration = collector.RegisterHistogram("training_duration_seconds", "Tier training duration", DefaultTrainingDurationBuckets, "tier")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by module", "module", "code")

	return m
}
