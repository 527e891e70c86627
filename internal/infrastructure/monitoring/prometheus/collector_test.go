package prometheus

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ChemReact-Intelligence/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "chemreact"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestRegisterCounter_CountsAndExposes(t *testing.T) {
	c := newTestCollector(t)

	vec := c.RegisterCounter("predictions_total", "Predictions served", "method")
	vec.WithLabelValues("exact_match").Inc()
	vec.WithLabelValues("exact_match").Add(2)
	vec.WithLabelValues("fallback_rule").Inc()

	body := scrape(t, c)
	assert.Contains(t, body, `chemreact_predictions_total{method="exact_match"} 3`)
	assert.Contains(t, body, `chemreact_predictions_total{method="fallback_rule"} 1`)
}

func TestRegisterCounter_DuplicateNameIsIdempotent(t *testing.T) {
	c := newTestCollector(t)

	first := c.RegisterCounter("cache_hits_total", "Cache hits", "backend")
	second := c.RegisterCounter("cache_hits_total", "Cache hits", "backend")

	first.WithLabelValues("file").Inc()
	second.WithLabelValues("file").Inc()

	assert.Contains(t, scrape(t, c), `chemreact_cache_hits_total{backend="file"} 2`)
}

func TestRegisterCounter_TypeMismatchFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)

	c.RegisterGauge("cache_entries", "Entries", "backend")
	vec := c.RegisterCounter("cache_entries", "Entries", "backend")

	// The mismatched registration must not panic and must not record.
	assert.NotPanics(t, func() { vec.WithLabelValues("file").Inc() })
}

func TestRegisterGauge_SetAndExpose(t *testing.T) {
	c := newTestCollector(t)

	vec := c.RegisterGauge("cache_entries", "Entries", "backend")
	vec.WithLabelValues("file").Set(42)

	assert.Contains(t, scrape(t, c), `chemreact_cache_entries{backend="file"} 42`)
}

func TestRegisterHistogram_ObservesWithDefaultBuckets(t *testing.T) {
	c := newTestCollector(t)

	vec := c.RegisterHistogram("prediction_duration_seconds", "Duration", nil, "method")
	vec.WithLabelValues("ml_pattern").Observe(0.02)

	body := scrape(t, c)
	assert.Contains(t, body, `chemreact_prediction_duration_seconds_count{method="ml_pattern"} 1`)
}

func TestNewAppMetrics_RegistersEverything(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.PredictionsTotal.WithLabelValues("exact_match").Inc()
	m.CacheHitsTotal.WithLabelValues("file").Inc()
	m.ValidationsTotal.WithLabelValues("LIKELY_CORRECT").Inc()
	m.CorpusReactionsLoaded.WithLabelValues().Set(10)

	body := scrape(t, c)
	for _, want := range []string{
		"chemreact_predictions_total",
		"chemreact_cache_hits_total",
		"chemreact_validations_total",
		"chemreact_corpus_reactions_loaded",
	} {
		assert.Contains(t, body, want)
	}
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "chemreact_") || body == "", "unexpected scrape output")
	return body
}
