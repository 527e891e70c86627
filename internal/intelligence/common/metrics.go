package common

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// TierMetrics is the telemetry surface the prediction tiers record through.
// Implementations can be swapped (in-memory for tests, a Prometheus bridge
// in production) without touching tier code.
type TierMetrics interface {
	// RecordPrediction records one tier attempt.
	RecordPrediction(ctx context.Context, params *PredictionMetricParams)

	// GetLatencyHistogram returns the latency histogram for SLO monitoring.
	GetLatencyHistogram() LatencyHistogram

	// GetCurrentStats returns a point-in-time snapshot.
	GetCurrentStats() *TierStats
}

// LatencyHistogram provides percentile-based latency observation.
type LatencyHistogram interface {
	Observe(durationMs float64)
	Percentile(p float64) float64
	Count() int64
	Sum() float64
}

// PredictionMetricParams carries the data for a single tier attempt.
type PredictionMetricParams struct {
	Tier       string  `json:"tier"`
	DurationMs float64 `json:"duration_ms"`
	Success    bool    `json:"success"`
	Confidence float64 `json:"confidence"`
}

// TierStats is a point-in-time snapshot of tier telemetry.
type TierStats struct {
	TotalPredictions      int64   `json:"total_predictions"`
	SuccessfulPredictions int64   `json:"successful_predictions"`
	FailedPredictions     int64   `json:"failed_predictions"`
	AvgLatencyMs          float64 `json:"avg_latency_ms"`
	P50LatencyMs          float64 `json:"p50_latency_ms"`
	P95LatencyMs          float64 `json:"p95_latency_ms"`
	P99LatencyMs          float64 `json:"p99_latency_ms"`
}

// ---------------------------------------------------------------------------
// Noop implementation
// ---------------------------------------------------------------------------

type noopTierMetrics struct{}

// NewNoopTierMetrics returns a TierMetrics that discards everything.
func NewNoopTierMetrics() TierMetrics { return noopTierMetrics{} }

func (noopTierMetrics) RecordPrediction(context.Context, *PredictionMetricParams) {}
func (noopTierMetrics) GetLatencyHistogram() LatencyHistogram                     { return newLatencyHistogram() }
func (noopTierMetrics) GetCurrentStats() *TierStats                               { return &TierStats{} }

// ---------------------------------------------------------------------------
// In-memory implementation
// ---------------------------------------------------------------------------

type inMemoryTierMetrics struct {
	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64
	hist    *latencyHistogram

	mu      sync.Mutex
	records []PredictionMetricParams
}

// NewInMemoryTierMetrics returns a TierMetrics that keeps every record,
// suitable for unit tests and the stats endpoint of small deployments.
func NewInMemoryTierMetrics() *inMemoryTierMetrics {
	return &inMemoryTierMetrics{hist: newLatencyHistogram()}
}

func (m *inMemoryTierMetrics) RecordPrediction(_ context.Context, p *PredictionMetricParams) {
	if p == nil {
		return
	}
	m.total.Add(1)
	if p.Success {
		m.success.Add(1)
	} else {
		m.failed.Add(1)
	}
	m.hist.Observe(p.DurationMs)

	m.mu.Lock()
	m.records = append(m.records, *p)
	m.mu.Unlock()
}

func (m *inMemoryTierMetrics) GetLatencyHistogram() LatencyHistogram { return m.hist }

func (m *inMemoryTierMetrics) GetCurrentStats() *TierStats {
	total := m.total.Load()
	var avg float64
	if total > 0 {
		avg = m.hist.Sum() / float64(total)
	}
	return &TierStats{
		TotalPredictions:      total,
		SuccessfulPredictions: m.success.Load(),
		FailedPredictions:     m.failed.Load(),
		AvgLatencyMs:          avg,
		P50LatencyMs:          m.hist.Percentile(50),
		P95LatencyMs:          m.hist.Percentile(95),
		P99LatencyMs:          m.hist.Percentile(99),
	}
}

// Records returns a copy of every recorded attempt.
func (m *inMemoryTierMetrics) Records() []PredictionMetricParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PredictionMetricParams, len(m.records))
	copy(out, m.records)
	return out
}

// ---------------------------------------------------------------------------
// latencyHistogram
// ---------------------------------------------------------------------------

type latencyHistogram struct {
	mu      sync.Mutex
	samples []float64
	sum     float64
	sorted  bool
}

func newLatencyHistogram() *latencyHistogram {
	return &latencyHistogram{samples: make([]float64, 0, 1024)}
}

func (h *latencyHistogram) Observe(durationMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = append(h.samples, durationMs)
	h.sum += durationMs
	h.sorted = false
}

// Percentile returns the value at percentile p (0-100) using linear
// interpolation between the two nearest ranks.
func (h *latencyHistogram) Percentile(p float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.samples)
	if n == 0 {
		return 0
	}
	if !h.sorted {
		sort.Float64s(h.samples)
		h.sorted = true
	}
	if p <= 0 {
		return h.samples[0]
	}
	if p >= 100 {
		return h.samples[n-1]
	}

	rank := (p / 100) * float64(n-1)
	lower := int(math.Floor(rank))
	upper := lower + 1
	if upper >= n {
		return h.samples[n-1]
	}
	frac := rank - float64(lower)
	return h.samples[lower] + frac*(h.samples[upper]-h.samples[lower])
}

func (h *latencyHistogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int64(len(h.samples))
}

func (h *latencyHistogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

var (
	_ TierMetrics      = (noopTierMetrics{})
	_ TierMetrics      = (*inMemoryTierMetrics)(nil)
	_ LatencyHistogram = (*latencyHistogram)(nil)
)
