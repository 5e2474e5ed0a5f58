// Package metrics holds the Prometheus collectors for chunk analysis.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Analysis records per-chunk completion outcomes, retries and parse failures.
// A nil *Analysis is valid and records nothing.
type Analysis struct {
	chunkRequests *prometheus.CounterVec
	retries       *prometheus.CounterVec
	parseFailures prometheus.Counter
	chunkDuration prometheus.Histogram
}

// NewAnalysis creates the analysis collectors and registers them on reg.
func NewAnalysis(reg prometheus.Registerer) (*Analysis, error) {
	m := &Analysis{
		chunkRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_chunk_requests_total",
				Help: "Chunks analyzed, by final outcome.",
			},
			[]string{"outcome"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analysis_chunk_retries_total",
				Help: "Completion retries, by reason.",
			},
			[]string{"reason"},
		),
		parseFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analysis_chunk_parse_failures_total",
				Help: "Model responses that could not be parsed as an analysis.",
			},
		),
		chunkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analysis_chunk_duration_seconds",
				Help:    "Wall time to analyze one chunk, retries and backoff included.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
		),
	}

	for _, c := range []prometheus.Collector{m.chunkRequests, m.retries, m.parseFailures, m.chunkDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveChunk records the final outcome of one chunk and how long it took.
func (m *Analysis) ObserveChunk(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.chunkRequests.WithLabelValues(outcome).Inc()
	m.chunkDuration.Observe(d.Seconds())
}

// IncRetry counts one scheduled retry.
func (m *Analysis) IncRetry(reason string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(reason).Inc()
}

// IncParseFailure counts one unparseable model response.
func (m *Analysis) IncParseFailure() {
	if m == nil {
		return
	}
	m.parseFailures.Inc()
}
