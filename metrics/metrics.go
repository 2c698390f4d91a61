// Package metrics exposes Prometheus instruments for the pricing pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "print_pricing"

// Metrics groups the pricing pipeline instruments
type Metrics struct {
	PricingPasses  *prometheus.CounterVec
	PricingLatency *prometheus.HistogramVec
	StaleResults   prometheus.Counter
	ConfigGaps     *prometheus.CounterVec
	SampleFailures prometheus.Counter
	SkippedSides   prometheus.Counter
}

// New creates the instruments and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PricingPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Pricing passes by scope (object, side, summary).",
		}, []string{"scope"}),
		PricingLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of pricing passes by scope.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"scope"}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Pricing results discarded because a newer canvas version started.",
		}),
		ConfigGaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_gaps_total",
			Help:      "Price lookups that hit a missing price table entry.",
		}, []string{"method", "size"}),
		SampleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_sample_failures_total",
			Help:      "Image objects whose pixels could not be sampled.",
		}),
		SkippedSides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_sides_total",
			Help:      "Product sides skipped in a summary because the canvas was missing or failed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.PricingPasses, m.PricingLatency, m.StaleResults, m.ConfigGaps, m.SampleFailures, m.SkippedSides)
	}
	return m
}

// ObservePass records one pricing pass of the given scope
func (m *Metrics) ObservePass(scope string, started time.Time) {
	if m == nil {
		return
	}
	m.PricingPasses.WithLabelValues(scope).Inc()
	m.PricingLatency.WithLabelValues(scope).Observe(time.Since(started).Seconds())
}

// IncStale counts a discarded stale result
func (m *Metrics) IncStale() {
	if m == nil {
		return
	}
	m.StaleResults.Inc()
}

// IncConfigGap counts a missing price table entry
func (m *Metrics) IncConfigGap(method, size string) {
	if m == nil {
		return
	}
	m.ConfigGaps.WithLabelValues(method, size).Inc()
}

// IncSampleFailure counts an image that could not be sampled
func (m *Metrics) IncSampleFailure() {
	if m == nil {
		return
	}
	m.SampleFailures.Inc()
}

// IncSkippedSide counts a side left out of a summary
func (m *Metrics) IncSkippedSide() {
	if m == nil {
		return
	}
	m.SkippedSides.Inc()
}
