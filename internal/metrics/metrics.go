// Package metrics holds the prometheus collectors for rate resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResolverMetrics groups the counters and histograms recorded while
// resolving rates.
type ResolverMetrics struct {
	// Terminal outcomes, one per Resolve call
	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec

	// Per adapter attempts
	AdapterFailuresTotal *prometheus.CounterVec
	AdapterDuration      *prometheus.HistogramVec

	// Cache
	CacheWriteErrorsTotal prometheus.Counter

	// Background refresh
	RefreshTotal *prometheus.CounterVec
}

// NewResolverMetrics registers the collectors on reg. A nil reg uses the
// default registerer.
func NewResolverMetrics(reg prometheus.Registerer) *ResolverMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &ResolverMetrics{
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_resolutions_total",
				Help: "Resolved rates by the tier that produced them",
			},
			[]string{"source"},
		),

		ResolutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fx_resolution_duration_seconds",
				Help:    "Time spent resolving one rate",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms .. ~8s
			},
			[]string{"source"},
		),

		AdapterFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_adapter_failures_total",
				Help: "Failed adapter attempts by provider and failure kind",
			},
			[]string{"provider", "kind"},
		),

		AdapterDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fx_adapter_duration_seconds",
				Help:    "Latency of single adapter attempts",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"provider", "ok"},
		),

		CacheWriteErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fx_cache_write_errors_total",
				Help: "Failed writes to the rate cache",
			},
		),

		RefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fx_refresh_tasks_total",
				Help: "Processed background refresh tasks by resulting source",
			},
			[]string{"source"},
		),
	}
}

// RecordResolution records a terminal resolution outcome.
func (m *ResolverMetrics) RecordResolution(source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ResolutionsTotal.WithLabelValues(source).Inc()
	m.ResolutionDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordAdapterAttempt records one adapter call. kind is empty on success.
func (m *ResolverMetrics) RecordAdapterAttempt(provider, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	ok := "true"
	if kind != "" {
		ok = "false"
		m.AdapterFailuresTotal.WithLabelValues(provider, kind).Inc()
	}
	m.AdapterDuration.WithLabelValues(provider, ok).Observe(elapsed.Seconds())
}

// RecordCacheWriteError counts a failed cache write.
func (m *ResolverMetrics) RecordCacheWriteError() {
	if m == nil {
		return
	}
	m.CacheWriteErrorsTotal.Inc()
}

// RecordRefresh counts a processed refresh task.
func (m *ResolverMetrics) RecordRefresh(source string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(source).Inc()
}
