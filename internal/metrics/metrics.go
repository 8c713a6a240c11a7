// Package metrics registers Prometheus metrics for the sentinel
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsNamespace is the namespace for all sentinel metrics.
const MetricsNamespace = "sentinel"

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	// Fetcher metrics
	FetchTotal          *prometheus.CounterVec // outcome: live|cache|stale_cache|store|empty|demo
	QuotaExhaustedTotal *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec

	// Pipeline metrics
	ItemsIngested   *prometheus.CounterVec
	ItemsDeduped    *prometheus.CounterVec
	ItemsDropped    *prometheus.CounterVec
	ClassifiedTotal *prometheus.CounterVec // method: lexical|ai

	// Aggregation metrics
	IssuesUpserted      *prometheus.CounterVec // action: created|updated
	AttackPointsTotal   *prometheus.CounterVec // action: created|evidence_appended
	ScoresComputedTotal *prometheus.CounterVec // status: ok|degraded
}

// New creates and registers all pipeline metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "fetch_total",
				Help:      "Total fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		QuotaExhaustedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "quota_exhausted_total",
				Help:      "Fetches refused because the window budget was spent",
			},
			[]string{"source", "window"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of fetch operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		ItemsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "items_ingested_total",
				Help:      "Content items accepted into the pipeline",
			},
			[]string{"source"},
		),
		ItemsDeduped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "items_deduped_total",
				Help:      "Content items discarded as duplicates",
			},
			[]string{"source"},
		),
		ItemsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "items_dropped_total",
				Help:      "Payloads dropped for missing required fields",
			},
			[]string{"source"},
		),
		ClassifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "classified_total",
				Help:      "Items classified by method",
			},
			[]string{"method"},
		),
		IssuesUpserted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "issues_upserted_total",
				Help:      "Tracked issue upserts by action",
			},
			[]string{"action"},
		),
		AttackPointsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "attack_points_total",
				Help:      "Attack point mutations by action",
			},
			[]string{"action"},
		),
		ScoresComputedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "scores_computed_total",
				Help:      "Vulnerability score computations by status",
			},
			[]string{"status"},
		),
	}
}
