// Package metrics exposes Prometheus collectors for the engine.
package metrics

import (
	"time"

	"github.com/poiesic/atlas/cognition"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "atlas"

// Metrics holds the engine's collectors, registered on one registry.
type Metrics struct {
	Queries           *prometheus.CounterVec
	QueryDuration     prometheus.Histogram
	Phases            *prometheus.CounterVec
	Batches           *prometheus.CounterVec
	AbsorbedSamples   prometheus.Counter
	Discovered        prometheus.Counter
	Consolidations    prometheus.Counter
	Reinforced        prometheus.Counter
	Saves             *prometheus.CounterVec
	IntelligenceLevel prometheus.Gauge
	Concepts          prometheus.Gauge
	Conversations     prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Queries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of queries by result",
			},
			[]string{"result"},
		),
		QueryDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query pipeline duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
		Phases: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_phases_total",
				Help:      "Total number of pipeline phases entered",
			},
			[]string{"phase"},
		),
		Batches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "absorption_batches_total",
				Help:      "Absorption batches by outcome",
			},
			[]string{"outcome"},
		),
		AbsorbedSamples: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "absorbed_samples_total",
				Help:      "Content samples recorded against an existing concept",
			},
		),
		Discovered: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovered_concepts_total",
				Help:      "Concepts created by discovery",
			},
		),
		Consolidations: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "consolidations_total",
				Help:      "Consolidation cycles run",
			},
		),
		Reinforced: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reinforced_concepts_total",
				Help:      "Concept confidence raises applied by consolidation",
			},
		),
		Saves: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_total",
				Help:      "Persistence saves by result",
			},
			[]string{"result"},
		),
		IntelligenceLevel: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "intelligence_level",
				Help:      "Current intelligence level",
			},
		),
		Concepts: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "concepts",
				Help:      "Number of concepts in the graph",
			},
		),
		Conversations: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "conversations",
				Help:      "Number of remembered interactions",
			},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveSave counts one save attempt.
func (m *Metrics) ObserveSave(err error) {
	if err != nil {
		m.Saves.WithLabelValues("error").Inc()
		return
	}
	m.Saves.WithLabelValues("ok").Inc()
}

// QueryMonitor returns a cognition.Monitor feeding the query collectors.
// The returned monitor assumes queries do not overlap.
func (m *Metrics) QueryMonitor() cognition.Monitor {
	return &queryMonitor{m: m}
}

type queryMonitor struct {
	m       *Metrics
	started time.Time
}

func (q *queryMonitor) Start(_ string) {
	q.started = time.Now()
}

func (q *queryMonitor) EnterPhase(phase cognition.Phase) {
	q.m.Phases.WithLabelValues(phase.String()).Inc()
}

func (q *queryMonitor) Finish(err error) {
	q.m.QueryDuration.Observe(time.Since(q.started).Seconds())
	if err != nil {
		q.m.Queries.WithLabelValues("error").Inc()
		return
	}
	q.m.Queries.WithLabelValues("ok").Inc()
}
