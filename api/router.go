// Package api serves the engine over HTTP.
package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/poiesic/atlas"
	"github.com/poiesic/atlas/cognition"
	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/ingestion"
	"github.com/poiesic/atlas/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the engine surface exposed over HTTP.
type Engine interface {
	Think(ctx context.Context, q cognition.Query) (*core.Response, error)
	Absorb(ctx context.Context, batch *ingestion.Batch) (ingestion.Summary, error)
	Consolidate(ctx context.Context) (atlas.ConsolidationReport, error)
	Status() core.Status
	CognitiveInsights() core.CognitiveInsights
}

var _ Engine = (*atlas.Engine)(nil)

// NewRouter creates the Chi router with all routes and middleware.
// m and gatherer may be nil, which disables request metrics and /metrics.
func NewRouter(engine Engine, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))
	if m != nil {
		r.Use(Instrument(m))
	}

	h := NewHandler(engine, logger)
	r.Get("/health", h.Health)
	r.Get("/status", h.Status)
	r.Get("/insights", h.Insights)
	r.Post("/think", h.Think)
	r.Post("/absorb", h.Absorb)
	r.Post("/consolidate", h.Consolidate)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}
