package ingestion

import (
	"errors"
	"log/slog"

	"github.com/poiesic/atlas/graph"
)

// MaxBatchIncrement caps the intelligence gained from one batch.
const MaxBatchIncrement = 5.0

// Graph is the part of the concept graph absorption writes to.
type Graph interface {
	RecordAbsorption(name, content, source string) error
	DiscoverIfMatched(content, source string) []string
}

// Summary reports what one batch changed.
type Summary struct {
	Absorbed   int      // Samples recorded against an existing concept
	Skipped    int      // Unsuccessful results
	Discovered []string // Concepts created by discovery
	DataPoints float64
	Increment  float64 // Intelligence increment, min(5, DataPoints/100)
}

// Absorber applies batches to a concept graph.
type Absorber struct {
	logger  *slog.Logger
	extract func(content string) (string, bool)
}

// Option configures an Absorber.
type Option func(*Absorber) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Absorber) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAbsorber creates an Absorber.
func NewAbsorber(opts ...Option) (*Absorber, error) {
	a := &Absorber{
		logger:  slog.Default(),
		extract: graph.ExtractConcept,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	a.logger = a.logger.With("component", "absorber")
	return a, nil
}

// Absorb folds every sample of every successful result into g.
func (a *Absorber) Absorb(g Graph, batch *Batch) (Summary, error) {
	var summary Summary
	if g == nil {
		return summary, ErrGraphRequired
	}
	if batch == nil {
		return summary, nil
	}

	for _, result := range batch.Results {
		if !result.Success {
			summary.Skipped++
			continue
		}
		for _, sample := range result.ContentSample {
			content := SampleText(sample)
			if name, ok := a.extract(content); ok {
				err := g.RecordAbsorption(name, content, result.Source)
				switch {
				case err == nil:
					summary.Absorbed++
				case errors.Is(err, graph.ErrConceptNotFound):
				default:
					return summary, err
				}
			}
			summary.Discovered = append(summary.Discovered, g.DiscoverIfMatched(content, result.Source)...)
		}
	}

	summary.DataPoints = batch.TotalDataPoints()
	summary.Increment = min(MaxBatchIncrement, summary.DataPoints/100)

	a.logger.Info("absorbed batch",
		"timestamp", batch.Timestamp,
		"absorbed", summary.Absorbed,
		"discovered", len(summary.Discovered),
		"data_points", summary.DataPoints)
	return summary, nil
}
