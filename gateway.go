package atlas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/storage"
)

// State is everything the engine persists.
type State struct {
	Concepts []*core.Concept
	Memory   *core.MemorySnapshot
	Log      *core.LearningLog
}

// Gateway loads and saves engine state through the storage repositories.
type Gateway struct {
	concepts storage.ConceptRepository
	memory   storage.MemoryRepository
	retry    storage.RetryPolicy
	logger   *slog.Logger
}

// NewGateway creates a Gateway. A nil logger uses slog.Default().
func NewGateway(concepts storage.ConceptRepository, memory storage.MemoryRepository, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		concepts: concepts,
		memory:   memory,
		retry:    storage.DefaultRetryPolicy,
		logger:   logger.With("component", "gateway"),
	}
}

// Load returns the last saved state. Each part that is missing or unreadable is
// left nil so the caller falls back to its defaults; failures are logged, never returned.
func (g *Gateway) Load(ctx context.Context) State {
	var st State

	concepts, err := g.concepts.GetAllConcepts(ctx)
	switch {
	case err != nil:
		g.logger.Warn("concept graph unreadable, using defaults", "error", err)
	case len(concepts) == 0:
		g.logger.Info("no saved concept graph, using defaults")
	default:
		st.Concepts = concepts
	}

	snapshot, err := g.memory.LoadMemory(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		g.logger.Info("no saved interaction memory, using defaults")
	case err != nil:
		g.logger.Warn("interaction memory unreadable, using defaults", "error", err)
	default:
		st.Memory = snapshot
	}

	log, err := g.memory.LoadLearningLog(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		g.logger.Warn("learning log unreadable, using defaults", "error", err)
	default:
		st.Log = log
	}

	g.logger.Debug("loaded state",
		"concepts", len(st.Concepts),
		"memory", st.Memory != nil,
		"learning_log", st.Log != nil)
	return st
}

// Save overwrites the stored state. Every part is attempted and retried on
// write conflicts; the joined error is logged and returned for accounting only.
func (g *Gateway) Save(ctx context.Context, st State) error {
	var errs []error
	save := func(what string, op func() error) {
		if err := storage.Retry(ctx, g.retry, op); err != nil {
			errs = append(errs, fmt.Errorf("saving %s: %w", what, err))
		}
	}

	save("concepts", func() error { return g.concepts.ReplaceConcepts(ctx, st.Concepts...) })
	if st.Memory != nil {
		save("memory", func() error { return g.memory.SaveMemory(ctx, st.Memory) })
	}
	if st.Log != nil {
		save("learning log", func() error { return g.memory.SaveLearningLog(ctx, st.Log) })
	}

	err := errors.Join(errs...)
	if err != nil {
		g.logger.Error("failed to save state", "error", err)
	}
	return err
}
