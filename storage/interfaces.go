package storage

import (
	"context"

	"github.com/poiesic/atlas/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ConceptRepository persists the Concept Store, one record per concept.
type ConceptRepository interface {
	Repository
	// ReplaceConcepts makes the given concepts the complete stored graph,
	// deleting every other concept record atomically.
	ReplaceConcepts(ctx context.Context, concepts ...*core.Concept) error

	// GetConcept retrieves a single concept by name.
	// Returns ErrNotFound if the concept doesn't exist.
	GetConcept(ctx context.Context, name string) (*core.Concept, error)

	// GetAllConcepts retrieves every stored concept ordered by Ordinal.
	GetAllConcepts(ctx context.Context) ([]*core.Concept, error)

	// CountConcepts returns the number of stored concepts.
	CountConcepts(ctx context.Context) (int, error)
}

// MemoryRepository persists the Interaction Memory snapshot and the learning log.
type MemoryRepository interface {
	Repository
	// SaveMemory overwrites the Interaction Memory snapshot.
	SaveMemory(ctx context.Context, snapshot *core.MemorySnapshot) error

	// LoadMemory retrieves the Interaction Memory snapshot.
	// Returns ErrNotFound if no snapshot was ever saved.
	LoadMemory(ctx context.Context) (*core.MemorySnapshot, error)

	// SaveLearningLog overwrites the insight log and learning history.
	SaveLearningLog(ctx context.Context, log *core.LearningLog) error

	// LoadLearningLog retrieves the insight log and learning history.
	// Returns ErrNotFound if nothing was ever saved.
	LoadLearningLog(ctx context.Context) (*core.LearningLog, error)
}
