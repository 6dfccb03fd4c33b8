package badger

import (
	"context"

	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/storage"
)

// MemoryRepository implements storage.MemoryRepository for BadgerDB.
// The snapshot and the learning log are each stored under a single key.
type MemoryRepository struct {
	backend *Backend
}

var _ storage.MemoryRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository(backend *Backend) (*MemoryRepository, error) {
	return &MemoryRepository{
		backend: backend,
	}, nil
}

// Close releases resources. MemoryRepository has no resources to release.
func (r *MemoryRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveMemory overwrites the stored Interaction Memory snapshot.
func (r *MemoryRepository) SaveMemory(ctx context.Context, snapshot *core.MemorySnapshot) error {
	return r.backend.setValue([]byte(memorySnapshotKey), storage.MarshalMemorySnapshot(snapshot))
}

// LoadMemory reads the stored Interaction Memory snapshot.
func (r *MemoryRepository) LoadMemory(ctx context.Context) (*core.MemorySnapshot, error) {
	data, err := r.backend.getValue([]byte(memorySnapshotKey))
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalMemorySnapshot(data)
}

// SaveLearningLog overwrites the stored insight log and learning history.
func (r *MemoryRepository) SaveLearningLog(ctx context.Context, log *core.LearningLog) error {
	return r.backend.setValue([]byte(learningLogKey), storage.MarshalLearningLog(log))
}

// LoadLearningLog reads the stored insight log and learning history.
func (r *MemoryRepository) LoadLearningLog(ctx context.Context) (*core.LearningLog, error) {
	data, err := r.backend.getValue([]byte(learningLogKey))
	if err != nil {
		return nil, err
	}
	return storage.UnmarshalLearningLog(data)
}
