package badger

import (
	"bytes"
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/storage"
)

// ConceptRepository implements storage.ConceptRepository for BadgerDB.
type ConceptRepository struct {
	backend *Backend
}

var _ storage.ConceptRepository = (*ConceptRepository)(nil)

// NewConceptRepository creates a new ConceptRepository.
func NewConceptRepository(backend *Backend) (*ConceptRepository, error) {
	return &ConceptRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ConceptRepository has no resources to release.
func (r *ConceptRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ConceptRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceConcepts makes the given concepts the complete stored graph. Records
// absent from the call, including undecodable ones, are deleted in the same transaction.
func (r *ConceptRepository) ReplaceConcepts(ctx context.Context, concepts ...*core.Concept) error {
	keep := make(map[string]struct{}, len(concepts))
	for _, concept := range concepts {
		if err := core.ValidateConcept(concept); err != nil {
			return err
		}
		keep[string(makeConceptKey(concept.ID()))] = struct{}{}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range staleConceptKeys(tx, keep) {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for _, concept := range concepts {
			if err := tx.Set(makeConceptKey(concept.ID()), storage.MarshalConcept(concept)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// staleConceptKeys lists the stored concept keys not present in keep.
func staleConceptKeys(tx *badger.Txn, keep map[string]struct{}) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var stale [][]byte
	prefix := []byte(conceptRecordPrefix + ":")
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		key := iter.Item().KeyCopy(nil)
		if _, ok := keep[string(key)]; !ok {
			stale = append(stale, key)
		}
	}
	return stale
}

// GetConcept retrieves a single concept by name.
func (r *ConceptRepository) GetConcept(ctx context.Context, name string) (*core.Concept, error) {
	var result *core.Concept
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readConcept(tx, makeConceptKeyForName(name))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetAllConcepts retrieves all concepts from storage in insertion order.
func (r *ConceptRepository) GetAllConcepts(ctx context.Context) ([]*core.Concept, error) {
	var results []*core.Concept
	err := r.scanConcepts(true, func(item *badger.Item) error {
		return item.Value(func(val []byte) error {
			concept, err := storage.UnmarshalConcept(val)
			if err != nil {
				return err
			}
			results = append(results, concept)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Ordinal < results[j].Ordinal
	})
	return results, nil
}

// CountConcepts returns the number of stored concepts without decoding them.
func (r *ConceptRepository) CountConcepts(ctx context.Context) (int, error) {
	count := 0
	err := r.scanConcepts(false, func(*badger.Item) error {
		count++
		return nil
	})
	return count, err
}

func (r *ConceptRepository) scanConcepts(prefetch bool, fn func(item *badger.Item) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = prefetch
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(conceptRecordPrefix + ":")
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			if err := fn(iter.Item()); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readConcept reads a concept from the transaction.
// A missing key yields a nil concept and a nil error.
func readConcept(tx *badger.Txn, key []byte) (*core.Concept, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var concept *core.Concept
	err = item.Value(func(val []byte) error {
		var err error
		concept, err = storage.UnmarshalConcept(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(makeConceptKey(concept.ID()), key) {
		return nil, storage.ErrSerializationFailed
	}
	return concept, nil
}
