// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package atlas

import (
	"log/slog"

	"github.com/poiesic/atlas/storage"
	"github.com/poiesic/atlas/storage/badger"
)

// Database owns the storage backend and the repositories built on it.
type Database struct {
	backend     *badger.Backend
	conceptRepo storage.ConceptRepository
	memoryRepo  storage.MemoryRepository
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	inMemory bool
	logger   *slog.Logger
}

// WithInMemory opens a throwaway in-memory database; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithDatabaseLogger sets a custom logger.
func WithDatabaseLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// Open backend
	path := filePath
	if options.inMemory {
		path = ""
	}
	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		return nil, err
	}

	conceptRepo, memoryRepo, backend, err := badger.NewRepositories(backend)
	if err != nil {
		return nil, err
	}

	return &Database{
		backend:     backend,
		conceptRepo: conceptRepo,
		memoryRepo:  memoryRepo,
		logger:      options.logger,
	}, nil
}

func (db *Database) Close() error {
	// Close repositories
	if err := db.conceptRepo.Close(); err != nil {
		db.logger.Error("error closing concept repository", "err", err)
		return err
	}
	if err := db.memoryRepo.Close(); err != nil {
		db.logger.Error("error closing memory repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ConceptRepository() storage.ConceptRepository {
	return db.conceptRepo
}

func (db *Database) MemoryRepository() storage.MemoryRepository {
	return db.memoryRepo
}

// NewGateway creates a persistence gateway over this database's repositories.
func (db *Database) NewGateway() *Gateway {
	return NewGateway(db.conceptRepo, db.memoryRepo, db.logger)
}
