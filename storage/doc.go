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


// Package storage provides the storage abstraction layer for atlas.
//
// This package defines repository interfaces that decouple the engine's durable
// snapshots from the storage implementation. Two independent records are kept:
//
//   - ConceptRepository: the Concept Store, one record per concept
//   - MemoryRepository: the Interaction Memory snapshot plus the learning log
//
// Values are encoded with mus-go serializers defined in the core package.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	conceptRepo, memoryRepo, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
