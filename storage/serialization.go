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


package storage

import (
	"fmt"

	"github.com/poiesic/atlas/core"
)

// MarshalConcept serializes a Concept to bytes.
func MarshalConcept(concept *core.Concept) []byte {
	buf := make([]byte, core.ConceptMUS.Size(*concept))
	core.ConceptMUS.Marshal(*concept, buf)
	return buf
}

// UnmarshalConcept deserializes a Concept from bytes.
func UnmarshalConcept(data []byte) (*core.Concept, error) {
	concept, _, err := core.ConceptMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &concept, nil
}

// MarshalMemorySnapshot serializes a MemorySnapshot to bytes.
func MarshalMemorySnapshot(snapshot *core.MemorySnapshot) []byte {
	buf := make([]byte, core.MemorySnapshotMUS.Size(*snapshot))
	core.MemorySnapshotMUS.Marshal(*snapshot, buf)
	return buf
}

// UnmarshalMemorySnapshot deserializes a MemorySnapshot from bytes.
func UnmarshalMemorySnapshot(data []byte) (*core.MemorySnapshot, error) {
	snapshot, _, err := core.MemorySnapshotMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &snapshot, nil
}

// MarshalLearningLog serializes a LearningLog to bytes.
func MarshalLearningLog(log *core.LearningLog) []byte {
	buf := make([]byte, core.LearningLogMUS.Size(*log))
	core.LearningLogMUS.Marshal(*log, buf)
	return buf
}

// UnmarshalLearningLog deserializes a LearningLog from bytes.
func UnmarshalLearningLog(data []byte) (*core.LearningLog, error) {
	log, _, err := core.LearningLogMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &log, nil
}
