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


package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ValidateConcept validates a Concept according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Weight must be within [0,1]
//   - Confidence must be within [0,1]
//
// NOT validated:
//   - Connections (may be empty or name concepts that do not exist)
//   - LearnedInstances (append-only history)
func ValidateConcept(concept *Concept) error {
	if concept == nil {
		return fmt.Errorf("%w: concept is nil", ErrInvalidConcept)
	}

	if concept.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConcept, ErrEmptyConceptName)
	}

	if concept.Weight < 0 || concept.Weight > 1 {
		return fmt.Errorf("%w: %w: %v", ErrInvalidConcept, ErrWeightOutOfRange, concept.Weight)
	}

	if concept.Confidence < 0 || concept.Confidence > 1 {
		return fmt.Errorf("%w: %w: %v", ErrInvalidConcept, ErrConfidenceOutOfRange, concept.Confidence)
	}

	return nil
}

// ValidatePrompt rejects prompts that are empty or only whitespace.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// NormalizeContext checks that a query context is a JSON object and returns it
// compacted. An absent or null context yields nil.
func NormalizeContext(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, ErrInvalidContext
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidContext, err)
	}
	return buf.Bytes(), nil
}
