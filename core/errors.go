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

import "errors"

// Domain validation errors
var (
	// ErrInvalidConcept indicates a Concept failed validation.
	ErrInvalidConcept = errors.New("invalid concept")

	// ErrEmptyConceptName indicates the concept Name field is empty.
	ErrEmptyConceptName = errors.New("concept name cannot be empty")

	// ErrWeightOutOfRange indicates a concept weight outside [0,1].
	ErrWeightOutOfRange = errors.New("concept weight must be within [0,1]")

	// ErrConfidenceOutOfRange indicates a concept confidence outside [0,1].
	ErrConfidenceOutOfRange = errors.New("concept confidence must be within [0,1]")

	// ErrEmptyPrompt indicates a query was submitted without a prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrCorruptRecord indicates an encoded record declares more elements than it holds.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrInvalidContext indicates a query context that is not a JSON object.
	ErrInvalidContext = errors.New("query context must be a JSON object")
)
