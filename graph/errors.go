package graph

import "errors"

var (
	// ErrConceptNotFound indicates an operation named a concept that does not exist.
	ErrConceptNotFound = errors.New("concept not found")
)
