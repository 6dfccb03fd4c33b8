package cognition

import "errors"

var (
	// ErrNoTemplate indicates no response builder exists for an intent, not even the fallback.
	ErrNoTemplate = errors.New("no response template for intent")

	// ErrGraphRequired is returned when a query runs without a concept graph.
	ErrGraphRequired = errors.New("concept graph required")

	// ErrMemoryRequired is returned when a query runs without interaction memory.
	ErrMemoryRequired = errors.New("interaction memory required")
)
