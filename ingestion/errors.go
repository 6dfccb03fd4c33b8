package ingestion

import "errors"

var (
	// ErrMalformedBatch is returned when a batch payload cannot be decoded.
	ErrMalformedBatch = errors.New("malformed absorption batch")

	// ErrNoBatch is returned by a BatchSource that has nothing to offer yet.
	ErrNoBatch = errors.New("no absorption batch available")

	// ErrGraphRequired is returned when an Absorber is used without a concept graph.
	ErrGraphRequired = errors.New("concept graph required")
)
