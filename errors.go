package atlas

import "errors"

var (
	// ErrQueryFailed is the generic failure returned when a query aborts.
	ErrQueryFailed = errors.New("query failed")

	// ErrNoBatchSource is returned when polling without a configured batch source.
	ErrNoBatchSource = errors.New("no absorption batch source configured")

	// ErrEngineClosed is returned by operations on a closed engine.
	ErrEngineClosed = errors.New("engine is closed")
)
