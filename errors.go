package pvec

import "errors"

// Errors returned by transient operations.
var (
	// ErrIndexOutOfRange indicates an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrAllocFailed indicates the memory policy refused an allocation.
	// The failed operation left no partial state behind.
	ErrAllocFailed = errors.New("allocation failed")
)
