package cache

import (
	"errors"
	"fmt"
)

// Sentinel errors for cache operations
var (
	// ErrCacheMiss is returned when a key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotConnected is returned when the remote backend has no live connection.
	ErrNotConnected = errors.New("cache backend not connected")
)

// OperationError wraps a backend I/O failure with the operation and key
// for diagnostics. Callers match with errors.As or unwrap to the cause.
type OperationError struct {
	Op  string
	Key string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("cache %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }
