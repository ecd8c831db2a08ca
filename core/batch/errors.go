package batch

import (
	"errors"
	"fmt"
)

// ErrChunk indicates a chunk failed on every attempt.
var ErrChunk = errors.New("chunk failed")

// ChunkError describes a chunk that exhausted its retries.
type ChunkError struct {
	Sequence int
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d failed after %d attempt(s): %v", e.Sequence, e.Attempts, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ChunkError) Is(target error) bool {
	return target == ErrChunk
}
