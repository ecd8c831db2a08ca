package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution indicates a reference entity could not be found or created.
	ErrResolution = errors.New("reference resolution failed")
	// ErrWrite indicates the asset row could not be written.
	ErrWrite = errors.New("asset write failed")
)

// ResolutionError describes a failed reference lookup or creation.
type ResolutionError struct {
	Kind string
	Key  string
	Err  error
}

// Error implements the error interface
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s %q: %v", e.Kind, e.Key, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// WriteError describes a failed asset insert, update or restore.
type WriteError struct {
	Serial string
	Op     string
	Err    error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	return fmt.Sprintf("%s asset %s: %v", e.Op, e.Serial, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}
