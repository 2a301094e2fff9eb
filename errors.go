package redlock

import (
	"errors"
	"fmt"
)

var (
	// ErrStore matches every error caused by the backing store being
	// unreachable or misbehaving. Use errors.Is(err, ErrStore).
	ErrStore = errors.New("redlock: store failure")
	// ErrNilLock is returned by Release when given a nil lock.
	ErrNilLock = errors.New("redlock: nil lock")
	// ErrUnexpectedReply is wrapped by store adapters when the backend
	// answers with something the protocol does not allow.
	ErrUnexpectedReply = errors.New("redlock: unexpected store reply")
)

// StoreError is returned when a store operation fails. Losing a race for a
// lock is never reported as a StoreError.
type StoreError struct {
	Op       string
	Resource string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("redlock: %s %q: %v", e.Op, e.Resource, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}
