// Package moderation implements the sanction lifecycle: issuing and
// reversing mutes and warnings, audit logging, message cleanup and the
// periodic expiry sweep.
package moderation

import (
	"errors"
	"fmt"
)

// ErrMaxWarnings is returned when a warning would push a subject past the
// configured ceiling. The action is rejected but still audit-logged.
var ErrMaxWarnings = errors.New("maximum warnings reached")

// ValidationError reports bad actor input. Nothing was mutated.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AuthorizationError reports a failed capability or hierarchy check.
// Nothing was mutated.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// StorageError wraps a ledger or settings write failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PlatformError wraps a rejected platform call. The action may be left
// partially applied; the sweep or a retried command reconciles it.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform: %s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func platformErr(op string, err error) error {
	return &PlatformError{Op: op, Err: err}
}
