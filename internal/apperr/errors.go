// Package apperr defines the error taxonomy shared by the workflow engine,
// the resource pool and the compiler. NotFound and InvalidTransition are
// caller errors; the rest are operational and carry enough context for the
// caller to retry the whole operation.
package apperr

import (
	"errors"
	"fmt"
)

// NotFoundError indicates an entity id could not be resolved.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InvalidTransitionError indicates a status-graph violation.
type InvalidTransitionError struct {
	Entity string
	ID     int64
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %d: illegal transition %s -> %s: %s", e.Entity, e.ID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("%s %d: illegal transition %s -> %s", e.Entity, e.ID, e.From, e.To)
}

// CascadeFailureError indicates a multi-entity transition failed to persist.
// The underlying transaction has been rolled back; no partial cascade is
// visible to other readers.
type CascadeFailureError struct {
	Entity string
	ID     int64
	Err    error
}

func (e *CascadeFailureError) Error() string {
	return fmt.Sprintf("cascade on %s %d failed: %v", e.Entity, e.ID, e.Err)
}

func (e *CascadeFailureError) Unwrap() error { return e.Err }

// PoolExhaustedError indicates no available slot exists for a category.
type PoolExhaustedError struct {
	Category string
}

func (e *PoolExhaustedError) Error() string {
	return fmt.Sprintf("resource pool exhausted for category %q", e.Category)
}

// AssignmentConflictError indicates a slot assignment was refused: either the
// slot was no longer available at the time of the conditional update (a lost
// race), or the work-package already holds a slot of the same category.
type AssignmentConflictError struct {
	Category string
	SlotID   int64
	Reason   string
}

func (e *AssignmentConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("slot %d (category %q): %s", e.SlotID, e.Category, e.Reason)
	}
	return fmt.Sprintf("slot %d (category %q) is no longer available", e.SlotID, e.Category)
}

// SyncFailureError indicates the external content push failed.
type SyncFailureError struct {
	Category    string
	ExternalRef string
	Err         error
}

func (e *SyncFailureError) Error() string {
	return fmt.Sprintf("content sync for category %q (ref %s) failed: %v", e.Category, e.ExternalRef, e.Err)
}

func (e *SyncFailureError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsInvalidTransition reports whether err is (or wraps) an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}

// IsPoolExhausted reports whether err is (or wraps) a PoolExhaustedError.
func IsPoolExhausted(err error) bool {
	var target *PoolExhaustedError
	return errors.As(err, &target)
}

// IsAssignmentConflict reports whether err is (or wraps) an AssignmentConflictError.
func IsAssignmentConflict(err error) bool {
	var target *AssignmentConflictError
	return errors.As(err, &target)
}

// IsCascadeFailure reports whether err is (or wraps) a CascadeFailureError.
func IsCascadeFailure(err error) bool {
	var target *CascadeFailureError
	return errors.As(err, &target)
}

// IsSyncFailure reports whether err is (or wraps) a SyncFailureError.
func IsSyncFailure(err error) bool {
	var target *SyncFailureError
	return errors.As(err, &target)
}
