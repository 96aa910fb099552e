package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a status transition is not in the table
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState is returned when an operation is not allowed from the current status
	ErrInvalidState = errors.New("operation not allowed in current status")

	// ErrNotNextApprover is returned when the actor is not the current routing position
	ErrNotNextApprover = errors.New("actor is not the next approver")

	// ErrAlreadyFullyApproved is returned when approving a fully approved request
	ErrAlreadyFullyApproved = errors.New("request is already fully approved")

	// ErrCircularHierarchy is returned when a supervisor assignment would create a cycle
	ErrCircularHierarchy = errors.New("supervisor assignment would create a cycle")

	// ErrConcurrencyConflict is returned when an operation lost a write race; safe to retry
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrNotFound is returned when the referenced record does not exist
	ErrNotFound = errors.New("not found")

	// ErrNotCreator is returned when someone other than the creator submits a request
	ErrNotCreator = errors.New("only the request creator may submit")

	// ErrCannotPurchase is returned when the actor lacks the purchasing capability
	ErrCannotPurchase = errors.New("actor lacks purchasing capability")
)

// InvalidTransitionError names the illegal (from, to) pair
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// InvalidStateError reports an operation attempted from a disallowed status
type InvalidStateError struct {
	Operation string
	Status    Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s request in %q status", e.Operation, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// NotNextApproverError reports the user currently expected to act, if any
type NotNextApproverError struct {
	ExpectedID   *int64
	ExpectedName string
}

func (e *NotNextApproverError) Error() string {
	if e.ExpectedID == nil {
		return "request has no pending approver"
	}
	return fmt.Sprintf("request is pending approval from %s", e.ExpectedName)
}

func (e *NotNextApproverError) Unwrap() error { return ErrNotNextApprover }

// CircularHierarchyError identifies the supervisor edge that was rejected
type CircularHierarchyError struct {
	UserID       int64
	SupervisorID int64
}

func (e *CircularHierarchyError) Error() string {
	if e.UserID == e.SupervisorID {
		return fmt.Sprintf("user %d cannot supervise themselves", e.UserID)
	}
	return fmt.Sprintf("assigning supervisor %d to user %d creates a circular hierarchy", e.SupervisorID, e.UserID)
}

func (e *CircularHierarchyError) Unwrap() error { return ErrCircularHierarchy }

// ConcurrencyConflictError reports a lost optimistic write; the caller may retry
type ConcurrencyConflictError struct {
	RequestID int64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("request %d was modified concurrently", e.RequestID)
}

func (e *ConcurrencyConflictError) Unwrap() error { return ErrConcurrencyConflict }

// NotFoundError identifies a missing record by kind and id
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
