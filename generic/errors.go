/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every error the engine returns belongs to exactly one class, so callers
  (the HTTP layer in particular) can branch on the class with errors.Is.

ERROR CLASSES:
  1. Validation    - bad input, no state change
  2. Authorization - actor may not perform the action, no state change
  3. Conflict      - state incompatible with the transition, or duplicate entry
  4. Not found     - unknown employee / request / entry
  Recompute anomalies are NOT errors; see Anomaly in ledger.go.

USAGE:
    if errors.Is(err, generic.ErrConflict) {
        // 409
    }
    var te *generic.TransitionError
    if errors.As(err, &te) {
        log.Printf("cannot %s from %s", te.Action, te.From)
    }

SEE ALSO:
  - ledger.go: Anomaly diagnostics
  - store.go: Stores translate unique violations into ErrDuplicate*
  - api/errors.go: HTTP mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// CLASS SENTINELS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

// =============================================================================
// SPECIFIC SENTINELS - Each wraps its class
// =============================================================================

var (
	// ErrDuplicateEntitlement: a non-deleted ENTITLEMENT already exists for (employee, year).
	ErrDuplicateEntitlement = fmt.Errorf("%w: entitlement entry already exists", ErrConflict)

	// ErrDuplicateUsage: a non-deleted USED entry already references the request.
	ErrDuplicateUsage = fmt.Errorf("%w: usage entry already exists for request", ErrConflict)

	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)

	ErrInvalidPeriod            = fmt.Errorf("%w: end date before start date", ErrValidation)
	ErrReasonRequired           = fmt.Errorf("%w: reason is required", ErrValidation)
	ErrInvalidLeaveType         = fmt.Errorf("%w: leave type does not belong to the company", ErrValidation)
	ErrCancellationWindowClosed = fmt.Errorf("%w: cancellation window has closed", ErrValidation)
	ErrNoChargeableDays         = fmt.Errorf("%w: request covers no chargeable days", ErrValidation)

	ErrEmployeeNotFound  = fmt.Errorf("employee %w", ErrNotFound)
	ErrCompanyNotFound   = fmt.Errorf("company %w", ErrNotFound)
	ErrLeaveTypeNotFound = fmt.Errorf("leave type %w", ErrNotFound)
	ErrRequestNotFound   = fmt.Errorf("leave request %w", ErrNotFound)
	ErrEntryNotFound     = fmt.Errorf("ledger entry %w", ErrNotFound)

	// ErrConcurrentModification is returned when another writer held the store
	// past its lock timeout. The operation had no effect and may be retried.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports an action that is illegal from the request's current status.
type TransitionError struct {
	RequestID RequestID
	From      RequestStatus
	Action    string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s leave request %s in status %s", e.Action, e.RequestID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// AuthorizationError reports an actor without the right to act.
type AuthorizationError struct {
	Actor  ActorID
	Action string
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s may not %s: %s", e.Actor, e.Action, e.Reason)
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// DuplicateEntryError details a ledger uniqueness violation.
type DuplicateEntryError struct {
	Kind       EntryKind
	EmployeeID EmployeeID
	Year       int
	RequestID  RequestID
}

func (e *DuplicateEntryError) Error() string {
	if e.Kind == EntryUsed {
		return fmt.Sprintf("usage entry already exists for request %s", e.RequestID)
	}
	return fmt.Sprintf("%s entry already exists for %s/%d", e.Kind, e.EmployeeID, e.Year)
}

func (e *DuplicateEntryError) Unwrap() error {
	if e.Kind == EntryUsed {
		return ErrDuplicateUsage
	}
	return ErrDuplicateEntitlement
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to the caller, not the engine.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound)
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool  { return errors.Is(err, ErrConflict) }
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
