package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Idempotency signals. Callers treat these as success-equivalent.
var (
	ErrAlreadyCompleted = errors.New("item already completed")
	ErrConflictRetry    = errors.New("concurrent modification detected, retry the operation")
)

// ValidationError reports a malformed input field. Recoverable by
// caller correction.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// InvalidStateTransitionError reports an operation not permitted in
// the enrollment's current payment state.
type InvalidStateTransitionError struct {
	CurrentState string
	Event        string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("event %s is not allowed in state %s", e.Event, e.CurrentState)
}

// DuplicateSubmissionError reports a transaction id that was already
// used for this enrollment on a finalized payment.
type DuplicateSubmissionError struct {
	TransactionID string
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("transaction id %s was already submitted for this enrollment", e.TransactionID)
}

// AlreadyFinalizedError reports a verification attempt on a payment
// that is no longer SUBMITTED.
type AlreadyFinalizedError struct {
	PaymentID uint
	Status    string
}

func (e *AlreadyFinalizedError) Error() string {
	return fmt.Sprintf("payment %d is already %s", e.PaymentID, e.Status)
}

// ModuleLockedError reports a completion event against a module the
// enrollment has not yet unlocked.
type ModuleLockedError struct {
	ModuleID uint
}

func (e *ModuleLockedError) Error() string {
	return fmt.Sprintf("module %d is locked; complete earlier modules first", e.ModuleID)
}

// Certificate eligibility conditions, reported by NotEligibleError.
const (
	ConditionProgressComplete = "all modules completed"
	ConditionCapstoneGraded   = "capstone graded"
	ConditionFullyPaid        = "course fully paid"
)

// NotEligibleError reports a premature certificate request, carrying
// every unmet condition.
type NotEligibleError struct {
	Unmet []string
}

func (e *NotEligibleError) Error() string {
	return "certificate not issuable, unmet: " + strings.Join(e.Unmet, ", ")
}
