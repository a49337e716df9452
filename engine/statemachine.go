package engine

import (
	courseModels "lms/models/course"
)

// Event is a payment lifecycle event applied to an enrollment.
type Event string

const (
	EventSubmitPartial  Event = "SUBMIT_PARTIAL"
	EventSubmitFull     Event = "SUBMIT_FULL"
	EventApprovePartial Event = "APPROVE_PARTIAL"
	EventRejectPartial  Event = "REJECT_PARTIAL"
	EventApproveFull    Event = "APPROVE_FULL"
	EventRejectFull     Event = "REJECT_FULL"
)

// transitions enumerates every legal payment-status edge. Each key is
// the current status, the value maps an event to the next status.
// FULLY_PAID is terminal. A rejected full payment reverts to
// PARTIAL_PAID, a rejected partial payment reverts to UNPAID.
var transitions = map[string]map[Event]string{
	courseModels.PaymentStatusUnpaid: {
		EventSubmitPartial: courseModels.PaymentStatusPartialPending,
	},
	courseModels.PaymentStatusPartialPending: {
		EventApprovePartial: courseModels.PaymentStatusPartialPaid,
		EventRejectPartial:  courseModels.PaymentStatusUnpaid,
	},
	courseModels.PaymentStatusPartialPaid: {
		EventSubmitFull: courseModels.PaymentStatusFullPending,
	},
	courseModels.PaymentStatusFullPending: {
		EventApproveFull: courseModels.PaymentStatusFullyPaid,
		EventRejectFull:  courseModels.PaymentStatusPartialPaid,
	},
	courseModels.PaymentStatusFullyPaid: {},
}

// NextStatus returns the status reached by applying event to current.
// Returns InvalidStateTransitionError when the edge does not exist.
func NextStatus(current string, event Event) (string, error) {
	edges, ok := transitions[current]
	if !ok {
		return "", &InvalidStateTransitionError{CurrentState: current, Event: string(event)}
	}
	next, ok := edges[event]
	if !ok {
		return "", &InvalidStateTransitionError{CurrentState: current, Event: string(event)}
	}
	return next, nil
}

// submitEventForPhase maps a declared payment phase onto its submit event.
func submitEventForPhase(phase string) (Event, error) {
	switch phase {
	case courseModels.PaymentPhasePartial:
		return EventSubmitPartial, nil
	case courseModels.PaymentPhaseFull:
		return EventSubmitFull, nil
	default:
		return "", &ValidationError{Field: "phase", Message: "phase must be PARTIAL or FULL"}
	}
}

// verifyEventForPhase maps a phase and an admin decision onto its
// verification event.
func verifyEventForPhase(phase string, approve bool) (Event, error) {
	switch phase {
	case courseModels.PaymentPhasePartial:
		if approve {
			return EventApprovePartial, nil
		}
		return EventRejectPartial, nil
	case courseModels.PaymentPhaseFull:
		if approve {
			return EventApproveFull, nil
		}
		return EventRejectFull, nil
	default:
		return "", &ValidationError{Field: "phase", Message: "phase must be PARTIAL or FULL"}
	}
}

// MinPartialAmount returns the minimum acceptable partial payment:
// 10% of the course amount, rounded up.
func MinPartialAmount(courseAmount uint) uint {
	return (courseAmount + 9) / 10
}
