// Package routing maps envelope classifications to handlers and implements
// the four classification handlers.
package routing

import "fmt"

// Action is the terminal outcome of handling one envelope.
type Action string

const (
	ActionAutoCreatedCase    Action = "auto_created_case"
	ActionAutoAttachedToCase Action = "auto_attached_to_case"
	ActionAutoUpdatedCase    Action = "auto_updated_case"
	ActionExceptionRecord    Action = "exception_record"
)

// ProcessingResult is what a handler resolved the envelope to. CaseID is the
// service case or exception record the envelope ended up on.
type ProcessingResult struct {
	CaseID string
	Action Action
}

// MutationStatus classifies a case-mutation attempt three ways. The split
// drives the retry-then-fallback policy: recoverable failures are worth a
// redelivery, unrecoverable ones go straight to the exception-record fallback.
type MutationStatus int

const (
	MutationSuccess MutationStatus = iota
	MutationUnrecoverable
	MutationPotentiallyRecoverable
)

type MutationOutcome struct {
	Status MutationStatus
	CaseID string
	Err    error
}

func mutationSucceeded(caseID string) MutationOutcome {
	return MutationOutcome{Status: MutationSuccess, CaseID: caseID}
}

func mutationUnrecoverable(err error) MutationOutcome {
	return MutationOutcome{Status: MutationUnrecoverable, Err: err}
}

func mutationPotentiallyRecoverable(err error) MutationOutcome {
	return MutationOutcome{Status: MutationPotentiallyRecoverable, Err: err}
}

// UpdateStatus classifies an auto-update attempt. Abandoned means the update
// cannot apply to this case and never will; Error means it might next time.
type UpdateStatus int

const (
	UpdateOK UpdateStatus = iota
	UpdateAbandoned
	UpdateError
)

type UpdateOutcome struct {
	Status UpdateStatus
	CaseID string
	Err    error
}

func updateOK(caseID string) UpdateOutcome {
	return UpdateOutcome{Status: UpdateOK, CaseID: caseID}
}

func updateAbandoned(err error) UpdateOutcome {
	return UpdateOutcome{Status: UpdateAbandoned, Err: err}
}

func updateError(err error) UpdateOutcome {
	return UpdateOutcome{Status: UpdateError, Err: err}
}

func (s MutationStatus) String() string {
	switch s {
	case MutationSuccess:
		return "success"
	case MutationUnrecoverable:
		return "unrecoverable"
	case MutationPotentiallyRecoverable:
		return "potentially_recoverable"
	}
	return fmt.Sprintf("MutationStatus(%d)", int(s))
}
