package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrParticipantNotFound     = errors.New("participant not found")
	ErrPaymentNotFound         = errors.New("payment record not found")
	ErrDistributionRowNotFound = errors.New("distribution row not found")

	// ErrPermissionDenied is deliberately generic: authorization failures
	// never reveal which guard rejected the actor.
	ErrPermissionDenied = errors.New("permission denied")

	ErrNoPrizePool          = errors.New("tournament has no prize pool")
	ErrNoRankedParticipants = errors.New("no participant has a placement")
	ErrAlreadyDistributed   = errors.New("prize pool already distributed")
	ErrDistributionLocked   = errors.New("placements are locked after distribution")

	ErrInvalidCapacity  = errors.New("max participants must be positive")
	ErrNegativeAmount   = errors.New("amounts must be non-negative")
	ErrInvalidScheme    = errors.New("unknown prize distribution scheme")
	ErrInvalidPlacement = errors.New("placement must be a positive integer")
	// ErrPaymentSettled is returned when a payment callback targets a record
	// that already reached the opposite terminal status.
	ErrPaymentSettled = errors.New("payment already settled")
)

// TransitionError is returned when a lifecycle event is not allowed from the
// tournament's current state.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// RegistrationClosedError is returned when a team tries to register into a
// tournament that is not accepting registrations.
type RegistrationClosedError struct {
	Status Status
}

func (e *RegistrationClosedError) Error() string {
	return fmt.Sprintf("registration is closed: tournament is %q", e.Status)
}

// AlreadyRegisteredError is returned when a (tournament, team) pair already
// has a participant row. The persistence layer's unique constraint is the
// arbiter, so concurrent duplicate registrations also surface as this error.
type AlreadyRegisteredError struct {
	TournamentID string
	TeamID       string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("team %q is already registered in tournament %q", e.TeamID, e.TournamentID)
}

// CapacityExceededError is returned when a registration would push the
// participant count past MaxParticipants. RefundDue is set when the denial
// happens after an entry fee was already collected (a paid intent confirmed
// against a tournament that filled up in the interim); the caller owes the
// team a refund of AmountCents and must not swallow that obligation.
type CapacityExceededError struct {
	Max         int
	RefundDue   bool
	AmountCents int64
}

func (e *CapacityExceededError) Error() string {
	if e.RefundDue {
		return fmt.Sprintf("tournament is full (max %d); refund of %d cents owed", e.Max, e.AmountCents)
	}
	return fmt.Sprintf("tournament is full (max %d)", e.Max)
}

// InsufficientParticipantsError is returned when starting a tournament with
// fewer than two registered participants.
type InsufficientParticipantsError struct {
	Count int
}

func (e *InsufficientParticipantsError) Error() string {
	return fmt.Sprintf("cannot start with %d registered participants (need at least 2)", e.Count)
}

// InsufficientCapacityError is returned when publishing a tournament whose
// capacity cannot hold a meaningful bracket.
type InsufficientCapacityError struct {
	Max int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("cannot open registration with capacity %d (need at least 2)", e.Max)
}

// DuplicatePlacementError is returned when another participant in the same
// tournament already holds the requested placement.
type DuplicatePlacementError struct {
	Placement int
}

func (e *DuplicatePlacementError) Error() string {
	return fmt.Sprintf("placement %d is already assigned", e.Placement)
}

// InvalidStateError is returned when an operation other than a lifecycle
// transition is attempted against a tournament in the wrong state, e.g.
// assigning placements on a cancelled tournament or distributing prizes
// before completion.
type InvalidStateError struct {
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("operation not allowed while tournament is %q", e.Status)
}
