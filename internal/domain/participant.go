package domain

import "time"

// PaymentStatus tracks how a participant's entry fee was settled.
type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentPaid        PaymentStatus = "paid"
	PaymentFailed      PaymentStatus = "failed"
)

// Participant is a team registered into a tournament. At most one participant
// exists per (tournament, team) pair; rows are never hard-deleted, so a
// cancelled tournament keeps its roster as historical record.
type Participant struct {
	ID           string
	TournamentID string
	TeamID       string
	// Placement is the final ranking, set by the organizer after completion.
	// Nil until assigned; non-nil placements are unique within a tournament.
	Placement     *int
	PaymentStatus PaymentStatus
	JoinedAt      time.Time
}

// NewParticipant creates a participant for a settled registration. Callers
// pass PaymentNotRequired for free tournaments and PaymentPaid for fee-gated
// ones; pending registrations live as PaymentRecord until confirmed.
func NewParticipant(id, tournamentID, teamID string, status PaymentStatus) Participant {
	return Participant{
		ID:            id,
		TournamentID:  tournamentID,
		TeamID:        teamID,
		PaymentStatus: status,
		JoinedAt:      time.Now().UTC(),
	}
}

// PaymentRecord is the provisional record created when a team registers for a
// fee-gated tournament. The participant row is only inserted once the gateway
// reports the intent as paid.
type PaymentRecord struct {
	// Ref is the payment gateway's intent reference.
	Ref          string
	TournamentID string
	TeamID       string
	AmountCents  int64
	Status       PaymentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPaymentRecord creates a pending payment record for a registration.
func NewPaymentRecord(ref, tournamentID, teamID string, amountCents int64) PaymentRecord {
	now := time.Now().UTC()
	return PaymentRecord{
		Ref:          ref,
		TournamentID: tournamentID,
		TeamID:       teamID,
		AmountCents:  amountCents,
		Status:       PaymentPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
