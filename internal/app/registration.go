package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/progrid/progrid/internal/domain"
)

// RegistrationResult is the outcome of a registration attempt: either a
// settled participant (free entry) or a pending payment awaiting the
// gateway's confirmation (fee-gated entry).
type RegistrationResult struct {
	Participant *domain.Participant
	Payment     *domain.PaymentRecord
}

// Pending reports whether the registration is waiting on a payment.
func (r RegistrationResult) Pending() bool {
	return r.Payment != nil && r.Participant == nil
}

// Register attempts to add a team to a tournament. Free tournaments create
// the participant immediately through an atomic capacity-bounded insert.
// Fee-gated tournaments create a payment intent instead; the participant row
// only exists once ConfirmPayment runs.
func (s *TournamentService) Register(ctx context.Context, tournamentID, teamID string) (RegistrationResult, error) {
	tournament, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return RegistrationResult{}, err
	}

	if tournament.Status != domain.StatusRegistrationOpen {
		return RegistrationResult{}, &domain.RegistrationClosedError{Status: tournament.Status}
	}

	// Friendly pre-check; the unique constraint remains the arbiter under
	// concurrency.
	if _, err := s.participants.GetByTeam(ctx, tournamentID, teamID); err == nil {
		return RegistrationResult{}, &domain.AlreadyRegisteredError{TournamentID: tournamentID, TeamID: teamID}
	} else if !errors.Is(err, domain.ErrParticipantNotFound) {
		return RegistrationResult{}, fmt.Errorf("checking existing registration: %w", err)
	}

	if tournament.FreeEntry() {
		id, err := generateID()
		if err != nil {
			return RegistrationResult{}, fmt.Errorf("generating participant id: %w", err)
		}

		participant := domain.NewParticipant(id, tournamentID, teamID, domain.PaymentNotRequired)
		if err := s.participants.CreateWithinCapacity(ctx, participant, tournament.MaxParticipants); err != nil {
			return RegistrationResult{}, err
		}

		s.notify(ctx, domain.NotifyRegistered, tournament, teamID)
		return RegistrationResult{Participant: &participant}, nil
	}

	// No fee is collected for a tournament that is already full. Like the
	// duplicate pre-check, this is advisory; the atomic insert at confirmation
	// time remains the arbiter under concurrency.
	count, err := s.participants.CountByTournament(ctx, tournamentID)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("counting participants: %w", err)
	}
	if count >= tournament.MaxParticipants {
		return RegistrationResult{}, &domain.CapacityExceededError{Max: tournament.MaxParticipants}
	}

	ref, err := s.gateway.CreateIntent(ctx, tournament.EntryFeeCents, map[string]string{
		"tournament_id": tournamentID,
		"team_id":       teamID,
	})
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("creating payment intent: %w", err)
	}

	record := domain.NewPaymentRecord(ref, tournamentID, teamID, tournament.EntryFeeCents)
	if err := s.payments.Create(ctx, record); err != nil {
		return RegistrationResult{}, fmt.Errorf("recording payment intent: %w", err)
	}

	return RegistrationResult{Payment: &record}, nil
}

// ConfirmPayment is the gateway's success callback for an entry-fee intent.
// It is idempotent: replays return the already-created participant. The
// duplicate and capacity guards are re-validated at insert time, because the
// fee may have been paid for a tournament that filled up in the interim; that
// case surfaces as a CapacityExceededError carrying an explicit refund
// obligation.
func (s *TournamentService) ConfirmPayment(ctx context.Context, ref string) (domain.Participant, error) {
	record, err := s.payments.GetByRef(ctx, ref)
	if err != nil {
		return domain.Participant{}, err
	}

	switch record.Status {
	case domain.PaymentPaid:
		// Replayed callback: the participant already exists.
		return s.participants.GetByTeam(ctx, record.TournamentID, record.TeamID)
	case domain.PaymentFailed:
		return domain.Participant{}, domain.ErrPaymentSettled
	}

	tournament, err := s.tournaments.GetByID(ctx, record.TournamentID)
	if err != nil {
		return domain.Participant{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Participant{}, fmt.Errorf("generating participant id: %w", err)
	}

	participant := domain.NewParticipant(id, record.TournamentID, record.TeamID, domain.PaymentPaid)
	err = s.participants.CreateWithinCapacity(ctx, participant, tournament.MaxParticipants)

	var capErr *domain.CapacityExceededError
	var dupErr *domain.AlreadyRegisteredError
	switch {
	case errors.As(err, &capErr):
		// The fee is collected but the seat is gone. The caller owes the
		// team a refund and must be told so explicitly.
		capErr.RefundDue = true
		capErr.AmountCents = record.AmountCents
		return domain.Participant{}, capErr
	case errors.As(err, &dupErr):
		// Two confirmations raced; the first insert won. Settle the record
		// and return the existing row.
		existing, getErr := s.participants.GetByTeam(ctx, record.TournamentID, record.TeamID)
		if getErr != nil {
			return domain.Participant{}, getErr
		}
		if err := s.payments.UpdateStatus(ctx, ref, domain.PaymentPaid); err != nil {
			return domain.Participant{}, fmt.Errorf("settling payment record: %w", err)
		}
		return existing, nil
	case err != nil:
		return domain.Participant{}, err
	}

	if err := s.payments.UpdateStatus(ctx, ref, domain.PaymentPaid); err != nil {
		return domain.Participant{}, fmt.Errorf("settling payment record: %w", err)
	}

	s.notify(ctx, domain.NotifyPaymentConfirmed, tournament, record.TeamID)

	return participant, nil
}

// FailPayment is the gateway's failure callback for an entry-fee intent.
// The record becomes terminally failed; no participant is created and no
// retry happens here. Replays are harmless.
func (s *TournamentService) FailPayment(ctx context.Context, ref string) error {
	record, err := s.payments.GetByRef(ctx, ref)
	if err != nil {
		return err
	}

	switch record.Status {
	case domain.PaymentFailed:
		return nil
	case domain.PaymentPaid:
		return domain.ErrPaymentSettled
	}

	if err := s.payments.UpdateStatus(ctx, ref, domain.PaymentFailed); err != nil {
		return fmt.Errorf("failing payment record: %w", err)
	}
	return nil
}
