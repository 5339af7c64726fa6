package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/progrid/progrid/internal/domain"
)

// SetPlacement assigns or overwrites a participant's final ranking. Placements
// are a partial injective mapping: the persistence layer rejects a value
// already held by another participant in the tournament. Once distribution
// rows exist the ranking is frozen.
func (s *TournamentService) SetPlacement(ctx context.Context, tournamentID, teamID string, placement int, actorID string) (domain.Participant, error) {
	if placement < 1 {
		return domain.Participant{}, domain.ErrInvalidPlacement
	}

	tournament, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return domain.Participant{}, err
	}

	if err := s.authorize(ctx, actorID, tournament); err != nil {
		return domain.Participant{}, err
	}

	if tournament.Status == domain.StatusCancelled {
		return domain.Participant{}, &domain.InvalidStateError{Status: tournament.Status}
	}

	locked, err := s.distributions.ExistsForTournament(ctx, tournamentID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("checking distribution lock: %w", err)
	}
	if locked {
		return domain.Participant{}, domain.ErrDistributionLocked
	}

	participant, err := s.participants.SetPlacement(ctx, tournamentID, teamID, placement)
	if err != nil {
		return domain.Participant{}, err
	}

	s.notify(ctx, domain.NotifyPlacementSet, tournament, teamID)

	return participant, nil
}

// CalculateDistribution previews the prize split for a tournament without
// creating rows or moving money.
func (s *TournamentService) CalculateDistribution(ctx context.Context, tournamentID string) ([]domain.Payout, error) {
	tournament, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	participants, err := s.participants.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}

	return domain.CalculateDistribution(tournament, participants)
}

// Distribute performs the one-time prize payout for a completed tournament.
// The distribution rows are created before any money moves, and their
// existence is what makes the operation non-reentrant: a second call, or a
// concurrent double-click, fails with ErrAlreadyDistributed before reaching
// the gateway. Transfer failures leave the row terminally failed; retry
// policy belongs to the calling layer.
func (s *TournamentService) Distribute(ctx context.Context, tournamentID, actorID string) ([]domain.PrizeDistribution, error) {
	tournament, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(ctx, actorID, tournament); err != nil {
		return nil, err
	}

	if tournament.Status != domain.StatusCompleted {
		return nil, &domain.InvalidStateError{Status: tournament.Status}
	}

	exists, err := s.distributions.ExistsForTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("checking existing distribution: %w", err)
	}
	if exists {
		return nil, domain.ErrAlreadyDistributed
	}

	participants, err := s.participants.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}

	payouts, err := domain.CalculateDistribution(tournament, participants)
	if err != nil {
		return nil, err
	}

	destinations := make(map[string]string, len(participants))
	for _, p := range participants {
		destinations[p.ID] = p.TeamID
	}

	rows := make([]domain.PrizeDistribution, len(payouts))
	for i, payout := range payouts {
		id, err := generateID()
		if err != nil {
			return nil, fmt.Errorf("generating distribution id: %w", err)
		}
		rows[i] = domain.PrizeDistribution{
			ID:            id,
			TournamentID:  tournamentID,
			ParticipantID: payout.ParticipantID,
			Placement:     payout.Placement,
			AmountCents:   payout.AmountCents,
			Status:        domain.PayoutPending,
		}
	}

	if err := s.distributions.CreateAll(ctx, rows); err != nil {
		return nil, err
	}

	for i := range rows {
		transferRef, err := s.gateway.Transfer(ctx, rows[i].AmountCents, destinations[rows[i].ParticipantID], map[string]string{
			"tournament_id":  tournamentID,
			"participant_id": rows[i].ParticipantID,
			"placement":      fmt.Sprintf("%d", rows[i].Placement),
		})
		if err != nil {
			// Terminal failure for this row; the remaining payouts still go out.
			slog.ErrorContext(ctx, "prize transfer failed",
				"tournament_id", tournamentID,
				"participant_id", rows[i].ParticipantID,
				"amount_cents", rows[i].AmountCents,
				"error", err,
			)
			rows[i].Status = domain.PayoutFailed
			if markErr := s.distributions.MarkTransfer(ctx, rows[i].ID, "", domain.PayoutFailed); markErr != nil {
				return nil, fmt.Errorf("recording failed transfer: %w", markErr)
			}
			continue
		}

		// The row stays pending until the gateway's callback resolves it.
		rows[i].TransferRef = transferRef
		if err := s.distributions.MarkTransfer(ctx, rows[i].ID, transferRef, domain.PayoutPending); err != nil {
			return nil, fmt.Errorf("recording transfer ref: %w", err)
		}
	}

	s.notify(ctx, domain.NotifyPrizesDistributed, tournament, "")

	return rows, nil
}

// HandleTransferResult is the gateway's payout callback. It resolves the
// matching distribution row from pending to paid or failed. Replayed or
// out-of-order callbacks report applied=false and change nothing.
func (s *TournamentService) HandleTransferResult(ctx context.Context, transferRef string, succeeded bool) (bool, error) {
	status := domain.PayoutPaid
	if !succeeded {
		status = domain.PayoutFailed
	}

	applied, err := s.distributions.ResolveTransfer(ctx, transferRef, status)
	if err != nil {
		return false, fmt.Errorf("resolving transfer %q: %w", transferRef, err)
	}
	return applied, nil
}

// Distribution returns the recorded prize distribution rows for a tournament.
func (s *TournamentService) Distribution(ctx context.Context, tournamentID string) ([]domain.PrizeDistribution, error) {
	if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.distributions.ListByTournament(ctx, tournamentID)
}
