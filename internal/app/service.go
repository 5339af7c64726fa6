package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/progrid/progrid/internal/domain"
)

// TournamentService orchestrates the tournament lifecycle: creation,
// state transitions, registration, placements, and prize distribution.
type TournamentService struct {
	tournaments   domain.TournamentRepository
	participants  domain.ParticipantRepository
	payments      domain.PaymentRepository
	distributions domain.DistributionRepository
	directory     domain.ParticipantDirectory
	gateway       domain.PaymentGateway
	sink          domain.NotificationSink
	validator     domain.TransitionValidator
}

// Deps bundles the adapters a TournamentService needs.
type Deps struct {
	Tournaments   domain.TournamentRepository
	Participants  domain.ParticipantRepository
	Payments      domain.PaymentRepository
	Distributions domain.DistributionRepository
	Directory     domain.ParticipantDirectory
	Gateway       domain.PaymentGateway
	Sink          domain.NotificationSink
	Validator     domain.TransitionValidator
}

// NewTournamentService creates a service with the given adapters.
func NewTournamentService(d Deps) *TournamentService {
	return &TournamentService{
		tournaments:   d.Tournaments,
		participants:  d.Participants,
		payments:      d.Payments,
		distributions: d.Distributions,
		directory:     d.Directory,
		gateway:       d.Gateway,
		sink:          d.Sink,
		validator:     d.Validator,
	}
}

// Create persists a new draft tournament.
func (s *TournamentService) Create(ctx context.Context, organizerID, name string, maxParticipants int, entryFeeCents, prizePoolCents int64, scheme domain.Scheme, startDate time.Time) (domain.Tournament, error) {
	if maxParticipants < 1 {
		return domain.Tournament{}, domain.ErrInvalidCapacity
	}
	if entryFeeCents < 0 || prizePoolCents < 0 {
		return domain.Tournament{}, domain.ErrNegativeAmount
	}
	if !scheme.Valid() {
		return domain.Tournament{}, domain.ErrInvalidScheme
	}

	id, err := generateID()
	if err != nil {
		return domain.Tournament{}, fmt.Errorf("generating tournament id: %w", err)
	}

	tournament := domain.NewTournament(id, organizerID, name, maxParticipants, entryFeeCents, prizePoolCents, scheme, startDate)

	if err := s.tournaments.Create(ctx, tournament); err != nil {
		return domain.Tournament{}, fmt.Errorf("creating tournament: %w", err)
	}

	return tournament, nil
}

// GetByID returns a tournament by its unique identifier.
func (s *TournamentService) GetByID(ctx context.Context, id string) (domain.Tournament, error) {
	return s.tournaments.GetByID(ctx, id)
}

// List returns tournaments matching the given filter.
func (s *TournamentService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tournament, error) {
	return s.tournaments.List(ctx, filter)
}

// Participants returns a tournament's roster.
func (s *TournamentService) Participants(ctx context.Context, tournamentID string) ([]domain.Participant, error) {
	if _, err := s.tournaments.GetByID(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.participants.ListByTournament(ctx, tournamentID)
}

// Publish opens a draft tournament for registration. The capacity must hold
// a bracket of at least two.
func (s *TournamentService) Publish(ctx context.Context, id string) (domain.Tournament, error) {
	tournament, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return domain.Tournament{}, err
	}

	if tournament.MaxParticipants < 2 {
		return domain.Tournament{}, &domain.InsufficientCapacityError{Max: tournament.MaxParticipants}
	}

	return s.transition(ctx, tournament, domain.EventPublish, domain.NotifyPublished)
}

// Start moves a tournament to ongoing. Only the organizer or a directory
// admin may start it, and at least two participants must be registered.
func (s *TournamentService) Start(ctx context.Context, id, actorID string) (domain.Tournament, error) {
	tournament, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return domain.Tournament{}, err
	}

	if err := s.authorize(ctx, actorID, tournament); err != nil {
		return domain.Tournament{}, err
	}

	count, err := s.participants.CountByTournament(ctx, id)
	if err != nil {
		return domain.Tournament{}, fmt.Errorf("counting participants: %w", err)
	}
	if count < 2 {
		return domain.Tournament{}, &domain.InsufficientParticipantsError{Count: count}
	}

	return s.transition(ctx, tournament, domain.EventStart, domain.NotifyStarted)
}

// Complete marks an ongoing tournament as finished. Irreversible.
func (s *TournamentService) Complete(ctx context.Context, id, actorID string) (domain.Tournament, error) {
	tournament, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return domain.Tournament{}, err
	}

	if err := s.authorize(ctx, actorID, tournament); err != nil {
		return domain.Tournament{}, err
	}

	return s.transition(ctx, tournament, domain.EventComplete, domain.NotifyCompleted)
}

// Cancel terminates a tournament from any non-terminal state. Participants
// remain on record.
func (s *TournamentService) Cancel(ctx context.Context, id, actorID string) (domain.Tournament, error) {
	tournament, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return domain.Tournament{}, err
	}

	if err := s.authorize(ctx, actorID, tournament); err != nil {
		return domain.Tournament{}, err
	}

	return s.transition(ctx, tournament, domain.EventCancel, domain.NotifyCancelled)
}

// transition applies a lifecycle event, persists the new state, and fans out
// a notification.
func (s *TournamentService) transition(ctx context.Context, tournament domain.Tournament, event domain.Event, kind domain.NotificationKind) (domain.Tournament, error) {
	newStatus, err := s.validator.Apply(ctx, tournament.Status, event)
	if err != nil {
		return domain.Tournament{}, err
	}

	tournament.Status = newStatus

	if err := s.tournaments.Update(ctx, tournament); err != nil {
		return domain.Tournament{}, fmt.Errorf("updating tournament: %w", err)
	}

	s.notify(ctx, kind, tournament, "")

	return tournament, nil
}

// authorize allows the organizer, or any actor the directory vouches for.
// The reason for a rejection is never surfaced.
func (s *TournamentService) authorize(ctx context.Context, actorID string, tournament domain.Tournament) error {
	if actorID != "" && actorID == tournament.OrganizerID {
		return nil
	}

	ok, err := s.directory.IsAuthorized(ctx, actorID, tournament.ID)
	if err != nil {
		return fmt.Errorf("resolving authorization: %w", err)
	}
	if !ok {
		return domain.ErrPermissionDenied
	}
	return nil
}

// notify fans out a best-effort notification. Sink failures are logged and
// swallowed; they never roll back the operation that produced the event.
func (s *TournamentService) notify(ctx context.Context, kind domain.NotificationKind, tournament domain.Tournament, teamID string) {
	n := domain.Notification{Kind: kind, Tournament: tournament, TeamID: teamID}
	if err := s.sink.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "notification dropped",
			"kind", string(kind),
			"tournament_id", tournament.ID,
			"error", err,
		)
	}
}
