package domain

import "context"

// TournamentRepository defines the persistence contract for tournaments.
type TournamentRepository interface {
	Create(ctx context.Context, t Tournament) error
	GetByID(ctx context.Context, id string) (Tournament, error)
	List(ctx context.Context, filter ListFilter) ([]Tournament, error)
	Update(ctx context.Context, t Tournament) error
}

// ListFilter holds optional criteria for listing tournaments.
type ListFilter struct {
	Status      *Status
	OrganizerID string
	Limit       int
	Offset      int
}

// ParticipantRepository defines the persistence contract for participants.
// Implementations must make CreateWithinCapacity atomic: the capacity check
// and the insert are a single operation, and the (tournament, team) unique
// constraint is the arbiter for duplicates, not a pre-check.
type ParticipantRepository interface {
	// CreateWithinCapacity inserts p only while the tournament's non-failed
	// participant count is below max. Returns AlreadyRegisteredError or
	// CapacityExceededError on violation.
	CreateWithinCapacity(ctx context.Context, p Participant, max int) error
	GetByTeam(ctx context.Context, tournamentID, teamID string) (Participant, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]Participant, error)
	CountByTournament(ctx context.Context, tournamentID string) (int, error)
	// SetPlacement assigns or overwrites a participant's placement. Returns
	// DuplicatePlacementError if another participant holds the placement.
	SetPlacement(ctx context.Context, tournamentID, teamID string, placement int) (Participant, error)
}

// PaymentRepository defines the persistence contract for provisional payment
// records backing fee-gated registrations.
type PaymentRepository interface {
	Create(ctx context.Context, rec PaymentRecord) error
	GetByRef(ctx context.Context, ref string) (PaymentRecord, error)
	UpdateStatus(ctx context.Context, ref string, status PaymentStatus) error
}

// DistributionRepository defines the persistence contract for prize
// distribution rows. CreateAll must be all-or-nothing and must fail with
// ErrAlreadyDistributed when any row for the tournament already exists;
// callers rely on it to make distribution non-reentrant.
type DistributionRepository interface {
	CreateAll(ctx context.Context, rows []PrizeDistribution) error
	ExistsForTournament(ctx context.Context, tournamentID string) (bool, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]PrizeDistribution, error)
	// MarkTransfer records the gateway transfer ref and resulting status on
	// a distribution row after a payout has been issued.
	MarkTransfer(ctx context.Context, id, transferRef string, status PayoutStatus) error
	// ResolveTransfer moves the row identified by transferRef from pending
	// to status. It reports false without error when the row is not pending,
	// which makes replayed gateway callbacks harmless.
	ResolveTransfer(ctx context.Context, transferRef string, status PayoutStatus) (bool, error)
}

// ParticipantDirectory resolves whether an actor holds admin authority over
// a tournament beyond being its organizer.
type ParticipantDirectory interface {
	IsAuthorized(ctx context.Context, actorID, tournamentID string) (bool, error)
}

// PaymentGateway creates entry-fee intents and issues prize payouts.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, metadata map[string]string) (string, error)
	Transfer(ctx context.Context, amountCents int64, destination string, metadata map[string]string) (string, error)
}

// NotificationKind identifies what a notification is about.
type NotificationKind string

const (
	NotifyPublished         NotificationKind = "tournament.published"
	NotifyStarted           NotificationKind = "tournament.started"
	NotifyCompleted         NotificationKind = "tournament.completed"
	NotifyCancelled         NotificationKind = "tournament.cancelled"
	NotifyRegistered        NotificationKind = "participant.registered"
	NotifyPaymentConfirmed  NotificationKind = "participant.payment_confirmed"
	NotifyPlacementSet      NotificationKind = "participant.placement_set"
	NotifyPrizesDistributed NotificationKind = "prizes.distributed"
)

// Notification is a best-effort fan-out event. It carries a snapshot of the
// tournament so consumers never need to query back.
type Notification struct {
	Kind       NotificationKind
	Tournament Tournament
	// TeamID is set for participant-scoped notifications.
	TeamID string
}

// NotificationSink defines the contract for best-effort event fan-out.
// Failures must never roll back the operation that produced the event;
// callers log and continue.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// TransitionValidator checks lifecycle events against the transition table.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}
