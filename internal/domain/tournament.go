package domain

import "time"

// Status represents the lifecycle state of a tournament.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusRegistrationOpen Status = "registration_open"
	StatusOngoing          Status = "ongoing"
	StatusCompleted        Status = "completed"
	StatusCancelled        Status = "cancelled"
)

// Event represents an organizer action that triggers a state transition.
type Event string

const (
	EventPublish  Event = "publish"
	EventStart    Event = "start"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

// Transition defines a valid state change: an event moves a tournament from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the tournament lifecycle.
// Completed and cancelled are terminal: no event leads out of them.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventPublish, Src: StatusDraft, Dst: StatusRegistrationOpen},
	{Event: EventStart, Src: StatusDraft, Dst: StatusOngoing},
	{Event: EventStart, Src: StatusRegistrationOpen, Dst: StatusOngoing},
	{Event: EventComplete, Src: StatusOngoing, Dst: StatusCompleted},
	{Event: EventCancel, Src: StatusDraft, Dst: StatusCancelled},
	{Event: EventCancel, Src: StatusRegistrationOpen, Dst: StatusCancelled},
	{Event: EventCancel, Src: StatusOngoing, Dst: StatusCancelled},
}

// Scheme determines how the prize pool is split across final placements.
type Scheme string

const (
	SchemeWinnerTakesAll Scheme = "winner_takes_all"
	SchemeTop3           Scheme = "top3"
	SchemeTop5           Scheme = "top5"
)

// Valid reports whether s is a known distribution scheme.
func (s Scheme) Valid() bool {
	switch s {
	case SchemeWinnerTakesAll, SchemeTop3, SchemeTop5:
		return true
	}
	return false
}

// Tournament is the core domain entity. OrganizerID is immutable after
// creation and holds default authority over lifecycle transitions.
type Tournament struct {
	ID              string
	OrganizerID     string
	Name            string
	Status          Status
	MaxParticipants int
	EntryFeeCents   int64
	PrizePoolCents  int64
	Scheme          Scheme
	StartDate       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FreeEntry reports whether registration requires no payment.
func (t Tournament) FreeEntry() bool {
	return t.EntryFeeCents == 0
}

// NewTournament creates a tournament in the initial draft state.
func NewTournament(id, organizerID, name string, maxParticipants int, entryFeeCents, prizePoolCents int64, scheme Scheme, startDate time.Time) Tournament {
	now := time.Now().UTC()
	return Tournament{
		ID:              id,
		OrganizerID:     organizerID,
		Name:            name,
		Status:          StatusDraft,
		MaxParticipants: maxParticipants,
		EntryFeeCents:   entryFeeCents,
		PrizePoolCents:  prizePoolCents,
		Scheme:          scheme,
		StartDate:       startDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
