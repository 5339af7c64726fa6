package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/progrid/progrid/internal/domain"
)

// Compile-time check: Sink implements domain.NotificationSink.
var _ domain.NotificationSink = (*Sink)(nil)

// NotificationJobArgs carries the data needed to process a notification
// asynchronously. River serializes this as JSON into its job queue table. It
// includes a snapshot of the tournament at the time the notification was
// produced, so the worker never needs to query the database.
type NotificationJobArgs struct {
	EventKind      string `json:"kind"`
	TournamentID   string `json:"tournament_id"`
	TournamentName string `json:"tournament_name"`
	OrganizerID    string `json:"organizer_id"`
	Status         string `json:"status"`
	Scheme         string `json:"scheme"`
	TeamID         string `json:"team_id,omitempty"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationJobArgs) Kind() string { return "notification.dispatch" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Sink implements domain.NotificationSink by enqueuing River jobs.
type Sink struct {
	client *Client
}

// NewSink creates a sink backed by the given River client.
func NewSink(client *Client) *Sink {
	return &Sink{client: client}
}

// Notify enqueues the notification as an async job in River.
func (s *Sink) Notify(ctx context.Context, n domain.Notification) error {
	_, err := s.client.Insert(ctx, NotificationJobArgs{
		EventKind:      string(n.Kind),
		TournamentID:   n.Tournament.ID,
		TournamentName: n.Tournament.Name,
		OrganizerID:    n.Tournament.OrganizerID,
		Status:         string(n.Tournament.Status),
		Scheme:         string(n.Tournament.Scheme),
		TeamID:         n.TeamID,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing notification job: %w", err)
	}
	return nil
}
