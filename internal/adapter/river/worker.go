package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// NotificationWorker processes notification jobs from the River queue.
// For now it logs the notification; future versions will dispatch to
// team inboxes, webhooks, or push channels.
type NotificationWorker struct {
	river.WorkerDefaults[NotificationJobArgs]
}

// Work processes a single notification job.
func (w *NotificationWorker) Work(ctx context.Context, job *river.Job[NotificationJobArgs]) error {
	slog.InfoContext(ctx, "dispatching notification",
		"kind", job.Args.EventKind,
		"tournament_id", job.Args.TournamentID,
		"team_id", job.Args.TeamID,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
