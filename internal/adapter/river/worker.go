package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// EventWorker processes status change jobs from the River queue.
// For now it logs the change; future versions will dispatch to
// booking systems, storyline tools, or notification systems.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single status change job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing status change",
		"operation", job.Args.Operation,
		"owner_id", job.Args.OwnerID,
		"owner_type", job.Args.OwnerType,
		"track", job.Args.Track,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
