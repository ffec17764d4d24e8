package audit

import (
	"context"
	"log/slog"
)

// Worker drains the publisher inbox into a sink. Sink failures are logged
// and skipped; the store remains the source of truth for the trail.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "event fan-out failed",
					"action", event.Action,
					"claim_id", event.ClaimID,
					"error", err,
				)
			}
		}
	}
}
