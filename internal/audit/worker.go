package audit

import (
	"context"
	"log/slog"
	"time"
)

// drainTimeout bounds how long Run keeps flushing after cancellation.
const drainTimeout = 5 * time.Second

// Worker consumes audit events from a channel and persists them.
// A failed append is logged and skipped; audit never stops the process.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run persists events until ctx is cancelled or the inbox is closed.
// On cancellation it flushes whatever is already buffered and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return nil
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.append(ctx, event)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for {
		select {
		case event, ok := <-w.inbox:
			if !ok {
				return
			}
			w.append(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.WarnContext(ctx, "failed to persist audit event",
			"action", event.Action,
			"student_id", event.StudentID,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
