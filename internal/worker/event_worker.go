package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"salesdash/internal/amqp"
	"salesdash/internal/storage"
)

// EventStore persists dashboard interactions.
type EventStore interface {
	RecordEvent(ctx context.Context, ev storage.FilterEvent) (int64, error)
}

// EventConsumer delivers filter events until its context ends.
type EventConsumer interface {
	ConsumeFilterEvents(ctx context.Context, handler func(context.Context, *amqp.FilterEventMessage) error) error
}

// EventWorker moves filter events from the broker into the event store.
type EventWorker struct {
	store EventStore
}

func NewEventWorker(store EventStore) *EventWorker {
	return &EventWorker{store: store}
}

// HandleFilterEvent stores a single message. A returned error makes the
// consumer requeue the message.
func (w *EventWorker) HandleFilterEvent(ctx context.Context, msg *amqp.FilterEventMessage) error {
	if msg.SessionID == "" || msg.Kind == "" {
		// Requeueing would loop forever on a message that can never be stored.
		slog.WarnContext(ctx, "Dropping filter event without session or kind",
			"session_id", msg.SessionID,
			"kind", msg.Kind)
		return nil
	}

	id, err := w.store.RecordEvent(ctx, storage.FilterEvent{
		SessionID:   msg.SessionID,
		Kind:        msg.Kind,
		Selected:    msg.Selected,
		SelectAll:   msg.SelectAll,
		VisibleRows: msg.VisibleRows,
		OccurredAt:  msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("record filter event: %w", err)
	}

	slog.DebugContext(ctx, "Filter event stored",
		"id", id,
		"session_id", msg.SessionID,
		"kind", msg.Kind,
		"visible_rows", msg.VisibleRows)
	return nil
}

// Run consumes until ctx is cancelled. Cancellation is not an error.
func (w *EventWorker) Run(ctx context.Context, consumer EventConsumer) error {
	slog.InfoContext(ctx, "Event worker started")
	err := consumer.ConsumeFilterEvents(ctx, w.HandleFilterEvent)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.InfoContext(ctx, "Event worker stopped")
		return nil
	}
	return err
}
