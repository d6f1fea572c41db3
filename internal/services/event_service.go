package services

import (
	"context"
	"fmt"
	"log/slog"

	"salesdash/internal/amqp"
	"salesdash/internal/filter"
)

// EventPublisher sends filter events to the broker.
type EventPublisher interface {
	PublishFilterEvent(ctx context.Context, msg *amqp.FilterEventMessage) error
	Close() error
}

// EventService reports dashboard interactions. A nil publisher turns it
// into a no-op so the dashboard runs without a broker.
type EventService struct {
	publisher EventPublisher
}

func NewEventService(publisher EventPublisher) *EventService {
	return &EventService{publisher: publisher}
}

// Enabled reports whether events leave the process.
func (s *EventService) Enabled() bool {
	return s != nil && s.publisher != nil
}

// Record publishes the state reached after an interaction. Publishing
// failures are logged, never returned: the interaction already happened.
func (s *EventService) Record(ctx context.Context, sessionID string, kind filter.EventKind, st filter.State, visibleRows int) {
	if !s.Enabled() {
		return
	}
	msg := amqp.NewFilterEventMessage(sessionID, kind.String(), st.Selected, st.SelectAll, visibleRows)
	if err := s.publisher.PublishFilterEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish filter event",
			"session_id", sessionID,
			"kind", kind.String(),
			"error", err)
	}
}

func (s *EventService) Close() error {
	if !s.Enabled() {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close event publisher: %w", err)
	}
	return nil
}
