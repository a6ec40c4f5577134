package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/google/uuid"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// Envelope wraps a domain event for transport. The event's exported fields
// become the payload.
func Envelope(event domain.DomainEvent) (*ConsumedEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.RoutingKey(), err)
	}

	metadata := event.Metadata()
	envelope := &ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
		Metadata: EventMetadata{
			CorrelationID: metadata.CorrelationID,
		},
	}
	if metadata.CausationID != uuid.Nil {
		envelope.Metadata.CausationID = metadata.CausationID.String()
	}
	return envelope, nil
}

// PublishEvents publishes committed domain events in order. Failures are
// logged and do not stop the remaining events. It returns how many were published.
func PublishEvents(ctx context.Context, publisher Publisher, events []domain.DomainEvent, logger *slog.Logger) int {
	if publisher == nil {
		return 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	published := 0
	for _, event := range events {
		envelope, err := Envelope(event)
		if err != nil {
			logger.ErrorContext(ctx, "failed to encode event",
				"routing_key", event.RoutingKey(),
				"error", err,
			)
			continue
		}
		body, err := json.Marshal(envelope)
		if err != nil {
			logger.ErrorContext(ctx, "failed to encode event envelope",
				"routing_key", event.RoutingKey(),
				"error", err,
			)
			continue
		}
		if err := publisher.Publish(ctx, event.RoutingKey(), body); err != nil {
			logger.ErrorContext(ctx, "failed to publish event",
				"routing_key", event.RoutingKey(),
				"event_id", event.EventID(),
				"error", err,
			)
			continue
		}
		published++
	}
	return published
}

// NoopPublisher discards events.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that only logs at debug level.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "event discarded", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
