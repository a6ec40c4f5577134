package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
)

// InProcessEventBus is the Publisher used when no broker is configured.
// Envelopes reach consumers synchronously, one publish at a time.
type InProcessEventBus struct {
	mu       sync.Mutex
	registry *ConsumerRegistry
	logger   *slog.Logger
}

// NewInProcessEventBus creates a bus with no consumers.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{registry: NewConsumerRegistry(logger), logger: logger}
}

// RegisterConsumer adds a consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes an envelope and dispatches it. Undecodable payloads and
// consumer failures are logged, never returned, so commands are not failed
// by their subscribers.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEnvelope(payload, routingKey)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}
	b.dispatch(ctx, event)
	return nil
}

// PublishDomainEvent wraps event in an envelope and dispatches it.
func (b *InProcessEventBus) PublishDomainEvent(ctx context.Context, event domain.DomainEvent) error {
	envelope, err := Envelope(event)
	if err != nil {
		return err
	}
	b.dispatch(ctx, envelope)
	return nil
}

func (b *InProcessEventBus) dispatch(ctx context.Context, event *ConsumedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.registry.Dispatch(ctx, event)
}

// Close does nothing.
func (b *InProcessEventBus) Close() error {
	return nil
}
