package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ConsumerRegistry routes envelopes to the consumers whose patterns match.
type ConsumerRegistry struct {
	mu       sync.RWMutex
	patterns []string // first-registration order
	byKey    map[string][]EventConsumer
	logger   *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{byKey: make(map[string][]EventConsumer), logger: logger}
}

// Register adds consumer under each of its patterns and returns the patterns
// no earlier consumer had, which a broker consumer still has to bind.
func (r *ConsumerRegistry) Register(consumer EventConsumer) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var added []string
	for _, pattern := range consumer.EventTypes() {
		if _, known := r.byKey[pattern]; !known {
			r.patterns = append(r.patterns, pattern)
			added = append(added, pattern)
		}
		r.byKey[pattern] = append(r.byKey[pattern], consumer)
	}
	return added
}

// Patterns lists the registered patterns in registration order.
func (r *ConsumerRegistry) Patterns() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.patterns...)
}

// GetConsumers returns the consumers matching routingKey, each once.
func (r *ConsumerRegistry) GetConsumers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []EventConsumer
	seen := make(map[EventConsumer]struct{})
	for _, pattern := range r.patterns {
		if !MatchRoutingKey(pattern, routingKey) {
			continue
		}
		for _, c := range r.byKey[pattern] {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			matched = append(matched, c)
		}
	}
	return matched
}

// Dispatch hands event to every matching consumer. A failing consumer does
// not stop the others; their errors are joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	start := time.Now()
	var errs []error
	for _, c := range r.GetConsumers(event.RoutingKey) {
		if err := c.Handle(ctx, event); err != nil {
			r.logger.ErrorContext(ctx, "consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	r.logger.DebugContext(ctx, "event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return errors.Join(errs...)
}
