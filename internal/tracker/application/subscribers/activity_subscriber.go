package subscribers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// ActivitySubscriber records every task event: a log line, a consumed-events
// counter and, when a writer is set, one JSON envelope per line.
type ActivitySubscriber struct {
	logger  *slog.Logger
	metrics observability.Metrics

	mu  sync.Mutex
	out io.Writer
}

// NewActivitySubscriber creates a new activity subscriber. out may be nil.
func NewActivitySubscriber(logger *slog.Logger, metrics observability.Metrics, out io.Writer) *ActivitySubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ActivitySubscriber{logger: logger, metrics: metrics, out: out}
}

// EventTypes returns the event types this subscriber handles.
func (s *ActivitySubscriber) EventTypes() []string {
	return []string{
		task.RoutingKeyCreated,
		task.RoutingKeyStatusChanged,
		task.RoutingKeyDeleted,
	}
}

// Handle processes a task event.
func (s *ActivitySubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	s.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("routing_key", event.RoutingKey))
	s.logger.InfoContext(ctx, "task event",
		"routing_key", event.RoutingKey,
		"task_id", event.AggregateID,
		"event_id", event.EventID,
		observability.CorrelationIDKey, event.Metadata.CorrelationID,
	)

	if s.out == nil {
		return nil
	}
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.out.Write(append(line, '\n'))
	return err
}
