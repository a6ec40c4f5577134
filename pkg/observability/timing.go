package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one operation. Stop it exactly once.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
	tags      []Tag
}

// StartTimer starts measuring operation.
func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now()}
}

// WithLogger logs the outcome on stop: failures at error, successes at debug.
func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

// WithMetrics records the operation counters and duration on stop.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// WithTags labels the recorded series.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// StopWithError ends the measurement. A non-nil err counts as a failure.
func (t *Timer) StopWithError(err error) time.Duration {
	return t.StopContext(context.Background(), err)
}

// StopContext is StopWithError with the context used for logging.
func (t *Timer) StopContext(ctx context.Context, err error) time.Duration {
	elapsed := time.Since(t.start)

	if t.metrics != nil {
		tags := append([]Tag{T(OperationKey, t.operation)}, t.tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		t.metrics.Timing(MetricOperationDuration, elapsed, tags...)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, tags...)
		}
	}

	if t.logger == nil {
		return elapsed
	}
	if err != nil {
		t.logger.ErrorContext(ctx, "operation failed",
			OperationKey, t.operation, DurationKey, elapsed.Milliseconds(), ErrorKey, err)
	} else {
		t.logger.DebugContext(ctx, "operation completed",
			OperationKey, t.operation, DurationKey, elapsed.Milliseconds())
	}
	return elapsed
}
