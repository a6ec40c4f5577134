package observability

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthStatus is the state of one dependency or of the whole service.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// severity orders statuses so the worst one wins.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// HealthCheckResult is what a single check reports.
type HealthCheckResult struct {
	Status   HealthStatus   `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
	Details  map[string]any `json:"details,omitempty"`
}

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) HealthCheckResult

// OverallHealth is the body of GET /health.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// HealthRegistry holds the named checks of a process.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthRegistry creates an empty registry. With no checks the service is healthy.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: map[string]HealthChecker{}}
}

// Register adds or replaces the check under name.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	r.checkers[name] = checker
	r.mu.Unlock()
}

// GetOverallHealth runs every check concurrently and reports the worst status.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]HealthCheckResult, len(checkers))
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range checkers {
		g.Go(func() error {
			start := time.Now()
			res := check(gctx)
			res.Duration = time.Since(start)
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	overall := OverallHealth{Status: HealthStatusHealthy, Timestamp: time.Now().UTC(), Checks: results}
	for _, res := range results {
		if res.Status.severity() > overall.Status.severity() {
			overall.Status = res.Status
		}
	}
	return overall
}

// PingHealthChecker turns a ping into a check. A failing ping reports failure.
func PingHealthChecker(component string, failure HealthStatus, ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: failure, Message: component + ": " + err.Error()}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: component + " ok"}
	}
}

// StoreHealthChecker checks the task store. Without it nothing works.
func StoreHealthChecker(kind string, ping func(ctx context.Context) error) HealthChecker {
	check := PingHealthChecker(kind+" store", HealthStatusUnhealthy, ping)
	return func(ctx context.Context) HealthCheckResult {
		res := check(ctx)
		res.Details = map[string]any{"kind": kind}
		return res
	}
}

// RabbitMQHealthChecker checks the broker. Events are best effort, so a
// broken broker only degrades the service.
func RabbitMQHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return PingHealthChecker("rabbitmq", HealthStatusDegraded, ping)
}
