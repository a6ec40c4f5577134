package commands

import (
	"context"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// Deps are the collaborators every tracker command handler shares.
type Deps struct {
	UnitOfWork sharedApplication.UnitOfWork
	Publisher  eventbus.Publisher
	Logger     *slog.Logger
	Metrics    observability.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.UnitOfWork == nil {
		d.UnitOfWork = sharedApplication.NoopUnitOfWork{}
	}
	if d.Publisher == nil {
		d.Publisher = eventbus.NewNoopPublisher(d.Logger)
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = observability.NoopMetrics{}
	}
	return d
}

// dispatch publishes events that were recorded by a committed command.
func (d Deps) dispatch(ctx context.Context, events []domain.DomainEvent) {
	if len(events) == 0 {
		return
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx))
	published := eventbus.PublishEvents(ctx, d.Publisher, events, d.Logger)
	d.Metrics.Counter(observability.MetricEventsPublished, int64(published))
}

// run executes fn in a unit of work, timing it under the command name.
func run[T any](ctx context.Context, d Deps, name string, fn func(txCtx context.Context) (T, error)) (T, error) {
	timer := observability.StartTimer(name).
		WithMetrics(d.Metrics).
		WithTags(observability.T("kind", "command"))
	result, err := sharedApplication.WithUnitOfWorkResult(ctx, d.UnitOfWork, fn)
	timer.StopWithError(err)
	return result, err
}
