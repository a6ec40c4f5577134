package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/subscribers"
	"github.com/felixgeelhaar/taskboard/pkg/config"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *observability.InMemoryMetrics
	Health   *observability.HealthRegistry
	Location *time.Location

	Store *Store

	// Publishers
	EventPublisher eventbus.Publisher
	// EventBus is set when events are dispatched in process instead of via RabbitMQ.
	EventBus *eventbus.InProcessEventBus

	// Task Command Handlers
	CreateTaskHandler       *commands.CreateTaskHandler
	UpdateTaskStatusHandler *commands.UpdateTaskStatusHandler
	DeleteTaskHandler       *commands.DeleteTaskHandler

	// Task Query Handlers
	ListTasksHandler *queries.ListTasksHandler
	DueTodayHandler  *queries.DueTodayHandler
}

// NewContainer opens the configured store and event publisher and builds
// the handlers on top of them.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg.StoreURL, cfg.RedisURL, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  observability.NewInMemoryMetrics(),
		Health:   observability.NewHealthRegistry(),
		Location: loc,
		Store:    store,
	}
	c.Health.Register("store", observability.StoreHealthChecker(string(store.Kind), store.Ping))

	if cfg.RabbitMQURL != "" {
		pub, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect event publisher: %w", err)
		}
		c.EventPublisher = pub
		c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(pub.Ping))
	} else {
		c.EventBus = eventbus.NewInProcessEventBus(logger)
		c.EventBus.RegisterConsumer(subscribers.NewActivitySubscriber(logger, c.Metrics, nil))
		c.EventPublisher = c.EventBus
	}

	deps := commands.Deps{
		UnitOfWork: store.UnitOfWork,
		Publisher:  c.EventPublisher,
		Logger:     logger,
		Metrics:    c.Metrics,
	}
	c.CreateTaskHandler = commands.NewCreateTaskHandler(store.Repo, deps)
	c.UpdateTaskStatusHandler = commands.NewUpdateTaskStatusHandler(store.Repo, deps)
	c.DeleteTaskHandler = commands.NewDeleteTaskHandler(store.Repo, deps)
	c.ListTasksHandler = queries.NewListTasksHandler(store.Repo)
	c.DueTodayHandler = queries.NewDueTodayHandler(store.Repo, loc)

	return c, nil
}

// Subscribe attaches an activity writer to the in-process bus.
// It returns false when events go to RabbitMQ instead.
func (c *Container) Subscribe(out io.Writer) bool {
	if c.EventBus == nil {
		return false
	}
	c.EventBus.RegisterConsumer(subscribers.NewActivitySubscriber(c.Logger, observability.NoopMetrics{}, out))
	return true
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Error("failed to close event publisher", "error", err)
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.Logger.Error("failed to close task store", "error", err)
		}
	}
}
