package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/subscribers"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow task events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print task events published to RabbitMQ",
	Long: `Print task events as the store publishes them.

Requires RABBITMQ_URL. Without RabbitMQ the store dispatches
events in process; run 'taskboard serve --activity' to see them instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := GetApp()
		if err != nil {
			return err
		}
		if a.Config.RabbitMQURL == "" {
			return errors.New("no RabbitMQ URL configured; use 'taskboard serve --activity' for in-process events")
		}

		registry := eventbus.NewConsumerRegistry(a.Logger)
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       a.Config.RabbitMQURL,
			QueueName: fmt.Sprintf("taskboard.tail.%s", uuid.NewString()),
			Transient: true,
			Logger:    a.Logger,
		}, registry)
		if err != nil {
			return err
		}
		defer consumer.Close()

		consumer.RegisterConsumer(subscribers.NewActivitySubscriber(a.Logger, observability.NoopMetrics{}, cmd.OutOrStdout()))

		err = consumer.Start(cmd.Context())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	eventsCmd.AddCommand(eventsTailCmd)
	rootCmd.AddCommand(eventsCmd)
}
