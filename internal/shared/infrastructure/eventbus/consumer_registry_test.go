package eventbus_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())

	consumer := &mockConsumer{
		eventTypes: []string{"tracker.task.created", "tracker.task.deleted"},
	}
	added := registry.Register(consumer)

	assert.Equal(t, []string{"tracker.task.created", "tracker.task.deleted"}, added)
	assert.Len(t, registry.GetConsumers("tracker.task.created"), 1)
	assert.Len(t, registry.GetConsumers("tracker.task.deleted"), 1)
	assert.Empty(t, registry.GetConsumers("tracker.task.status_changed"))
	assert.Equal(t, []string{"tracker.task.created", "tracker.task.deleted"}, registry.Patterns())
}

func TestConsumerRegistry_Wildcards(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())

	all := &mockConsumer{eventTypes: []string{"#"}}
	tasks := &mockConsumer{eventTypes: []string{"tracker.task.*", "tracker.task.created"}}
	registry.Register(all)
	added := registry.Register(all)
	assert.Empty(t, added, "known patterns need no new binding")
	registry.Register(tasks)

	consumers := registry.GetConsumers("tracker.task.created")
	require.Len(t, consumers, 2, "a consumer matching twice is dispatched once")
	assert.Same(t, all, consumers[0])
	assert.Same(t, tasks, consumers[1])

	assert.Len(t, registry.GetConsumers("audit.login"), 1)
	assert.Equal(t, []string{"#", "tracker.task.*", "tracker.task.created"}, registry.Patterns())
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())

	consumer := &mockConsumer{eventTypes: []string{"tracker.task.created"}}
	registry.Register(consumer)

	event := &eventbus.ConsumedEvent{
		EventID:    uuid.New(),
		RoutingKey: "tracker.task.created",
	}
	require.NoError(t, registry.Dispatch(context.Background(), event))

	require.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
}

func TestConsumerRegistry_DispatchNoConsumers(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())

	err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "tracker.task.created"})
	assert.NoError(t, err)
}

func TestConsumerRegistry_DispatchContinuesAfterError(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(testLogger())

	failing := &mockConsumer{
		eventTypes: []string{"tracker.task.deleted"},
		err:        errors.New("boom"),
	}
	healthy := &mockConsumer{eventTypes: []string{"tracker.task.deleted"}}
	registry.Register(failing)
	registry.Register(healthy)

	err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "tracker.task.deleted"})
	assert.EqualError(t, err, "boom")
	assert.Len(t, failing.events, 1)
	assert.Len(t, healthy.events, 1)
}

func TestConsumerRegistry_NilLogger(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	assert.NotNil(t, registry)
	assert.Empty(t, registry.Patterns())
}

func TestMatchRoutingKey(t *testing.T) {
	tests := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"tracker.task.created", "tracker.task.created", true},
		{"tracker.task.created", "tracker.task.deleted", false},
		{"tracker.task.*", "tracker.task.deleted", true},
		{"tracker.*", "tracker.task.deleted", false},
		{"tracker.#", "tracker.task.deleted", true},
		{"tracker.#", "tracker", true},
		{"#", "anything.at.all", true},
		{"#.deleted", "tracker.task.deleted", true},
		{"#.deleted", "tracker.task.created", false},
		{"*.task.*", "tracker.task.created", true},
		{"*", "", true},
		{"tracker.task", "tracker.task.created", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, eventbus.MatchRoutingKey(tt.pattern, tt.key))
		})
	}
}
