package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	domain.BaseEvent
	Title string `json:"title"`
}

func newSampleEvent(title string) *sampleEvent {
	return &sampleEvent{
		BaseEvent: domain.NewBaseEvent("42", "Task", "tracker.task.created"),
		Title:     title,
	}
}

type recordingPublisher struct {
	keys     []string
	payloads [][]byte
	failOn   string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if routingKey == p.failOn {
		return errors.New("broker down")
	}
	p.keys = append(p.keys, routingKey)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"tracker.task.created"}}
	bus.RegisterConsumer(consumer)

	event := &eventbus.ConsumedEvent{
		EventID:       uuid.New(),
		AggregateID:   "1700000000000",
		AggregateType: "Task",
		RoutingKey:    "tracker.task.created",
		OccurredAt:    time.Now(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "tracker.task.created", payload))

	require.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
	assert.Equal(t, "1700000000000", consumer.events[0].AggregateID)
}

func TestInProcessEventBus_PublishFillsRoutingKey(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"tracker.task.deleted"}}
	bus.RegisterConsumer(consumer)

	require.NoError(t, bus.Publish(context.Background(), "tracker.task.deleted", []byte(`{"aggregate_id":"7"}`)))

	require.Len(t, consumer.events, 1)
	assert.Equal(t, "tracker.task.deleted", consumer.events[0].RoutingKey)
}

func TestInProcessEventBus_ConsumerErrorIsSwallowed(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	consumer := &mockConsumer{
		eventTypes: []string{"tracker.task.created"},
		err:        errors.New("consumer error"),
	}
	bus.RegisterConsumer(consumer)

	err := bus.Publish(context.Background(), "tracker.task.created", []byte(`{}`))
	require.NoError(t, err)
	assert.Len(t, consumer.events, 1)
}

func TestInProcessEventBus_InvalidPayload(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"#"}}
	bus.RegisterConsumer(consumer)

	require.NoError(t, bus.Publish(context.Background(), "tracker.task.created", []byte("invalid json")))
	assert.Empty(t, consumer.events)
}

func TestInProcessEventBus_PublishDomainEvent(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(testLogger())
	consumer := &mockConsumer{eventTypes: []string{"tracker.task.*"}}
	bus.RegisterConsumer(consumer)

	event := newSampleEvent("Write report")
	require.NoError(t, bus.PublishDomainEvent(context.Background(), event))

	require.Len(t, consumer.events, 1)
	got := consumer.events[0]
	assert.Equal(t, event.EventID(), got.EventID)
	assert.Equal(t, "42", got.AggregateID)
	assert.JSONEq(t, `{"title":"Write report"}`, string(got.Payload))
}

func TestDecodeEnvelope(t *testing.T) {
	event, err := eventbus.DecodeEnvelope([]byte(`{"aggregate_id":"7"}`), "tracker.task.deleted")
	require.NoError(t, err)
	assert.Equal(t, "tracker.task.deleted", event.RoutingKey)
	assert.Equal(t, "7", event.AggregateID)

	_, err = eventbus.DecodeEnvelope([]byte("not json"), "x")
	assert.Error(t, err)
}

func TestEnvelope(t *testing.T) {
	event := newSampleEvent("Pay rent")
	causation := uuid.New()
	event.SetMetadata(domain.EventMetadata{CorrelationID: "corr-1", CausationID: causation})

	envelope, err := eventbus.Envelope(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), envelope.EventID)
	assert.Equal(t, "42", envelope.AggregateID)
	assert.Equal(t, "Task", envelope.AggregateType)
	assert.Equal(t, "tracker.task.created", envelope.RoutingKey)
	assert.Equal(t, event.OccurredAt(), envelope.OccurredAt)
	assert.Equal(t, "corr-1", envelope.Metadata.CorrelationID)
	assert.Equal(t, causation.String(), envelope.Metadata.CausationID)
	assert.JSONEq(t, `{"title":"Pay rent"}`, string(envelope.Payload))
}

func TestPublishEvents(t *testing.T) {
	t.Run("publishes in order", func(t *testing.T) {
		pub := &recordingPublisher{}
		first := newSampleEvent("one")
		second := &sampleEvent{
			BaseEvent: domain.NewBaseEvent("42", "Task", "tracker.task.deleted"),
		}

		n := eventbus.PublishEvents(context.Background(), pub, []domain.DomainEvent{first, second}, testLogger())

		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"tracker.task.created", "tracker.task.deleted"}, pub.keys)

		var envelope eventbus.ConsumedEvent
		require.NoError(t, json.Unmarshal(pub.payloads[0], &envelope))
		assert.Equal(t, first.EventID(), envelope.EventID)
	})

	t.Run("failure does not stop the rest", func(t *testing.T) {
		pub := &recordingPublisher{failOn: "tracker.task.created"}
		events := []domain.DomainEvent{
			newSampleEvent("fails"),
			&sampleEvent{BaseEvent: domain.NewBaseEvent("1", "Task", "tracker.task.deleted")},
		}

		n := eventbus.PublishEvents(context.Background(), pub, events, nil)

		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"tracker.task.deleted"}, pub.keys)
	})

	t.Run("nil publisher", func(t *testing.T) {
		n := eventbus.PublishEvents(context.Background(), nil, []domain.DomainEvent{newSampleEvent("x")}, nil)
		assert.Zero(t, n)
	})
}

func TestNoopPublisher(t *testing.T) {
	pub := eventbus.NewNoopPublisher(nil)
	assert.NoError(t, pub.Publish(context.Background(), "tracker.task.created", []byte("{}")))
	assert.NoError(t, pub.Close())
}
