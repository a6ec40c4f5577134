package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate and published after commit.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() string
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata ties an event to the request that caused it.
type EventMetadata struct {
	CorrelationID string
	CausationID   uuid.UUID
}

// BaseEvent carries the envelope fields every event shares. Embed it.
type BaseEvent struct {
	id         uuid.UUID
	aggregate  string
	kind       string
	routingKey string
	at         time.Time
	meta       EventMetadata
}

// NewBaseEvent stamps a fresh id and the current UTC time.
func NewBaseEvent(aggregateID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{
		id:         uuid.New(),
		aggregate:  aggregateID,
		kind:       aggregateType,
		routingKey: routingKey,
		at:         time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID      { return e.id }
func (e BaseEvent) AggregateID() string     { return e.aggregate }
func (e BaseEvent) AggregateType() string   { return e.kind }
func (e BaseEvent) RoutingKey() string      { return e.routingKey }
func (e BaseEvent) OccurredAt() time.Time   { return e.at }
func (e BaseEvent) Metadata() EventMetadata { return e.meta }

// SetMetadata attaches correlation data before publishing.
func (e *BaseEvent) SetMetadata(metadata EventMetadata) {
	e.meta = metadata
}
