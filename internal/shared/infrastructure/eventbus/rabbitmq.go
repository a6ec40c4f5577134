package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange that carries task events.
const ExchangeName = "taskboard.events"

// amqpLink is a connection with one channel and the events exchange declared.
type amqpLink struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func dialExchange(url, exchange string) (*amqpLink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	// durable topic exchange; publisher and consumers both declare it
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &amqpLink{conn: conn, channel: ch}, nil
}

func (l *amqpLink) close() error {
	chErr := l.channel.Close()
	if err := l.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	if chErr != nil && !errors.Is(chErr, amqp.ErrClosed) {
		return chErr
	}
	return nil
}

// RabbitMQPublisher publishes envelopes to the events exchange.
type RabbitMQPublisher struct {
	mu     sync.Mutex
	link   *amqpLink
	logger *slog.Logger
}

// NewRabbitMQPublisher connects to url and declares the exchange.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	link, err := dialExchange(url, ExchangeName)
	if err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", ExchangeName)
	return &RabbitMQPublisher{link: link, logger: logger}, nil
}

// Publish sends a persistent JSON message with routingKey.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.link.channel.PublishWithContext(ctx, ExchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.DebugContext(ctx, "event published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Ping reports whether the broker connection is still open.
func (p *RabbitMQPublisher) Ping(ctx context.Context) error {
	if p.link.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	return ctx.Err()
}

// Close closes the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.link.close()
}

// RabbitMQConsumerConfig configures a RabbitMQConsumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	// Transient declares an exclusive auto-delete queue that lives only as
	// long as the consumer, as the events tail command needs.
	Transient bool
	Logger    *slog.Logger
}

// RabbitMQConsumer feeds a queue bound to the events exchange into a registry.
type RabbitMQConsumer struct {
	link      *amqpLink
	queue     string
	registry  *ConsumerRegistry
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewRabbitMQConsumer connects and declares the queue. Bindings are added by RegisterConsumer.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, registry *ConsumerRegistry) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "taskboard.consumer"
	}

	link, err := dialExchange(cfg.URL, ExchangeName)
	if err != nil {
		return nil, err
	}
	durable := !cfg.Transient
	if _, err := link.channel.QueueDeclare(cfg.QueueName, durable, cfg.Transient, cfg.Transient, false, nil); err != nil {
		_ = link.close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected", "queue", cfg.QueueName, "exchange", ExchangeName)
	return &RabbitMQConsumer{
		link:     link,
		queue:    cfg.QueueName,
		registry: registry,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}, nil
}

// RegisterConsumer adds consumer and binds the queue to its new patterns.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	for _, pattern := range c.registry.Register(consumer) {
		if err := c.link.channel.QueueBind(c.queue, pattern, ExchangeName, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "queue", c.queue, "routing_key", pattern, "error", err)
		}
	}
}

// Start consumes until ctx is done or Close is called. Messages that cannot
// be decoded are acked and dropped; dispatch failures are requeued.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	if err := c.link.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := c.link.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("consuming events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed unexpectedly")
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, msg amqp.Delivery) {
	event, err := DecodeEnvelope(msg.Body, msg.RoutingKey)
	if err == nil {
		err = c.registry.Dispatch(ctx, event)
		if err != nil {
			c.logger.ErrorContext(ctx, "event dispatch failed, requeueing", "routing_key", msg.RoutingKey, "error", err)
			if nackErr := msg.Nack(false, true); nackErr != nil {
				c.logger.Error("failed to nack message", "error", nackErr)
			}
			return
		}
	} else {
		c.logger.ErrorContext(ctx, "dropping undecodable event", "routing_key", msg.RoutingKey, "error", err)
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("failed to ack message", "error", ackErr)
	}
}

// Close stops Start and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.link.close()
	})
	return err
}
