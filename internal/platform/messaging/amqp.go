package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func declareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	return err
}

// AMQPPublisher sends events to a durable RabbitMQ queue.
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
}

func NewAMQPPublisher(url, queue string, logger *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareQueue(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, queue: queue, logger: logger.Named("amqp_publisher")}, nil
}

// Publish is safe for concurrent use; amqp channels are not.
func (p *AMQPPublisher) Publish(_ context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event for %s: %w", ev.Action, ev.PropertyID, err)
	}
	p.logger.Debug("Published property event", zap.String("action", ev.Action), zap.String("property_id", ev.PropertyID))
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return fmt.Errorf("error closing channel: %w", err)
	}
	return p.conn.Close()
}

// Consumer reads events from the queue and applies them with a Handler.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	handler Handler
	timeout time.Duration
	logger  *zap.Logger
	done    chan struct{}
}

func NewConsumer(url, queue string, handler Handler, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declareQueue(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &Consumer{
		conn:    conn,
		channel: ch,
		queue:   queue,
		handler: handler,
		timeout: 30 * time.Second,
		logger:  logger.Named("amqp_consumer"),
		done:    make(chan struct{}),
	}, nil
}

// Start registers the consumer and processes deliveries in a goroutine
// until the channel is closed.
func (c *Consumer) Start() error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consuming property events", zap.String("queue", c.queue))
	go func() {
		defer close(c.done)
		for msg := range msgs {
			c.process(msg)
		}
	}()
	return nil
}

func (c *Consumer) process(msg amqp.Delivery) {
	ev, err := decodeDelivery(msg.Body)
	if err != nil {
		c.logger.Warn("Rejecting malformed property event", zap.Error(err), zap.ByteString("body", msg.Body))
		_ = msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.handler(ctx, ev); err != nil {
		c.logger.Error("Failed to apply property event; requeueing",
			zap.Error(err), zap.String("action", ev.Action), zap.String("property_id", ev.PropertyID))
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	if err := msg.Ack(false); err != nil {
		c.logger.Warn("Failed to ack property event", zap.Error(err))
	}
}

func decodeDelivery(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("invalid json: %w", err)
	}
	return ev, ev.Validate()
}

// Close stops consuming and waits for the in-flight delivery to finish.
func (c *Consumer) Close() error {
	err := c.channel.Close()
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	select {
	case <-c.done:
	case <-time.After(c.timeout):
	}
	return err
}
