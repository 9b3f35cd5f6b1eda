package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendwise/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

const (
	mailExchange   = "spendwise.mail"
	publishTimeout = 5 * time.Second
)

// QueueClient publishes messages to a durable RabbitMQ queue and, in the
// worker, consumes them again for delivery.
type QueueClient struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
}

// NewQueueClient dials the broker and declares the exchange, queue and binding.
func NewQueueClient(url, queue string) (*QueueClient, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &QueueClient{conn: conn, channel: channel, queue: queue}
	if err := c.declare(); err != nil {
		c.Close()
		return nil, fmt.Errorf("declare mail topology: %w", err)
	}
	return c, nil
}

func (c *QueueClient) declare() error {
	if err := c.channel.ExchangeDeclare(mailExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := c.channel.QueueBind(c.queue, c.queue, mailExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Send enqueues msg as a persistent JSON delivery.
func (c *QueueClient) Send(ctx context.Context, msg Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, mailExchange, c.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	logger.Named("mailer").Debugw("queued email", "queue", c.queue, "subject", msg.Subject)
	return nil
}

// Consume hands each queued message to deliver until ctx ends. Undecodable
// messages are dropped; delivery failures are requeued.
func (c *QueueClient) Consume(ctx context.Context, deliver Mailer) error {
	log := logger.Named("mailer")
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	log.Infow("consuming mail queue", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("mail delivery channel closed")
			}
			handleDelivery(ctx, d, deliver)
		}
	}
}

// acknowledger is the subset of amqp091.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, d amqp091.Delivery, deliver Mailer) {
	settle(ctx, d.Body, d, deliver)
}

func settle(ctx context.Context, body []byte, ack acknowledger, deliver Mailer) {
	log := logger.Named("mailer")
	msg, err := MessageFromJSON(body)
	if err != nil {
		log.Errorw("dropping undecodable mail message", "error", err)
		_ = ack.Nack(false, false)
		return
	}
	if err := deliver.Send(ctx, msg); err != nil {
		log.Errorw("mail delivery failed, requeueing", "error", err, "subject", msg.Subject)
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
}

// Close releases the channel and connection.
func (c *QueueClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
