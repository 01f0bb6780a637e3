package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"authkit/pkg/config"
	"authkit/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EmailQueueName  = "email_queue"
	EmailExchange   = "mail"
	EmailRoutingKey = "send_email"

	MaxPriority = 10
)

type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *logger.Logger
}

func URL(cfg *config.Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	conn, err := amqp.Dial(URL(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(channel); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func declareTopology(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		EmailExchange, // name
		"direct",      // type
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Password reset mail jumps ahead of verification mail.
	_, err = channel.QueueDeclare(
		EmailQueueName, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		amqp.Table{
			"x-max-priority": MaxPriority,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(EmailQueueName, EmailRoutingKey, EmailExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishEmailTask publishes task as a persistent JSON message. Priority is clamped to 0-MaxPriority.
func (c *Client) PublishEmailTask(ctx context.Context, task interface{}, priority int) error {
	if priority < 0 {
		priority = 0
	}
	if priority > MaxPriority {
		priority = MaxPriority
	}

	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		EmailExchange,   // exchange
		EmailRoutingKey, // routing key
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     uint8(priority),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish message to exchange=%s, routing_key=%s: %v", EmailExchange, EmailRoutingKey, err)
		return fmt.Errorf("failed to publish message: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published email task to exchange=%s, queue=%s, size=%d bytes", EmailExchange, EmailQueueName, len(body))
	return nil
}

// ConsumeEmailTasks delivers each message body to handler until ctx is done or the
// channel closes. Undecodable messages are dropped; handler failures are requeued.
func (c *Client) ConsumeEmailTasks(ctx context.Context, handler func(ctx context.Context, body []byte) error) error {
	msgs, err := c.channel.ConsumeWithContext(ctx,
		EmailQueueName, // queue
		"",             // consumer
		false,          // auto-ack
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("[RABBITMQ] Started consuming from queue: %s", EmailQueueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(ctx, msg, handler)
		}
	}
}

func (c *Client) handleDelivery(ctx context.Context, msg amqp.Delivery, handler func(ctx context.Context, body []byte) error) {
	if !json.Valid(msg.Body) {
		c.logger.Error("[RABBITMQ] Dropping malformed message, size=%d bytes", len(msg.Body))
		msg.Nack(false, false)
		return
	}

	if err := handler(ctx, msg.Body); err != nil {
		c.logger.Error("[RABBITMQ] Handler failed to process email task: %v", err)
		// Redelivered messages are dropped so a poisoned task cannot loop forever.
		msg.Nack(false, !msg.Redelivered)
		return
	}

	msg.Ack(false)
}

// QueueLength returns the number of messages waiting in the email queue.
func (c *Client) QueueLength() (int, error) {
	queue, err := c.channel.QueueInspect(EmailQueueName)
	if err != nil {
		return 0, err
	}
	return queue.Messages, nil
}
