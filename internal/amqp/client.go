// Package amqp publishes transaction-recorded events and consumes group
// membership changes over RabbitMQ.
package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"pantry/internal/core"
	applog "pantry/internal/log"
)

const publishTimeout = 5 * time.Second

type Client struct {
	conn            *amqp091.Connection
	channel         *amqp091.Channel
	exchangeName    string
	txQueue         string
	membershipQueue string
	logger          *applog.Logger
}

func NewClient(url, exchangeName, txQueue, membershipQueue string, logger *applog.Logger) (*Client, error) {
	if logger == nil {
		logger = applog.New(applog.Config{Component: applog.ComponentAMQP})
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:            conn,
		channel:         channel,
		exchangeName:    exchangeName,
		txQueue:         txQueue,
		membershipQueue: membershipQueue,
		logger:          logger.WithComponent(applog.ComponentAMQP),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.txQueue, c.membershipQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// Routing key matches queue name on a direct exchange.
		err = c.channel.QueueBind(queue, queue, c.exchangeName, false, nil)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

// PublishTransactionRecorded publishes the recorded-transaction event. It
// satisfies the ledger's EventPublisher interface.
func (c *Client) PublishTransactionRecorded(ctx context.Context, tx core.Transaction) error {
	msg := NewTransactionRecordedMessage(tx)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.txQueue, body); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Published transaction recorded message",
		applog.FieldTransactionID, msg.ID,
		applog.FieldGroupID, msg.GroupID,
		applog.FieldType, string(msg.Type))
	return nil
}

// PublishMembershipChanged publishes a group membership change event.
func (c *Client) PublishMembershipChanged(ctx context.Context, userID, groupID string) error {
	msg := NewMembershipChangedMessage(userID, groupID)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, c.membershipQueue, body); err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Published membership changed message",
		applog.FieldUserID, userID,
		applog.FieldGroupID, groupID)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// ConsumeMembershipChanges delivers membership change messages to handler
// until ctx is cancelled. Handled messages are acked; handler failures are
// requeued, undecodable payloads are dropped.
func (c *Client) ConsumeMembershipChanges(ctx context.Context, handler func(*MembershipChangedMessage) error) error {
	msgs, err := c.channel.Consume(
		c.membershipQueue, // queue
		"",                // consumer
		false,             // auto-ack (we want manual ack)
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming membership changes", "queue", c.membershipQueue)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := MembershipChangedMessageFromJSON(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to unmarshal message", applog.FieldError, err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := handler(msg); err != nil {
				c.logger.ErrorContext(ctx, "Failed to handle message",
					applog.FieldError, err,
					applog.FieldUserID, msg.UserID,
					applog.FieldGroupID, msg.GroupID)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			c.logger.InfoContext(ctx, "Processed membership change",
				applog.FieldUserID, msg.UserID,
				applog.FieldGroupID, msg.GroupID)
		}
	}
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
