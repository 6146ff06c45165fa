package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// Handler processes one message body. A nil return acks the message; any
// error rejects it without requeue so the broker dead-letters it.
type Handler func(ctx context.Context, body []byte) error

// Consumer feeds an inbound queue to a Handler and resubscribes when the
// channel drops.
type Consumer struct {
	broker    *Broker
	queueName string
	handler   Handler
	prefetch  int
	logger    *slog.Logger
}

func NewConsumer(broker *Broker, queueName string, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		broker:    broker,
		queueName: queueName,
		handler:   handler,
		prefetch:  10,
		logger:    logger,
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 0
	retry.MaxInterval = 30 * time.Second

	return backoff.Retry(func() error {
		err := c.consumeOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("inbound consumer interrupted", "queue", c.queueName, "error", err)
		return err
	}, backoff.WithContext(retry, ctx))
}

func (c *Consumer) consumeOnce(ctx context.Context) error {
	ch, err := c.broker.Channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	dlq := c.queueName + DeadLetterSuffix
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring %s: %w", dlq, err)
	}
	_, err = ch.QueueDeclare(c.queueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlq,
	})
	if err != nil {
		return fmt.Errorf("declaring %s: %w", c.queueName, err)
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("setting qos: %w", err)
	}

	deliveries, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming %s: %w", c.queueName, err)
	}
	c.logger.Info("inbound consumer started", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	if err := c.handler(ctx, d.Body); err != nil {
		c.logger.Warn("rejecting inbound message", "queue", c.queueName, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// NotificationHandler decodes inbound notifications and passes them to ingest.
func NotificationHandler(ingest func(ctx context.Context, n domain.Notification) ([]domain.EventData, error), logger *slog.Logger) Handler {
	return func(ctx context.Context, body []byte) error {
		var n domain.Notification
		if err := json.Unmarshal(body, &n); err != nil {
			return fmt.Errorf("decoding notification: %w", err)
		}
		records, err := ingest(ctx, n)
		if err != nil {
			return err
		}
		logger.Debug("inbound notification routed", "event_type", n.EventType, "records", len(records))
		return nil
	}
}
