package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// Publisher sends persistent JSON messages to named queues through the default
// exchange and waits for the broker's confirm.
type Publisher struct {
	broker  *Broker
	appID   string
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	channel *amqp.Channel
}

func NewPublisher(broker *Broker, appID string, timeout time.Duration, logger *slog.Logger) *Publisher {
	return &Publisher{broker: broker, appID: appID, timeout: timeout, logger: logger}
}

func (p *Publisher) confirmChannel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	ch, err := p.broker.Channel(ctx)
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("enabling publisher confirms: %w", err)
	}
	p.channel = ch
	return ch, nil
}

func (p *Publisher) Publish(ctx context.Context, queueName string, body []byte) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ch, err := p.confirmChannel(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		AppId:        p.appID,
		Body:         body,
	})
	if err != nil {
		return p.publishError(queueName, err)
	}
	if confirm == nil {
		return nil
	}

	ok, err := confirm.WaitContext(ctx)
	if err != nil {
		return p.publishError(queueName, err)
	}
	if !ok {
		return fmt.Errorf("publishing to %s: broker nacked message: %w", queueName, domain.ErrUnavailable)
	}
	return nil
}

func (p *Publisher) publishError(queueName string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("publishing to %s: %w", queueName, domain.ErrTimeout)
	}
	return fmt.Errorf("publishing to %s: %w: %v", queueName, domain.ErrUnavailable, err)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil || p.channel.IsClosed() {
		return nil
	}
	return p.channel.Close()
}
