package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// Channel is the subset of *amqp.Channel used for queue administration.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDelete(name string, ifUnused, ifEmpty, noWait bool) (int, error)
	Close() error
}

// Broker owns one AMQP connection and redials it when it drops.
type Broker struct {
	url            string
	connectTimeout time.Duration
	logger         *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func Dial(ctx context.Context, url string, connectTimeout time.Duration, logger *slog.Logger) (*Broker, error) {
	b := &Broker{url: url, connectTimeout: connectTimeout, logger: logger}
	if _, err := b.connection(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func newBackOff(timeout time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 60 * time.Second
	if timeout > 0 {
		b.MaxElapsedTime = timeout
	}
	b.MaxInterval = 5 * time.Second
	return b
}

func (b *Broker) connection(ctx context.Context) (*amqp.Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil && !b.conn.IsClosed() {
		return b.conn, nil
	}

	var conn *amqp.Connection
	err := backoff.Retry(func() error {
		c, err := amqp.Dial(b.url)
		if err != nil {
			b.logger.Warn("amqp dial failed", "error", err)
			return err
		}
		conn = c
		return nil
	}, backoff.WithContext(newBackOff(b.connectTimeout), ctx))
	if err != nil {
		return nil, fmt.Errorf("connecting to amqp: %w", err)
	}

	b.conn = conn
	b.logger.Info("amqp connected")
	return conn, nil
}

// Channel opens a fresh channel. AMQP closes a channel on any operation
// error, so callers use one channel per operation.
func (b *Broker) Channel(ctx context.Context) (*amqp.Channel, error) {
	conn, err := b.connection(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}
	return ch, nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil || b.conn.IsClosed() {
		return nil
	}
	return b.conn.Close()
}

// IsNotFound reports whether err is a broker 404 reply.
func IsNotFound(err error) bool {
	var amqpErr *amqp.Error
	return errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound
}

// bounded runs op and gives up when ctx or timeout expires first. A deadline
// surfaces as domain.ErrTimeout. op keeps running in the background after a
// timeout; its result is discarded.
func bounded(ctx context.Context, timeout time.Duration, what string, op func() error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- op() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", what, domain.ErrTimeout)
		}
		return ctx.Err()
	}
}
