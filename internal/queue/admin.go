package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DeadLetterSuffix = "-dlq"

// Admin creates and removes acquirer push queues.
type Admin struct {
	open    func(ctx context.Context) (Channel, error)
	timeout time.Duration
	logger  *slog.Logger
}

func NewAdmin(broker *Broker, timeout time.Duration, logger *slog.Logger) *Admin {
	return newAdmin(func(ctx context.Context) (Channel, error) {
		return broker.Channel(ctx)
	}, timeout, logger)
}

func newAdmin(open func(ctx context.Context) (Channel, error), timeout time.Duration, logger *slog.Logger) *Admin {
	return &Admin{open: open, timeout: timeout, logger: logger}
}

// CreateQueue declares name-dlq, then name dead-lettering into it. Declaring
// an existing queue with the same arguments is a no-op.
func (a *Admin) CreateQueue(ctx context.Context, name string) error {
	dlq := name + DeadLetterSuffix

	return a.withChannel(ctx, "creating queue "+name, func(ch Channel) error {
		if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declaring %s: %w", dlq, err)
		}
		_, err := ch.QueueDeclare(name, true, false, false, false, amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlq,
		})
		if err != nil {
			return fmt.Errorf("declaring %s: %w", name, err)
		}
		a.logger.Info("queue created", "queue", name, "dead_letter_queue", dlq)
		return nil
	})
}

// DeleteQueue removes name. A queue that does not exist counts as deleted.
func (a *Admin) DeleteQueue(ctx context.Context, name string) error {
	return a.withChannel(ctx, "deleting queue "+name, func(ch Channel) error {
		purged, err := ch.QueueDelete(name, false, false, false)
		if err != nil {
			if IsNotFound(err) {
				a.logger.Info("queue already absent", "queue", name)
				return nil
			}
			return fmt.Errorf("deleting %s: %w", name, err)
		}
		a.logger.Info("queue deleted", "queue", name, "messages_dropped", purged)
		return nil
	})
}

func (a *Admin) withChannel(ctx context.Context, what string, op func(Channel) error) error {
	return bounded(ctx, a.timeout, what, func() error {
		ch, err := a.open(ctx)
		if err != nil {
			return err
		}
		defer ch.Close()
		return op(ch)
	})
}
