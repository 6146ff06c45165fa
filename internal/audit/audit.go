package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// Noticer records admin actions for later review.
type Noticer interface {
	Notice(ctx context.Context, action domain.AdminAction) error
}

// LogNoticer writes admin actions to the structured log.
type LogNoticer struct {
	logger *slog.Logger
}

func NewLogNoticer(logger *slog.Logger) *LogNoticer {
	return &LogNoticer{logger: logger}
}

func (n *LogNoticer) Notice(ctx context.Context, action domain.AdminAction) error {
	n.logger.InfoContext(ctx, "admin action", "action", action.Name, "details", action.Details, "at", action.At)
	return nil
}

type producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
	Close()
}

// payload is the JSON body of an audit record on the topic.
type payload struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Details   any    `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// KafkaNoticer publishes admin actions to a Kafka topic. Produce is
// asynchronous; broker failures are logged from the delivery callback.
type KafkaNoticer struct {
	client producer
	topic  string
	logger *slog.Logger
}

func NewKafkaNoticer(brokers []string, topic string, logger *slog.Logger) (*KafkaNoticer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(50*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}
	return &KafkaNoticer{client: client, topic: topic, logger: logger}, nil
}

func (n *KafkaNoticer) Notice(ctx context.Context, action domain.AdminAction) error {
	at := action.At
	if at.IsZero() {
		at = time.Now()
	}
	value, err := json.Marshal(payload{
		ID:        uuid.NewString(),
		Action:    action.Name,
		Details:   action.Details,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("encoding admin action: %w", err)
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(action.Name),
		Value: value,
	}
	n.client.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			n.logger.Error("failed to publish admin action", "action", action.Name, "topic", r.Topic, "error", err)
		}
	})
	return nil
}

// Close flushes buffered records and closes the client.
func (n *KafkaNoticer) Close() {
	n.client.Close()
}
