package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/metrics"
	ws "github.com/Priya8975/life-event-share/internal/websocket"
)

type SubscriptionFinder interface {
	ListSubscriptionsByEventType(ctx context.Context, eventType domain.EventType) ([]domain.AcquirerSubscription, error)
}

type EventWriter interface {
	CreateEvents(ctx context.Context, events []domain.EventData) error
}

type PublisherMappings interface {
	FindPublisherSubscription(ctx context.Context, clientID string, eventType domain.EventType) (*domain.PublisherSubscription, error)
}

type Broadcaster interface {
	Broadcast(event ws.LiveEvent)
}

// Router fans one inbound notification out to one delivery record per live
// matching subscription. Enrichment is left to read time.
type Router struct {
	subs       SubscriptionFinder
	events     EventWriter
	mappings   PublisherMappings
	queue      *redis.Client
	hub        Broadcaster
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
	newBackOff func() backoff.BackOff
}

type RouterOption func(*Router)

func WithPublisherMappings(m PublisherMappings) RouterOption {
	return func(r *Router) { r.mappings = m }
}

// WithPushQueue enables push delivery through the redis delivery queue.
func WithPushQueue(client *redis.Client) RouterOption {
	return func(r *Router) { r.queue = client }
}

func WithBroadcaster(b Broadcaster) RouterOption {
	return func(r *Router) { r.hub = b }
}

func WithRouterMetrics(m *metrics.Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) { r.now = now }
}

func WithBackOff(f func() backoff.BackOff) RouterOption {
	return func(r *Router) { r.newBackOff = f }
}

func NewRouter(subs SubscriptionFinder, events EventWriter, logger *slog.Logger, opts ...RouterOption) *Router {
	r := &Router{
		subs:       subs,
		events:     events,
		logger:     logger,
		now:        time.Now,
		newBackOff: defaultBatchBackOff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultBatchBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithMaxRetries(b, 3)
}

// Ingest persists one record per live subscription to n's event type as a
// single batch and returns the records. No match is not an error.
func (r *Router) Ingest(ctx context.Context, n domain.Notification) ([]domain.EventData, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	datasetID, expiry, err := r.resolvePublisher(ctx, n)
	if err != nil {
		return nil, err
	}

	subs, err := r.subs.ListSubscriptionsByEventType(ctx, n.EventType)
	if err != nil {
		return nil, fmt.Errorf("finding matching subscriptions: %w", err)
	}

	if len(subs) == 0 {
		r.logger.Info("no matching subscriptions", "event_type", n.EventType, "data_id", n.DataID)
		r.metrics.IncDropped(string(n.EventType))
		return []domain.EventData{}, nil
	}

	now := r.now()
	records := make([]domain.EventData, 0, len(subs))
	for _, sub := range subs {
		records = append(records, domain.EventData{
			ID:                     uuid.NewString(),
			AcquirerSubscriptionID: sub.ID,
			DataID:                 n.DataID,
			DatasetID:              datasetID,
			DataPayload:            n.RawPayload,
			EventTime:              n.EventTime,
			DataExpiryTime:         expiry,
			WhenCreated:            now,
		})
	}

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := r.events.CreateEvents(ctx, records); err != nil {
			r.logger.Warn("fan-out batch failed", "event_type", n.EventType, "attempt", attempt, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(r.newBackOff(), ctx))
	if err != nil {
		return nil, fmt.Errorf("persisting fan-out batch: %w", err)
	}

	r.metrics.IncIngested(string(n.EventType), len(records))
	queued := r.enqueuePush(ctx, subs, records)

	if r.hub != nil {
		r.hub.Broadcast(ws.LiveEvent{
			Type:      ws.EventIngested,
			EventType: string(n.EventType),
			Count:     len(records),
			Timestamp: now,
		})
	}

	r.logger.Info("fan-out complete",
		"event_type", n.EventType,
		"data_id", n.DataID,
		"records_created", len(records),
		"deliveries_queued", queued,
	)

	return records, nil
}

func (r *Router) resolvePublisher(ctx context.Context, n domain.Notification) (string, *time.Time, error) {
	datasetID := n.DatasetID
	if r.mappings == nil || n.SourcePublisher == "" {
		return datasetID, nil, nil
	}

	ps, err := r.mappings.FindPublisherSubscription(ctx, n.SourcePublisher, n.EventType)
	if err != nil {
		return "", nil, fmt.Errorf("resolving publisher mapping: %w", err)
	}
	if ps == nil {
		return datasetID, nil, nil
	}

	if datasetID == "" {
		datasetID = ps.DatasetID
	}
	var expiry *time.Time
	if ps.ExpiryDuration > 0 {
		t := n.EventTime.Add(ps.ExpiryDuration)
		expiry = &t
	}
	return datasetID, expiry, nil
}

// enqueuePush queues push-mode records for the delivery workers. The records
// are already durable, so failures here are logged rather than returned.
func (r *Router) enqueuePush(ctx context.Context, subs []domain.AcquirerSubscription, records []domain.EventData) int {
	if r.queue == nil {
		return 0
	}

	pipe := r.queue.Pipeline()
	queued := 0
	score := float64(r.now().UnixMicro())

	for i, sub := range subs {
		if !sub.IsPush() {
			continue
		}

		jobBytes, err := json.Marshal(NewDeliveryJob(sub, records[i]))
		if err != nil {
			r.logger.Error("failed to marshal job", "error", err, "subscription_id", sub.ID)
			continue
		}

		pipe.ZAdd(ctx, DeliveryQueueKey, redis.Z{
			Score:  score,
			Member: string(jobBytes),
		})
		queued++
	}

	if queued == 0 {
		return 0
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("failed to queue push deliveries", "error", err, "jobs", queued)
		r.metrics.IncPushDelivery("enqueue_failed")
		return 0
	}
	return queued
}

// QueueDepth returns the current number of jobs waiting in the delivery queue.
func (r *Router) QueueDepth(ctx context.Context) (int64, error) {
	if r.queue == nil {
		return 0, nil
	}
	return r.queue.ZCard(ctx, DeliveryQueueKey).Result()
}
