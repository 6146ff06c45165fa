package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/engine"
	"github.com/Priya8975/life-event-share/internal/enrichment"
	"github.com/Priya8975/life-event-share/internal/metrics"
	ws "github.com/Priya8975/life-event-share/internal/websocket"
)

// Retry delays by attempt number. The last entry is reused past the end.
var retryDelays = []time.Duration{
	time.Second,
	5 * time.Second,
	30 * time.Second,
	2 * time.Minute,
	10 * time.Minute,
}

const throttleDelay = time.Second

type Enricher interface {
	Enrich(ctx context.Context, req enrichment.Request) (domain.Payload, error)
}

// Publisher writes one message body to a named acquirer queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

type Broadcaster interface {
	Broadcast(event ws.LiveEvent)
}

// Deliverer enriches a push job and publishes it to the acquirer's queue.
// Failed publishes go back on the delivery queue with a delay until the job
// runs out of attempts.
type Deliverer struct {
	redisClient    *redis.Client
	enricher       Enricher
	publisher      Publisher
	circuitBreaker *engine.CircuitBreaker
	rateLimiter    *engine.RateLimiter
	rateLimit      int
	hub            Broadcaster
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
}

type DelivererOption func(*Deliverer)

func WithCircuitBreaker(cb *engine.CircuitBreaker) DelivererOption {
	return func(d *Deliverer) { d.circuitBreaker = cb }
}

// WithRateLimit caps publishes per queue per second.
func WithRateLimit(rl *engine.RateLimiter, perSecond int) DelivererOption {
	return func(d *Deliverer) {
		d.rateLimiter = rl
		d.rateLimit = perSecond
	}
}

func WithBroadcaster(b Broadcaster) DelivererOption {
	return func(d *Deliverer) { d.hub = b }
}

func WithMetrics(m *metrics.Metrics) DelivererOption {
	return func(d *Deliverer) { d.metrics = m }
}

func NewDeliverer(redisClient *redis.Client, enricher Enricher, publisher Publisher, logger *slog.Logger, opts ...DelivererOption) *Deliverer {
	d := &Deliverer{
		redisClient: redisClient,
		enricher:    enricher,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func queueBreakerKey(queueName string) string {
	return "queue:" + queueName
}

func (d *Deliverer) Deliver(ctx context.Context, job engine.DeliveryJob) {
	if d.rateLimiter != nil && !d.rateLimiter.Allow(ctx, job.QueueName, d.rateLimit) {
		d.requeue(ctx, job, throttleDelay)
		d.metrics.IncPushDelivery("throttled")
		return
	}

	if d.circuitBreaker != nil {
		if _, ok := d.circuitBreaker.AllowRequest(ctx, queueBreakerKey(job.QueueName)); !ok {
			d.requeue(ctx, job, retryDelay(job.Attempt))
			d.metrics.IncPushDelivery("circuit_open")
			return
		}
	}

	body, err := d.buildMessage(ctx, job)
	if err != nil {
		d.retryOrFail(ctx, job, err)
		return
	}

	if err := d.publisher.Publish(ctx, job.QueueName, body); err != nil {
		if d.circuitBreaker != nil {
			d.circuitBreaker.RecordFailure(ctx, queueBreakerKey(job.QueueName))
		}
		d.retryOrFail(ctx, job, err)
		return
	}

	if d.circuitBreaker != nil {
		d.circuitBreaker.RecordSuccess(ctx, queueBreakerKey(job.QueueName))
	}
	d.metrics.IncPushDelivery("published")
	d.broadcast(ws.PushPublished, job, "")
	d.logger.Info("push delivery published",
		"event_id", job.EventID,
		"subscription_id", job.SubscriptionID,
		"queue", job.QueueName,
		"attempt", job.Attempt,
	)
}

// buildMessage enriches the job into the acquirer-facing notification. Data
// problems that retrying cannot fix are delivered without data.
func (d *Deliverer) buildMessage(ctx context.Context, job engine.DeliveryJob) ([]byte, error) {
	payload, err := d.enricher.Enrich(ctx, enrichment.Request{
		EventType:  job.EventType,
		DataID:     job.DataID,
		DatasetID:  job.DatasetID,
		RawPayload: job.RawPayload,
		Fields:     job.Fields,
	})
	switch {
	case err == nil:
	case domain.IsRetryable(err):
		return nil, err
	default:
		d.logger.Warn("publishing push delivery without data",
			"event_id", job.EventID,
			"subscription_id", job.SubscriptionID,
			"error", err,
		)
		payload = nil
	}

	included := payload != nil
	msg := domain.EventNotification{
		EventID:          job.EventID,
		EventType:        job.EventType,
		SourceID:         job.DataID,
		DataIncluded:     &included,
		EnrichmentFields: job.Fields,
		EventData:        payload,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding push message: %w", err)
	}
	return body, nil
}

func (d *Deliverer) retryOrFail(ctx context.Context, job engine.DeliveryJob, cause error) {
	if job.Attempt >= job.MaxRetries {
		d.metrics.IncPushDelivery("failed")
		d.broadcast(ws.PushFailed, job, cause.Error())
		d.logger.Error("push delivery exhausted retries",
			"event_id", job.EventID,
			"subscription_id", job.SubscriptionID,
			"queue", job.QueueName,
			"attempts", job.Attempt,
			"error", cause,
		)
		return
	}

	delay := retryDelay(job.Attempt)
	job.Attempt++
	d.requeue(ctx, job, delay)
	d.metrics.IncPushDelivery("retried")
	d.broadcast(ws.PushRetrying, job, cause.Error())
	d.logger.Warn("push delivery failed, retrying",
		"event_id", job.EventID,
		"subscription_id", job.SubscriptionID,
		"queue", job.QueueName,
		"next_attempt", job.Attempt,
		"delay", delay,
		"error", cause,
	)
}

// requeue puts the job back on the delivery queue, ready after delay. It uses
// a fresh context so jobs are not lost when shutdown cancels ctx.
func (d *Deliverer) requeue(ctx context.Context, job engine.DeliveryJob, delay time.Duration) {
	data, err := json.Marshal(job)
	if err != nil {
		d.logger.Error("failed to marshal job", "event_id", job.EventID, "error", err)
		return
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err = d.redisClient.ZAdd(wctx, engine.DeliveryQueueKey, redis.Z{
		Score:  float64(d.now().Add(delay).UnixMicro()),
		Member: string(data),
	}).Err()
	if err != nil {
		d.logger.Error("failed to requeue push delivery", "event_id", job.EventID, "error", err)
	}
}

func (d *Deliverer) broadcast(kind string, job engine.DeliveryJob, errMsg string) {
	if d.hub == nil {
		return
	}
	d.hub.Broadcast(ws.LiveEvent{
		Type:           kind,
		EventID:        job.EventID,
		SubscriptionID: job.SubscriptionID,
		EventType:      string(job.EventType),
		QueueName:      job.QueueName,
		Attempt:        job.Attempt,
		Error:          errMsg,
		Timestamp:      d.now(),
	})
}

func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(retryDelays) {
		return retryDelays[len(retryDelays)-1]
	}
	return retryDelays[attempt-1]
}
