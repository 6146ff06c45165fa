package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Priya8975/life-event-share/internal/engine"
)

// Dispatcher moves due jobs from the redis delivery queue into the pool.
type Dispatcher struct {
	redisClient  *redis.Client
	pool         *Pool
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int64
	now          func() time.Time
}

func NewDispatcher(redisClient *redis.Client, pool *Pool, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		redisClient:  redisClient,
		pool:         pool,
		logger:       logger,
		pollInterval: 100 * time.Millisecond,
		batchSize:    10,
		now:          time.Now,
	}
}

// Start polls until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("dispatcher started")

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping")
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

// poll claims up to batchSize due jobs. A job is claimed by whichever replica
// removes it from the set first.
func (d *Dispatcher) poll(ctx context.Context) int {
	results, err := d.redisClient.ZRangeByScore(ctx, engine.DeliveryQueueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(d.now().UnixMicro(), 10),
		Count: d.batchSize,
	}).Result()
	if err != nil {
		d.logger.Error("failed to poll delivery queue", "error", err)
		return 0
	}

	dispatched := 0
	for _, member := range results {
		removed, err := d.redisClient.ZRem(ctx, engine.DeliveryQueueKey, member).Result()
		if err != nil {
			d.logger.Error("failed to claim job", "error", err)
			continue
		}
		if removed == 0 {
			continue
		}

		var job engine.DeliveryJob
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			d.logger.Error("dropping malformed job", "error", err)
			continue
		}

		if !d.pool.Submit(ctx, job) {
			d.restore(member)
			return dispatched
		}
		dispatched++
	}
	return dispatched
}

// restore puts a claimed job back when shutdown interrupts the hand-off.
func (d *Dispatcher) restore(member string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := d.redisClient.ZAdd(ctx, engine.DeliveryQueueKey, redis.Z{
		Score:  float64(d.now().UnixMicro()),
		Member: member,
	}).Err()
	if err != nil {
		d.logger.Error("failed to restore job", "error", err)
	}
}
