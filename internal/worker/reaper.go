package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/Priya8975/life-event-share/internal/metrics"
	ws "github.com/Priya8975/life-event-share/internal/websocket"
)

type ExpiredEventDeleter interface {
	SoftDeleteExpiredEvents(ctx context.Context, now time.Time) (int64, error)
}

// Reaper soft-deletes event records whose data expiry time has passed.
type Reaper struct {
	store    ExpiredEventDeleter
	interval time.Duration
	metrics  *metrics.Metrics
	hub      Broadcaster
	logger   *slog.Logger
	now      func() time.Time
}

func NewReaper(store ExpiredEventDeleter, interval time.Duration, m *metrics.Metrics, hub Broadcaster, logger *slog.Logger) *Reaper {
	return &Reaper{
		store:    store,
		interval: interval,
		metrics:  m,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *Reaper) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("expiry sweep disabled")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass and returns the number of records removed.
func (r *Reaper) Sweep(ctx context.Context) int64 {
	n, err := r.store.SoftDeleteExpiredEvents(ctx, r.now())
	if err != nil {
		r.logger.Error("expiry sweep failed", "error", err)
		return 0
	}
	if n == 0 {
		return 0
	}

	r.metrics.AddExpired(n)
	if r.hub != nil {
		r.hub.Broadcast(ws.LiveEvent{Type: ws.EventsExpired, Count: int(n), Timestamp: r.now()})
	}
	r.logger.Info("expired events removed", "count", n)
	return n
}
