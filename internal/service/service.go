// Package service holds the acquirer lifecycle, poll-path delivery access and
// publisher administration operations behind the HTTP API.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/metrics"
	ws "github.com/Priya8975/life-event-share/internal/websocket"
)

type Broadcaster interface {
	Broadcast(event ws.LiveEvent)
}

// deps are the ambient collaborators every service shares.
type deps struct {
	logger  *slog.Logger
	auditor Auditor
	metrics *metrics.Metrics
	hub     Broadcaster
	now     func() time.Time

	concurrency int
}

type Option func(*deps)

func WithLogger(logger *slog.Logger) Option {
	return func(d *deps) { d.logger = logger }
}

func WithAuditor(a Auditor) Option {
	return func(d *deps) { d.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(d *deps) { d.hub = b }
}

func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithConcurrency bounds concurrent enrichment calls per list request.
func WithConcurrency(n int) Option {
	return func(d *deps) { d.concurrency = n }
}

func newDeps(opts []Option) deps {
	d := deps{
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: defaultEnrichConcurrency,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// notice records an admin action. Failures are logged and never undo the
// mutation that was noticed.
func (d *deps) notice(ctx context.Context, name string, details any) {
	if d.auditor == nil {
		return
	}
	action := domain.AdminAction{Name: name, Details: details, At: d.now()}
	if err := d.auditor.Notice(ctx, action); err != nil {
		d.logger.Warn("admin action notice failed", "action", name, "error", err)
	}
}

func (d *deps) broadcast(event ws.LiveEvent) {
	if d.hub == nil {
		return
	}
	d.hub.Broadcast(event)
}
