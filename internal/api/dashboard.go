package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Priya8975/life-event-share/internal/engine"
	"github.com/Priya8975/life-event-share/internal/enrichment"
	"github.com/Priya8975/life-event-share/internal/store"
)

type StatsSource interface {
	GetDashboardStats(ctx context.Context) (*store.DashboardStats, error)
}

type QueueDepther interface {
	QueueDepth(ctx context.Context) (int64, error)
}

type ClientCounter interface {
	ClientCount() int
}

type DashboardHandler struct {
	stats     StatsSource
	queue     QueueDepther
	cb        *engine.CircuitBreaker
	providers []string
	hub       ClientCounter
	logger    *slog.Logger
}

// NewDashboardHandler reports breaker state for each of providers. cb may be
// nil when breakers are disabled.
func NewDashboardHandler(stats StatsSource, queue QueueDepther, cb *engine.CircuitBreaker, providers []string, hub ClientCounter, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{stats: stats, queue: queue, cb: cb, providers: providers, hub: hub, logger: logger}
}

type providerHealth struct {
	Provider       string                     `json:"provider"`
	CircuitBreaker engine.CircuitBreakerState `json:"circuit_breaker"`
}

type dashboardResponse struct {
	store.DashboardStats
	QueueDepth       int64            `json:"queue_depth"`
	WebSocketClients int              `json:"websocket_clients"`
	Providers        []providerHealth `json:"providers"`
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.GetDashboardStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load dashboard stats", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get dashboard stats")
		return
	}

	resp := dashboardResponse{
		DashboardStats: *stats,
		Providers:      make([]providerHealth, 0, len(h.providers)),
	}
	if h.queue != nil {
		// Depth is best effort.
		if depth, err := h.queue.QueueDepth(r.Context()); err == nil {
			resp.QueueDepth = depth
		}
	}
	if h.hub != nil {
		resp.WebSocketClients = h.hub.ClientCount()
	}
	for _, id := range h.providers {
		state := engine.CircuitBreakerState{State: engine.StateClosed}
		if h.cb != nil {
			state = h.cb.GetState(r.Context(), enrichment.BreakerKey(id))
		}
		resp.Providers = append(resp.Providers, providerHealth{Provider: id, CircuitBreaker: state})
	}

	respondJSON(w, http.StatusOK, resp)
}
