package store

import (
	"context"
	"fmt"
)

// DashboardStats holds live entity counts for the dashboard.
type DashboardStats struct {
	LiveAcquirers     int `json:"live_acquirers"`
	LiveSubscriptions int `json:"live_subscriptions"`
	PushSubscriptions int `json:"push_subscriptions"`
	LiveEvents        int `json:"live_events"`
	DeletedEvents     int `json:"deleted_events"`
	Publishers        int `json:"publishers"`
}

// GetDashboardStats returns aggregated entity counts from the database.
func (s *PostgresStore) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var m DashboardStats

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM acquirers WHERE when_deleted IS NULL
	`).Scan(&m.LiveAcquirers)
	if err != nil {
		return nil, fmt.Errorf("querying acquirer count: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE queue_name IS NOT NULL)
		FROM acquirer_subscriptions
		WHERE when_deleted IS NULL
	`).Scan(&m.LiveSubscriptions, &m.PushSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("querying subscription counts: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE when_deleted IS NULL),
			COUNT(*) FILTER (WHERE when_deleted IS NOT NULL)
		FROM event_data
	`).Scan(&m.LiveEvents, &m.DeletedEvents)
	if err != nil {
		return nil, fmt.Errorf("querying event counts: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM publishers
	`).Scan(&m.Publishers)
	if err != nil {
		return nil, fmt.Errorf("querying publisher count: %w", err)
	}

	return &m, nil
}
