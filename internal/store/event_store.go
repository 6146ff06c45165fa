package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/jackc/pgx/v5"
)

const eventColumns = `
	e.id, e.acquirer_subscription_id, e.data_id, e.dataset_id, e.data_payload,
	e.event_time, e.data_expiry_time, e.when_created, e.when_deleted`

// CreateEvents persists one fan-out batch. Either every record is written or
// none is.
func (s *PostgresStore) CreateEvents(ctx context.Context, events []domain.EventData) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO event_data
				(id, acquirer_subscription_id, data_id, dataset_id, data_payload, event_time, data_expiry_time, when_created)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, e.ID, e.AcquirerSubscriptionID, e.DataID, e.DatasetID, e.DataPayload, e.EventTime, e.DataExpiryTime, e.WhenCreated)
	}

	br := tx.SendBatch(ctx, batch)
	for _, e := range events {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("inserting event %s: %w", e.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing event batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetEventForClient returns the live record with id if it belongs to a
// subscription registered under clientID. The subscription itself may have
// been deleted since.
func (s *PostgresStore) GetEventForClient(ctx context.Context, clientID, id string) (*domain.EventData, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+eventColumns+`
		FROM event_data e
		JOIN acquirer_subscriptions s ON s.id = e.acquirer_subscription_id
		WHERE e.id = $1 AND s.oauth_client_id = $2 AND e.when_deleted IS NULL
	`, id, clientID)

	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying event: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, f domain.EventFilter) ([]domain.EventData, error) {
	if len(f.SubscriptionIDs) == 0 {
		return []domain.EventData{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT`+eventColumns+`
		FROM event_data e
		WHERE e.acquirer_subscription_id = ANY($1)
		  AND e.when_created >= $2 AND e.when_created <= $3
		  AND e.when_deleted IS NULL
		ORDER BY e.when_created, e.id
		LIMIT $4 OFFSET $5
	`, f.SubscriptionIDs, f.Start, f.End, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := []domain.EventData{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// CountEvents counts the records ListEvents would page over, ignoring
// Limit and Offset.
func (s *PostgresStore) CountEvents(ctx context.Context, f domain.EventFilter) (int, error) {
	if len(f.SubscriptionIDs) == 0 {
		return 0, nil
	}

	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM event_data e
		WHERE e.acquirer_subscription_id = ANY($1)
		  AND e.when_created >= $2 AND e.when_created <= $3
		  AND e.when_deleted IS NULL
	`, f.SubscriptionIDs, f.Start, f.End).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}

// CountEventsBySubscription returns live record counts keyed by subscription id.
// Subscriptions without records are absent from the map.
func (s *PostgresStore) CountEventsBySubscription(ctx context.Context, f domain.EventFilter) (map[string]int, error) {
	counts := make(map[string]int)
	if len(f.SubscriptionIDs) == 0 {
		return counts, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT e.acquirer_subscription_id, COUNT(*)
		FROM event_data e
		WHERE e.acquirer_subscription_id = ANY($1)
		  AND e.when_created >= $2 AND e.when_created <= $3
		  AND e.when_deleted IS NULL
		GROUP BY e.acquirer_subscription_id
	`, f.SubscriptionIDs, f.Start, f.End)
	if err != nil {
		return nil, fmt.Errorf("counting events by subscription: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning event count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) SoftDeleteEvent(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE event_data SET when_deleted = $2
		WHERE id = $1 AND when_deleted IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// SoftDeleteExpiredEvents marks every live record whose expiry is at or
// before now as deleted and returns how many were marked.
func (s *PostgresStore) SoftDeleteExpiredEvents(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE event_data SET when_deleted = $1
		WHERE when_deleted IS NULL AND data_expiry_time IS NOT NULL AND data_expiry_time <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("expiring events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEvent(row pgx.Row) (*domain.EventData, error) {
	var e domain.EventData
	err := row.Scan(
		&e.ID, &e.AcquirerSubscriptionID, &e.DataID, &e.DatasetID, &e.DataPayload,
		&e.EventTime, &e.DataExpiryTime, &e.WhenCreated, &e.WhenDeleted,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
