package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
	s.id, s.acquirer_id, s.event_type, s.oauth_client_id, s.queue_name,
	s.enrichment_fields_included_in_poll, s.when_created, s.when_deleted`

// CreateSubscription inserts the subscription and its enrichment field set in
// one transaction.
func (s *PostgresStore) CreateSubscription(ctx context.Context, sub *domain.AcquirerSubscription) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO acquirer_subscriptions
			(id, acquirer_id, event_type, oauth_client_id, queue_name, enrichment_fields_included_in_poll, when_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sub.ID, sub.AcquirerID, string(sub.EventType), sub.OAuthClientID, sub.QueueName,
		sub.EnrichmentFieldsIncludedInPoll, sub.WhenCreated)
	if err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}

	if err := insertEnrichmentFields(ctx, tx, sub.ID, sub.EnrichmentFields); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdateSubscription rewrites the subscription row and replaces its
// enrichment field set.
func (s *PostgresStore) UpdateSubscription(ctx context.Context, sub *domain.AcquirerSubscription) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE acquirer_subscriptions
		SET event_type = $2, oauth_client_id = $3, queue_name = $4, enrichment_fields_included_in_poll = $5
		WHERE id = $1 AND when_deleted IS NULL
	`, sub.ID, string(sub.EventType), sub.OAuthClientID, sub.QueueName, sub.EnrichmentFieldsIncludedInPoll)
	if err != nil {
		return fmt.Errorf("updating subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM acquirer_subscription_enrichment_fields WHERE acquirer_subscription_id = $1
	`, sub.ID); err != nil {
		return fmt.Errorf("clearing enrichment fields: %w", err)
	}

	if err := insertEnrichmentFields(ctx, tx, sub.ID, sub.EnrichmentFields); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertEnrichmentFields(ctx context.Context, tx pgx.Tx, subscriptionID string, fields []domain.EnrichmentField) error {
	if len(fields) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range fields {
		batch.Queue(`
			INSERT INTO acquirer_subscription_enrichment_fields (acquirer_subscription_id, enrichment_field)
			VALUES ($1, $2)
		`, subscriptionID, string(f))
	}

	br := tx.SendBatch(ctx, batch)
	for _, f := range fields {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("inserting enrichment field %s: %w", f, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing enrichment field batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSubscription(ctx context.Context, id string) (*domain.AcquirerSubscription, error) {
	subs, err := s.querySubscriptions(ctx, `
		SELECT`+subscriptionColumns+`
		FROM acquirer_subscriptions s
		WHERE s.id = $1 AND s.when_deleted IS NULL
	`, id)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

// GetSubscriptionForEvent returns the live subscription owning the event
// record, or nil if that subscription has been deleted.
func (s *PostgresStore) GetSubscriptionForEvent(ctx context.Context, eventID string) (*domain.AcquirerSubscription, error) {
	subs, err := s.querySubscriptions(ctx, `
		SELECT`+subscriptionColumns+`
		FROM acquirer_subscriptions s
		JOIN event_data e ON e.acquirer_subscription_id = s.id
		WHERE e.id = $1 AND s.when_deleted IS NULL
	`, eventID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return &subs[0], nil
}

func (s *PostgresStore) ListSubscriptions(ctx context.Context) ([]domain.AcquirerSubscription, error) {
	return s.querySubscriptions(ctx, `
		SELECT`+subscriptionColumns+`
		FROM acquirer_subscriptions s
		WHERE s.when_deleted IS NULL
		ORDER BY s.when_created
	`)
}

func (s *PostgresStore) ListSubscriptionsByAcquirer(ctx context.Context, acquirerID string) ([]domain.AcquirerSubscription, error) {
	return s.querySubscriptions(ctx, `
		SELECT`+subscriptionColumns+`
		FROM acquirer_subscriptions s
		WHERE s.acquirer_id = $1 AND s.when_deleted IS NULL
		ORDER BY s.when_created
	`, acquirerID)
}

func (s *PostgresStore) ListSubscriptionsByEventType(ctx context.Context, eventType domain.EventType) ([]domain.AcquirerSubscription, error) {
	return s.querySubscriptions(ctx, `
		SELECT`+subscriptionColumns+`
		FROM acquirer_subscriptions s
		JOIN acquirers a ON a.id = s.acquirer_id
		WHERE s.event_type = $1 AND s.when_deleted IS NULL AND a.when_deleted IS NULL
		ORDER BY s.when_created
	`, string(eventType))
}

// ListSubscriptionsByClientID returns the caller's live subscriptions under
// live acquirers, restricted to eventTypes when that is non-empty.
func (s *PostgresStore) ListSubscriptionsByClientID(ctx context.Context, clientID string, eventTypes []domain.EventType) ([]domain.AcquirerSubscription, error) {
	if len(eventTypes) == 0 {
		return s.querySubscriptions(ctx, `
			SELECT`+subscriptionColumns+`
			FROM acquirer_subscriptions s
			JOIN acquirers a ON a.id = s.acquirer_id
			WHERE s.oauth_client_id = $1 AND s.when_deleted IS NULL AND a.when_deleted IS NULL
			ORDER BY s.when_created
		`, clientID)
	}

	types := make([]string, len(eventTypes))
	for i, t := range eventTypes {
		types[i] = string(t)
	}
	return s.querySubscriptions(ctx, `
		SELECT`+subscriptionColumns+`
		FROM acquirer_subscriptions s
		JOIN acquirers a ON a.id = s.acquirer_id
		WHERE s.oauth_client_id = $1 AND s.event_type = ANY($2)
			AND s.when_deleted IS NULL AND a.when_deleted IS NULL
		ORDER BY s.when_created
	`, clientID, types)
}

func (s *PostgresStore) ListSubscriptionsByQueueName(ctx context.Context, queueName string) ([]domain.AcquirerSubscription, error) {
	return s.querySubscriptions(ctx, `
		SELECT`+subscriptionColumns+`
		FROM acquirer_subscriptions s
		WHERE s.queue_name = $1 AND s.when_deleted IS NULL
	`, queueName)
}

func (s *PostgresStore) SoftDeleteSubscription(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE acquirer_subscriptions SET when_deleted = $2
		WHERE id = $1 AND when_deleted IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteEnrichmentFields(ctx context.Context, subscriptionID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM acquirer_subscription_enrichment_fields WHERE acquirer_subscription_id = $1
	`, subscriptionID)
	if err != nil {
		return fmt.Errorf("deleting enrichment fields: %w", err)
	}
	return nil
}

func (s *PostgresStore) querySubscriptions(ctx context.Context, sql string, args ...any) ([]domain.AcquirerSubscription, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []domain.AcquirerSubscription{}
	for rows.Next() {
		var sub domain.AcquirerSubscription
		err := rows.Scan(
			&sub.ID, &sub.AcquirerID, &sub.EventType, &sub.OAuthClientID, &sub.QueueName,
			&sub.EnrichmentFieldsIncludedInPoll, &sub.WhenCreated, &sub.WhenDeleted,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscriptions: %w", err)
	}

	if err := attachEnrichmentFields(ctx, s.pool, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func attachEnrichmentFields(ctx context.Context, q querier, subs []domain.AcquirerSubscription) error {
	if len(subs) == 0 {
		return nil
	}

	ids := make([]string, len(subs))
	index := make(map[string]int, len(subs))
	for i := range subs {
		ids[i] = subs[i].ID
		index[subs[i].ID] = i
		subs[i].EnrichmentFields = []domain.EnrichmentField{}
	}

	rows, err := q.Query(ctx, `
		SELECT acquirer_subscription_id, enrichment_field
		FROM acquirer_subscription_enrichment_fields
		WHERE acquirer_subscription_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return fmt.Errorf("querying enrichment fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var subID string
		var field domain.EnrichmentField
		if err := rows.Scan(&subID, &field); err != nil {
			return fmt.Errorf("scanning enrichment field: %w", err)
		}
		if i, ok := index[subID]; ok {
			subs[i].EnrichmentFields = append(subs[i].EnrichmentFields, field)
		}
	}
	return rows.Err()
}
