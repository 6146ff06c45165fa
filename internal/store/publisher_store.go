package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) CreatePublisher(ctx context.Context, p *domain.Publisher) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO publishers (id, name, when_created) VALUES ($1, $2, $3)
	`, p.ID, p.Name, p.WhenCreated)
	if err != nil {
		return fmt.Errorf("inserting publisher: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPublisher(ctx context.Context, id string) (*domain.Publisher, error) {
	var p domain.Publisher
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, when_created FROM publishers WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.WhenCreated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying publisher: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) ListPublishers(ctx context.Context) ([]domain.Publisher, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, when_created FROM publishers ORDER BY when_created
	`)
	if err != nil {
		return nil, fmt.Errorf("querying publishers: %w", err)
	}
	defer rows.Close()

	publishers := []domain.Publisher{}
	for rows.Next() {
		var p domain.Publisher
		if err := rows.Scan(&p.ID, &p.Name, &p.WhenCreated); err != nil {
			return nil, fmt.Errorf("scanning publisher: %w", err)
		}
		publishers = append(publishers, p)
	}
	return publishers, rows.Err()
}

func (s *PostgresStore) CreatePublisherSubscription(ctx context.Context, ps *domain.PublisherSubscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO publisher_subscriptions (id, publisher_id, client_id, event_type, dataset_id, expiry_seconds, when_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ps.ID, ps.PublisherID, ps.ClientID, string(ps.EventType), ps.DatasetID,
		int64(ps.ExpiryDuration/time.Second), ps.WhenCreated)
	if err != nil {
		return fmt.Errorf("inserting publisher subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdatePublisherSubscription(ctx context.Context, ps *domain.PublisherSubscription) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE publisher_subscriptions
		SET client_id = $2, event_type = $3, dataset_id = $4, expiry_seconds = $5
		WHERE id = $1
	`, ps.ID, ps.ClientID, string(ps.EventType), ps.DatasetID, int64(ps.ExpiryDuration/time.Second))
	if err != nil {
		return fmt.Errorf("updating publisher subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPublisherSubscriptionNotFound
	}
	return nil
}

func (s *PostgresStore) GetPublisherSubscription(ctx context.Context, id string) (*domain.PublisherSubscription, error) {
	return s.queryPublisherSubscription(ctx, `WHERE id = $1`, id)
}

// FindPublisherSubscription resolves the mapping for a publisher credential
// and event type.
func (s *PostgresStore) FindPublisherSubscription(ctx context.Context, clientID string, eventType domain.EventType) (*domain.PublisherSubscription, error) {
	return s.queryPublisherSubscription(ctx, `WHERE client_id = $1 AND event_type = $2`, clientID, string(eventType))
}

func (s *PostgresStore) ListPublisherSubscriptions(ctx context.Context, publisherID string) ([]domain.PublisherSubscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, publisher_id, client_id, event_type, dataset_id, expiry_seconds, when_created
		FROM publisher_subscriptions
		WHERE publisher_id = $1
		ORDER BY when_created
	`, publisherID)
	if err != nil {
		return nil, fmt.Errorf("querying publisher subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []domain.PublisherSubscription{}
	for rows.Next() {
		ps, err := scanPublisherSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning publisher subscription: %w", err)
		}
		subs = append(subs, *ps)
	}
	return subs, rows.Err()
}

func (s *PostgresStore) queryPublisherSubscription(ctx context.Context, where string, args ...any) (*domain.PublisherSubscription, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, publisher_id, client_id, event_type, dataset_id, expiry_seconds, when_created
		FROM publisher_subscriptions `+where, args...)

	ps, err := scanPublisherSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying publisher subscription: %w", err)
	}
	return ps, nil
}

func scanPublisherSubscription(row pgx.Row) (*domain.PublisherSubscription, error) {
	var ps domain.PublisherSubscription
	var expirySeconds int64
	err := row.Scan(&ps.ID, &ps.PublisherID, &ps.ClientID, &ps.EventType, &ps.DatasetID, &expirySeconds, &ps.WhenCreated)
	if err != nil {
		return nil, err
	}
	ps.ExpiryDuration = time.Duration(expirySeconds) * time.Second
	return &ps, nil
}
