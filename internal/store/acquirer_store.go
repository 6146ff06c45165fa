package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (s *PostgresStore) CreateAcquirer(ctx context.Context, a *domain.Acquirer) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO acquirers (id, name, when_created)
		VALUES ($1, $2, $3)
	`, a.ID, a.Name, a.WhenCreated)
	if err != nil {
		return fmt.Errorf("inserting acquirer: %w", err)
	}
	return nil
}

// GetAcquirer returns the live acquirer with id, or nil if there is none.
func (s *PostgresStore) GetAcquirer(ctx context.Context, id string) (*domain.Acquirer, error) {
	var a domain.Acquirer
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, when_created, when_deleted
		FROM acquirers WHERE id = $1 AND when_deleted IS NULL
	`, id).Scan(&a.ID, &a.Name, &a.WhenCreated, &a.WhenDeleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying acquirer: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListAcquirers(ctx context.Context) ([]domain.Acquirer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, when_created, when_deleted
		FROM acquirers
		WHERE when_deleted IS NULL
		ORDER BY when_created
	`)
	if err != nil {
		return nil, fmt.Errorf("querying acquirers: %w", err)
	}
	defer rows.Close()

	acquirers := []domain.Acquirer{}
	for rows.Next() {
		var a domain.Acquirer
		if err := rows.Scan(&a.ID, &a.Name, &a.WhenCreated, &a.WhenDeleted); err != nil {
			return nil, fmt.Errorf("scanning acquirer: %w", err)
		}
		acquirers = append(acquirers, a)
	}
	return acquirers, rows.Err()
}

func (s *PostgresStore) SoftDeleteAcquirer(ctx context.Context, id string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE acquirers SET when_deleted = $2
		WHERE id = $1 AND when_deleted IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("deleting acquirer: %w", err)
	}
	return nil
}
