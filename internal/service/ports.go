package service

import (
	"context"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/enrichment"
)

type SubscriptionStore interface {
	CreateAcquirer(ctx context.Context, a *domain.Acquirer) error
	GetAcquirer(ctx context.Context, id string) (*domain.Acquirer, error)
	ListAcquirers(ctx context.Context) ([]domain.Acquirer, error)
	SoftDeleteAcquirer(ctx context.Context, id string, at time.Time) error

	CreateSubscription(ctx context.Context, sub *domain.AcquirerSubscription) error
	UpdateSubscription(ctx context.Context, sub *domain.AcquirerSubscription) error
	GetSubscription(ctx context.Context, id string) (*domain.AcquirerSubscription, error)
	ListSubscriptions(ctx context.Context) ([]domain.AcquirerSubscription, error)
	ListSubscriptionsByAcquirer(ctx context.Context, acquirerID string) ([]domain.AcquirerSubscription, error)
	ListSubscriptionsByClientID(ctx context.Context, clientID string, eventTypes []domain.EventType) ([]domain.AcquirerSubscription, error)
	ListSubscriptionsByQueueName(ctx context.Context, queueName string) ([]domain.AcquirerSubscription, error)
	SoftDeleteSubscription(ctx context.Context, id string, at time.Time) error
	DeleteEnrichmentFields(ctx context.Context, subscriptionID string) error
}

type EventStore interface {
	GetEventForClient(ctx context.Context, clientID, id string) (*domain.EventData, error)
	GetSubscriptionForEvent(ctx context.Context, eventID string) (*domain.AcquirerSubscription, error)
	ListSubscriptionsByClientID(ctx context.Context, clientID string, eventTypes []domain.EventType) ([]domain.AcquirerSubscription, error)
	ListEvents(ctx context.Context, f domain.EventFilter) ([]domain.EventData, error)
	CountEvents(ctx context.Context, f domain.EventFilter) (int, error)
	CountEventsBySubscription(ctx context.Context, f domain.EventFilter) (map[string]int, error)
	SoftDeleteEvent(ctx context.Context, id string, at time.Time) error
}

type PublisherStore interface {
	CreatePublisher(ctx context.Context, p *domain.Publisher) error
	GetPublisher(ctx context.Context, id string) (*domain.Publisher, error)
	ListPublishers(ctx context.Context) ([]domain.Publisher, error)
	CreatePublisherSubscription(ctx context.Context, ps *domain.PublisherSubscription) error
	UpdatePublisherSubscription(ctx context.Context, ps *domain.PublisherSubscription) error
	GetPublisherSubscription(ctx context.Context, id string) (*domain.PublisherSubscription, error)
	ListPublisherSubscriptions(ctx context.Context, publisherID string) ([]domain.PublisherSubscription, error)
}

// QueueAdmin manages acquirer push queues on the broker.
type QueueAdmin interface {
	CreateQueue(ctx context.Context, name string) error
	DeleteQueue(ctx context.Context, name string) error
}

// ClientAdmin manages OAuth clients at the identity provider.
type ClientAdmin interface {
	DeleteClient(ctx context.Context, clientID string) error
}

type Auditor interface {
	Notice(ctx context.Context, action domain.AdminAction) error
}

type Enricher interface {
	Enrich(ctx context.Context, req enrichment.Request) (domain.Payload, error)
}
