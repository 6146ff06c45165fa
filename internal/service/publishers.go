package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// PublisherService administers publishers and the mappings that turn their
// credentials and datasets into internal event types.
type PublisherService struct {
	store PublisherStore
	deps
}

func NewPublisherService(store PublisherStore, opts ...Option) *PublisherService {
	return &PublisherService{store: store, deps: newDeps(opts)}
}

func (s *PublisherService) ListPublishers(ctx context.Context) ([]domain.Publisher, error) {
	return s.store.ListPublishers(ctx)
}

func (s *PublisherService) AddPublisher(ctx context.Context, req domain.PublisherRequest) (*domain.Publisher, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := &domain.Publisher{
		ID:          uuid.NewString(),
		Name:        req.Name,
		WhenCreated: s.now(),
	}
	if err := s.store.CreatePublisher(ctx, p); err != nil {
		return nil, err
	}
	s.notice(ctx, "Add publisher", req)
	s.logger.Info("publisher created", "publisher_id", p.ID)
	return p, nil
}

func (s *PublisherService) ListPublisherSubscriptions(ctx context.Context, publisherID string) ([]domain.PublisherSubscription, error) {
	if err := s.requirePublisher(ctx, publisherID); err != nil {
		return nil, err
	}
	return s.store.ListPublisherSubscriptions(ctx, publisherID)
}

func (s *PublisherService) AddPublisherSubscription(ctx context.Context, publisherID string, req domain.PublisherSubscriptionRequest) (*domain.PublisherSubscription, error) {
	expiry, err := req.Parse()
	if err != nil {
		return nil, err
	}
	if err := s.requirePublisher(ctx, publisherID); err != nil {
		return nil, err
	}

	ps := &domain.PublisherSubscription{
		ID:             uuid.NewString(),
		PublisherID:    publisherID,
		ClientID:       req.ClientID,
		EventType:      req.EventType,
		DatasetID:      req.DatasetID,
		ExpiryDuration: expiry,
		WhenCreated:    s.now(),
	}
	if err := s.store.CreatePublisherSubscription(ctx, ps); err != nil {
		return nil, err
	}
	s.notice(ctx, "Add publisher subscription", map[string]any{"publisher_id": publisherID, "request": req})
	s.logger.Info("publisher subscription created",
		"publisher_id", publisherID,
		"publisher_subscription_id", ps.ID,
		"event_type", ps.EventType,
	)
	return ps, nil
}

func (s *PublisherService) UpdatePublisherSubscription(ctx context.Context, publisherID, id string, req domain.PublisherSubscriptionRequest) (*domain.PublisherSubscription, error) {
	expiry, err := req.Parse()
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetPublisherSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil || existing.PublisherID != publisherID {
		return nil, domain.ErrPublisherSubscriptionNotFound
	}

	existing.ClientID = req.ClientID
	existing.EventType = req.EventType
	existing.DatasetID = req.DatasetID
	existing.ExpiryDuration = expiry
	if err := s.store.UpdatePublisherSubscription(ctx, existing); err != nil {
		return nil, err
	}
	s.notice(ctx, "Update publisher subscription", map[string]any{
		"publisher_id":              publisherID,
		"publisher_subscription_id": id,
		"request":                   req,
	})
	return existing, nil
}

func (s *PublisherService) requirePublisher(ctx context.Context, id string) error {
	p, err := s.store.GetPublisher(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrPublisherNotFound
	}
	return nil
}
