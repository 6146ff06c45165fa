package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/queue"
	ws "github.com/Priya8975/life-event-share/internal/websocket"
)

// AcquirerService manages acquirers and their subscriptions, including the
// queues and OAuth clients those subscriptions share.
type AcquirerService struct {
	store   SubscriptionStore
	queues  QueueAdmin
	clients ClientAdmin
	deps
}

func NewAcquirerService(store SubscriptionStore, queues QueueAdmin, clients ClientAdmin, opts ...Option) *AcquirerService {
	return &AcquirerService{
		store:   store,
		queues:  queues,
		clients: clients,
		deps:    newDeps(opts),
	}
}

func (s *AcquirerService) ListAcquirers(ctx context.Context) ([]domain.Acquirer, error) {
	return s.store.ListAcquirers(ctx)
}

func (s *AcquirerService) GetAcquirer(ctx context.Context, id string) (*domain.Acquirer, error) {
	a, err := s.store.GetAcquirer(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrAcquirerNotFound
	}
	return a, nil
}

func (s *AcquirerService) AddAcquirer(ctx context.Context, req domain.AcquirerRequest) (*domain.Acquirer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a := &domain.Acquirer{
		ID:          uuid.NewString(),
		Name:        req.Name,
		WhenCreated: s.now(),
	}
	if err := s.store.CreateAcquirer(ctx, a); err != nil {
		return nil, err
	}

	s.notice(ctx, "Add acquirer", req)
	s.logger.Info("acquirer created", "acquirer_id", a.ID)
	return a, nil
}

// DeleteAcquirer soft-deletes the acquirer and then runs the full subscription
// delete for each of its live subscriptions in turn, so every shared queue and
// client is reference-counted on its own.
func (s *AcquirerService) DeleteAcquirer(ctx context.Context, id string) error {
	a, err := s.store.GetAcquirer(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.ErrAcquirerNotFound
	}

	subs, err := s.store.ListSubscriptionsByAcquirer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteAcquirer(ctx, id, s.now()); err != nil {
		return err
	}

	// The acquirer is already gone, so its remaining subscriptions no longer
	// count as references to a client. Release each client once.
	released := map[string]struct{}{}
	var errs []error
	for _, sub := range subs {
		if err := s.deleteSubscription(ctx, &sub, released); err != nil {
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.ID, err))
		}
	}

	s.notice(ctx, "Delete acquirer", map[string]any{"id": id})
	s.logger.Info("acquirer deleted", "acquirer_id", id, "subscriptions", len(subs))
	return errors.Join(errs...)
}

func (s *AcquirerService) ListSubscriptions(ctx context.Context) ([]domain.AcquirerSubscription, error) {
	return s.store.ListSubscriptions(ctx)
}

func (s *AcquirerService) ListAcquirerSubscriptions(ctx context.Context, acquirerID string) ([]domain.AcquirerSubscription, error) {
	if _, err := s.GetAcquirer(ctx, acquirerID); err != nil {
		return nil, err
	}
	return s.store.ListSubscriptionsByAcquirer(ctx, acquirerID)
}

// AddSubscription creates a subscription under a live acquirer. Push
// subscriptions get their queue and dead-letter queue declared first.
func (s *AcquirerService) AddSubscription(ctx context.Context, acquirerID string, req domain.SubscriptionRequest) (*domain.AcquirerSubscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.GetAcquirer(ctx, acquirerID); err != nil {
		return nil, err
	}

	sub := &domain.AcquirerSubscription{
		ID:                             uuid.NewString(),
		AcquirerID:                     acquirerID,
		EventType:                      req.EventType,
		OAuthClientID:                  nonEmpty(req.OAuthClientID),
		QueueName:                      nonEmpty(req.QueueName),
		EnrichmentFieldsIncludedInPoll: req.EnrichmentFieldsIncludedInPoll,
		EnrichmentFields:               fieldSet(req.EnrichmentFields),
		WhenCreated:                    s.now(),
	}

	if sub.IsPush() {
		if err := s.queues.CreateQueue(ctx, *sub.QueueName); err != nil {
			return nil, fmt.Errorf("creating queue %s: %w", *sub.QueueName, err)
		}
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.notice(ctx, "Add acquirer subscription", map[string]any{"acquirer_id": acquirerID, "request": req})
	s.broadcast(ws.LiveEvent{
		Type:           ws.SubscriptionAdded,
		SubscriptionID: sub.ID,
		EventType:      string(sub.EventType),
	})
	s.logger.Info("subscription created",
		"subscription_id", sub.ID,
		"acquirer_id", acquirerID,
		"event_type", sub.EventType,
		"push", sub.IsPush(),
	)
	return sub, nil
}

// UpdateSubscription replaces the subscription's settings and its whole
// enrichment field set. The subscription must belong to acquirerID.
func (s *AcquirerService) UpdateSubscription(ctx context.Context, acquirerID, subscriptionID string, req domain.SubscriptionRequest) (*domain.AcquirerSubscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.ownedSubscription(ctx, acquirerID, subscriptionID)
	if err != nil {
		return nil, err
	}

	updated := &domain.AcquirerSubscription{
		ID:                             existing.ID,
		AcquirerID:                     existing.AcquirerID,
		EventType:                      req.EventType,
		OAuthClientID:                  nonEmpty(req.OAuthClientID),
		QueueName:                      nonEmpty(req.QueueName),
		EnrichmentFieldsIncludedInPoll: req.EnrichmentFieldsIncludedInPoll,
		EnrichmentFields:               fieldSet(req.EnrichmentFields),
		WhenCreated:                    existing.WhenCreated,
	}

	if updated.IsPush() && (!existing.IsPush() || *existing.QueueName != *updated.QueueName) {
		if err := s.queues.CreateQueue(ctx, *updated.QueueName); err != nil {
			return nil, fmt.Errorf("creating queue %s: %w", *updated.QueueName, err)
		}
	}
	if err := s.store.UpdateSubscription(ctx, updated); err != nil {
		return nil, err
	}

	s.notice(ctx, "Update acquirer subscription", map[string]any{
		"acquirer_id":     acquirerID,
		"subscription_id": subscriptionID,
		"request":         req,
	})
	s.logger.Info("subscription updated", "subscription_id", subscriptionID, "fields", len(updated.EnrichmentFields))
	return updated, nil
}

func (s *AcquirerService) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	sub, err := s.store.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return domain.ErrSubscriptionNotFound
	}
	return s.deleteSubscription(ctx, sub, nil)
}

// DeleteAcquirerSubscription is DeleteSubscription scoped to one acquirer.
func (s *AcquirerService) DeleteAcquirerSubscription(ctx context.Context, acquirerID, subscriptionID string) error {
	sub, err := s.ownedSubscription(ctx, acquirerID, subscriptionID)
	if err != nil {
		return err
	}
	return s.deleteSubscription(ctx, sub, nil)
}

func (s *AcquirerService) ownedSubscription(ctx context.Context, acquirerID, subscriptionID string) (*domain.AcquirerSubscription, error) {
	sub, err := s.store.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.AcquirerID != acquirerID {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, nil
}

// deleteSubscription soft-deletes sub, drops its field rows and then releases
// any queue or OAuth client no other live subscription still uses. The
// reference count runs after the soft delete so sub never counts itself.
// Two concurrent deletes of subscriptions sharing a resource may both see a
// count of zero; the external deletes are idempotent so the second is a no-op.
// Clients already in released are skipped; a nil set releases unconditionally.
func (s *AcquirerService) deleteSubscription(ctx context.Context, sub *domain.AcquirerSubscription, released map[string]struct{}) error {
	if err := s.store.SoftDeleteSubscription(ctx, sub.ID, s.now()); err != nil {
		return err
	}
	if err := s.store.DeleteEnrichmentFields(ctx, sub.ID); err != nil {
		return err
	}

	if sub.IsPush() {
		s.releaseQueue(ctx, *sub.QueueName)
	}
	if sub.OAuthClientID != nil && *sub.OAuthClientID != "" {
		if _, done := released[*sub.OAuthClientID]; !done {
			s.releaseClient(ctx, *sub.OAuthClientID)
			if released != nil {
				released[*sub.OAuthClientID] = struct{}{}
			}
		}
	}

	s.notice(ctx, "Delete acquirer subscription", map[string]any{"id": sub.ID})
	s.broadcast(ws.LiveEvent{
		Type:           ws.SubscriptionGone,
		SubscriptionID: sub.ID,
		EventType:      string(sub.EventType),
	})
	s.logger.Info("subscription deleted", "subscription_id", sub.ID, "acquirer_id", sub.AcquirerID)
	return nil
}

func (s *AcquirerService) releaseQueue(ctx context.Context, name string) {
	others, err := s.store.ListSubscriptionsByQueueName(ctx, name)
	if err != nil {
		s.cleanupFailed("queue", name, err)
		return
	}
	if len(others) > 0 {
		s.logger.Info("queue still in use", "queue", name, "subscriptions", len(others))
		return
	}

	for _, q := range []string{name, name + queue.DeadLetterSuffix} {
		if err := s.queues.DeleteQueue(ctx, q); err != nil {
			s.cleanupFailed("queue", q, err)
		}
	}
}

func (s *AcquirerService) releaseClient(ctx context.Context, clientID string) {
	others, err := s.store.ListSubscriptionsByClientID(ctx, clientID, nil)
	if err != nil {
		s.cleanupFailed("oauth_client", clientID, err)
		return
	}
	if len(others) > 0 {
		s.logger.Info("oauth client still in use", "client_id", clientID, "subscriptions", len(others))
		return
	}

	if err := s.clients.DeleteClient(ctx, clientID); err != nil {
		s.cleanupFailed("oauth_client", clientID, err)
	}
}

func (s *AcquirerService) cleanupFailed(resource, name string, err error) {
	s.metrics.IncCascadeCleanupFailure(resource)
	s.logger.Error("shared resource cleanup failed",
		"resource", resource,
		"name", name,
		"error", err,
	)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func fieldSet(fields []domain.EnrichmentField) []domain.EnrichmentField {
	if fields == nil {
		return []domain.EnrichmentField{}
	}
	return append([]domain.EnrichmentField(nil), fields...)
}
