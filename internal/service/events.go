package service

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/enrichment"
	ws "github.com/Priya8975/life-event-share/internal/websocket"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000

	defaultEnrichConcurrency = 8
)

// EventService is the poll path: every call acts as a single OAuth client and
// only sees records owned by that client's subscriptions.
type EventService struct {
	store    EventStore
	enricher Enricher
	lookback time.Duration
	deps
}

func NewEventService(store EventStore, enricher Enricher, lookback time.Duration, opts ...Option) *EventService {
	return &EventService{
		store:    store,
		enricher: enricher,
		lookback: lookback,
		deps:     newDeps(opts),
	}
}

// GetEvent returns one record, always enriched with its subscription's fields.
func (s *EventService) GetEvent(ctx context.Context, clientID, id string) (*domain.EventNotification, error) {
	event, sub, err := s.owned(ctx, clientID, id)
	if err != nil {
		return nil, err
	}

	payload, err := s.enricher.Enrich(ctx, enrichRequest(event, sub))
	if err != nil {
		return nil, err
	}

	s.broadcast(ws.LiveEvent{
		Type:           ws.EventPolled,
		EventID:        event.ID,
		SubscriptionID: sub.ID,
		EventType:      string(sub.EventType),
		Count:          1,
	})
	return &domain.EventNotification{
		EventID:   event.ID,
		EventType: sub.EventType,
		SourceID:  event.DataID,
		EventData: payload,
	}, nil
}

// GetEvents lists the caller's live records in a time window. Payloads are
// only attached for subscriptions that include enrichment fields in polls.
func (s *EventService) GetEvents(ctx context.Context, clientID string, q domain.EventsQuery) (*domain.EventsPage, error) {
	if q.Page < 0 {
		return nil, &domain.ValidationError{Field: "page", Message: "page must not be negative"}
	}
	if q.PageSize < 0 || q.PageSize > MaxPageSize {
		return nil, &domain.ValidationError{Field: "pageSize", Message: "pageSize must be between 1 and 1000"}
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.Page > (math.MaxInt-1)/q.PageSize {
		return nil, &domain.ValidationError{Field: "page", Message: "page is out of range"}
	}
	start, end, err := s.window(q.StartTime, q.EndTime)
	if err != nil {
		return nil, err
	}

	subs, err := s.store.ListSubscriptionsByClientID(ctx, clientID, q.EventTypes)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return &domain.EventsPage{TotalCount: 0, Events: []domain.EventNotification{}}, nil
	}

	byID := make(map[string]*domain.AcquirerSubscription, len(subs))
	ids := make([]string, 0, len(subs))
	for i := range subs {
		byID[subs[i].ID] = &subs[i]
		ids = append(ids, subs[i].ID)
	}

	filter := domain.EventFilter{
		SubscriptionIDs: ids,
		Start:           start,
		End:             end,
		Limit:           q.PageSize,
		Offset:          q.Page * q.PageSize,
	}
	events, err := s.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountEvents(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]domain.EventNotification, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.concurrency, 1))
	for i := range events {
		event := events[i]
		sub := byID[event.AcquirerSubscriptionID]
		g.Go(func() error {
			item, err := s.pollItem(gctx, &event, sub)
			if err != nil {
				return err
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(items) > 0 {
		s.broadcast(ws.LiveEvent{Type: ws.EventPolled, Count: len(items)})
	}
	return &domain.EventsPage{TotalCount: total, Events: items}, nil
}

// pollItem builds one list entry. Enrichment failures a retry cannot fix drop
// the payload for this record only; retryable ones fail the whole request.
func (s *EventService) pollItem(ctx context.Context, event *domain.EventData, sub *domain.AcquirerSubscription) (domain.EventNotification, error) {
	item := domain.EventNotification{
		EventID:          event.ID,
		EventType:        sub.EventType,
		SourceID:         event.DataID,
		EnrichmentFields: sub.EnrichmentFields,
	}
	included := sub.EnrichmentFieldsIncludedInPoll
	if included {
		payload, err := s.enricher.Enrich(ctx, enrichRequest(event, sub))
		switch {
		case err == nil:
			item.EventData = payload
		case domain.IsRetryable(err) || errors.Is(err, context.Canceled):
			return item, err
		default:
			s.logger.Warn("returning event without data",
				"event_id", event.ID,
				"subscription_id", sub.ID,
				"error", err,
			)
			included = false
		}
	}
	item.DataIncluded = &included
	return item, nil
}

// DeleteEvent soft-deletes one of the caller's records and returns its
// metadata without a payload.
func (s *EventService) DeleteEvent(ctx context.Context, clientID, id string) (*domain.EventNotification, error) {
	event, sub, err := s.owned(ctx, clientID, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.SoftDeleteEvent(ctx, event.ID, now); err != nil {
		return nil, err
	}
	s.metrics.ObserveEventDeleted(string(sub.EventType), sub.ID, event.WhenCreated, now)
	s.broadcast(ws.LiveEvent{
		Type:           ws.EventDeleted,
		EventID:        event.ID,
		SubscriptionID: sub.ID,
		EventType:      string(sub.EventType),
	})
	s.logger.Info("event deleted", "event_id", event.ID, "subscription_id", sub.ID)

	included := false
	return &domain.EventNotification{
		EventID:          event.ID,
		EventType:        sub.EventType,
		SourceID:         event.DataID,
		DataIncluded:     &included,
		EnrichmentFields: sub.EnrichmentFields,
	}, nil
}

// GetEventsStatus counts the caller's live records per subscription.
func (s *EventService) GetEventsStatus(ctx context.Context, clientID string, startTime, endTime *time.Time) ([]domain.EventStatus, error) {
	start, end, err := s.window(startTime, endTime)
	if err != nil {
		return nil, err
	}

	subs, err := s.store.ListSubscriptionsByClientID(ctx, clientID, nil)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return []domain.EventStatus{}, nil
	}

	ids := make([]string, len(subs))
	for i, sub := range subs {
		ids[i] = sub.ID
	}
	counts, err := s.store.CountEventsBySubscription(ctx, domain.EventFilter{
		SubscriptionIDs: ids,
		Start:           start,
		End:             end,
	})
	if err != nil {
		return nil, err
	}

	statuses := make([]domain.EventStatus, len(subs))
	for i, sub := range subs {
		statuses[i] = domain.EventStatus{EventType: sub.EventType, Count: counts[sub.ID]}
	}
	return statuses, nil
}

func (s *EventService) owned(ctx context.Context, clientID, id string) (*domain.EventData, *domain.AcquirerSubscription, error) {
	event, err := s.store.GetEventForClient(ctx, clientID, id)
	if err != nil {
		return nil, nil, err
	}
	if event == nil {
		return nil, nil, domain.ErrEventNotFound
	}
	sub, err := s.store.GetSubscriptionForEvent(ctx, event.ID)
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, domain.ErrSubscriptionNotFound
	}
	return event, sub, nil
}

func (s *EventService) window(startTime, endTime *time.Time) (time.Time, time.Time, error) {
	now := s.now()
	end := now
	if endTime != nil {
		end = *endTime
	}
	start := now.Add(-s.lookback)
	if startTime != nil {
		start = *startTime
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, &domain.ValidationError{Field: "startTime", Message: "startTime must not be after endTime"}
	}
	return start, end, nil
}

func enrichRequest(event *domain.EventData, sub *domain.AcquirerSubscription) enrichment.Request {
	return enrichment.Request{
		EventType:  sub.EventType,
		DataID:     event.DataID,
		DatasetID:  event.DatasetID,
		RawPayload: event.DataPayload,
		Fields:     sub.EnrichmentFields,
	}
}
