package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// MemoryStore is an in-process store with the same liveness semantics as
// PostgresStore. It backs tests and the memory store driver.
type MemoryStore struct {
	mu                     sync.RWMutex
	acquirers              map[string]domain.Acquirer
	subscriptions          map[string]domain.AcquirerSubscription
	fields                 map[string][]domain.EnrichmentField
	events                 map[string]domain.EventData
	publishers             map[string]domain.Publisher
	publisherSubscriptions map[string]domain.PublisherSubscription
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		acquirers:              make(map[string]domain.Acquirer),
		subscriptions:          make(map[string]domain.AcquirerSubscription),
		fields:                 make(map[string][]domain.EnrichmentField),
		events:                 make(map[string]domain.EventData),
		publishers:             make(map[string]domain.Publisher),
		publisherSubscriptions: make(map[string]domain.PublisherSubscription),
	}
}

func (m *MemoryStore) CreateAcquirer(_ context.Context, a *domain.Acquirer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquirers[a.ID] = *a
	return nil
}

func (m *MemoryStore) GetAcquirer(_ context.Context, id string) (*domain.Acquirer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.acquirers[id]
	if !ok || a.WhenDeleted != nil {
		return nil, nil
	}
	return &a, nil
}

func (m *MemoryStore) ListAcquirers(_ context.Context) ([]domain.Acquirer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acquirers := []domain.Acquirer{}
	for _, a := range m.acquirers {
		if a.WhenDeleted == nil {
			acquirers = append(acquirers, a)
		}
	}
	sort.Slice(acquirers, func(i, j int) bool { return acquirers[i].WhenCreated.Before(acquirers[j].WhenCreated) })
	return acquirers, nil
}

func (m *MemoryStore) SoftDeleteAcquirer(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.acquirers[id]; ok && a.WhenDeleted == nil {
		a.WhenDeleted = &at
		m.acquirers[id] = a
	}
	return nil
}

func (m *MemoryStore) CreateSubscription(_ context.Context, sub *domain.AcquirerSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *sub
	stored.EnrichmentFields = nil
	m.subscriptions[sub.ID] = stored
	m.fields[sub.ID] = slices.Clone(sub.EnrichmentFields)
	return nil
}

func (m *MemoryStore) UpdateSubscription(_ context.Context, sub *domain.AcquirerSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.subscriptions[sub.ID]
	if !ok || existing.WhenDeleted != nil {
		return domain.ErrSubscriptionNotFound
	}
	existing.EventType = sub.EventType
	existing.OAuthClientID = sub.OAuthClientID
	existing.QueueName = sub.QueueName
	existing.EnrichmentFieldsIncludedInPoll = sub.EnrichmentFieldsIncludedInPoll
	m.subscriptions[sub.ID] = existing
	m.fields[sub.ID] = slices.Clone(sub.EnrichmentFields)
	return nil
}

func (m *MemoryStore) GetSubscription(_ context.Context, id string) (*domain.AcquirerSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subscriptions[id]
	if !ok || sub.WhenDeleted != nil {
		return nil, nil
	}
	return m.withFields(sub), nil
}

func (m *MemoryStore) GetSubscriptionForEvent(_ context.Context, eventID string) (*domain.AcquirerSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, nil
	}
	sub, ok := m.subscriptions[e.AcquirerSubscriptionID]
	if !ok || sub.WhenDeleted != nil {
		return nil, nil
	}
	return m.withFields(sub), nil
}

func (m *MemoryStore) ListSubscriptions(_ context.Context) ([]domain.AcquirerSubscription, error) {
	return m.filterSubscriptions(func(domain.AcquirerSubscription) bool { return true }), nil
}

func (m *MemoryStore) ListSubscriptionsByAcquirer(_ context.Context, acquirerID string) ([]domain.AcquirerSubscription, error) {
	return m.filterSubscriptions(func(s domain.AcquirerSubscription) bool {
		return s.AcquirerID == acquirerID
	}), nil
}

func (m *MemoryStore) ListSubscriptionsByEventType(_ context.Context, eventType domain.EventType) ([]domain.AcquirerSubscription, error) {
	return m.filterSubscriptions(func(s domain.AcquirerSubscription) bool {
		if s.EventType != eventType {
			return false
		}
		a, ok := m.acquirers[s.AcquirerID]
		return ok && a.WhenDeleted == nil
	}), nil
}

func (m *MemoryStore) ListSubscriptionsByClientID(_ context.Context, clientID string, eventTypes []domain.EventType) ([]domain.AcquirerSubscription, error) {
	return m.filterSubscriptions(func(s domain.AcquirerSubscription) bool {
		if s.OAuthClientID == nil || *s.OAuthClientID != clientID {
			return false
		}
		if a, ok := m.acquirers[s.AcquirerID]; !ok || a.WhenDeleted != nil {
			return false
		}
		return len(eventTypes) == 0 || slices.Contains(eventTypes, s.EventType)
	}), nil
}

func (m *MemoryStore) ListSubscriptionsByQueueName(_ context.Context, queueName string) ([]domain.AcquirerSubscription, error) {
	return m.filterSubscriptions(func(s domain.AcquirerSubscription) bool {
		return s.QueueName != nil && *s.QueueName == queueName
	}), nil
}

func (m *MemoryStore) SoftDeleteSubscription(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subscriptions[id]; ok && s.WhenDeleted == nil {
		s.WhenDeleted = &at
		m.subscriptions[id] = s
	}
	return nil
}

func (m *MemoryStore) DeleteEnrichmentFields(_ context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fields, subscriptionID)
	return nil
}

// filterSubscriptions returns live subscriptions matching keep, oldest first.
func (m *MemoryStore) filterSubscriptions(keep func(domain.AcquirerSubscription) bool) []domain.AcquirerSubscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subs := []domain.AcquirerSubscription{}
	for _, s := range m.subscriptions {
		if s.WhenDeleted == nil && keep(s) {
			subs = append(subs, *m.withFields(s))
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].WhenCreated.Equal(subs[j].WhenCreated) {
			return subs[i].ID < subs[j].ID
		}
		return subs[i].WhenCreated.Before(subs[j].WhenCreated)
	})
	return subs
}

func (m *MemoryStore) withFields(s domain.AcquirerSubscription) *domain.AcquirerSubscription {
	s.EnrichmentFields = slices.Clone(m.fields[s.ID])
	if s.EnrichmentFields == nil {
		s.EnrichmentFields = []domain.EnrichmentField{}
	}
	return &s
}

func (m *MemoryStore) CreateEvents(_ context.Context, events []domain.EventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.events[e.ID] = e
	}
	return nil
}

func (m *MemoryStore) GetEventForClient(_ context.Context, clientID, id string) (*domain.EventData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok || e.WhenDeleted != nil {
		return nil, nil
	}
	sub, ok := m.subscriptions[e.AcquirerSubscriptionID]
	if !ok || sub.OAuthClientID == nil || *sub.OAuthClientID != clientID {
		return nil, nil
	}
	return &e, nil
}

func (m *MemoryStore) ListEvents(_ context.Context, f domain.EventFilter) ([]domain.EventData, error) {
	matched := m.matchEvents(f)
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Offset >= len(matched) {
		return []domain.EventData{}, nil
	}
	end := len(matched)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], nil
}

func (m *MemoryStore) CountEvents(_ context.Context, f domain.EventFilter) (int, error) {
	return len(m.matchEvents(f)), nil
}

func (m *MemoryStore) CountEventsBySubscription(_ context.Context, f domain.EventFilter) (map[string]int, error) {
	counts := make(map[string]int)
	for _, e := range m.matchEvents(f) {
		counts[e.AcquirerSubscriptionID]++
	}
	return counts, nil
}

func (m *MemoryStore) matchEvents(f domain.EventFilter) []domain.EventData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := []domain.EventData{}
	for _, e := range m.events {
		if e.WhenDeleted != nil || !slices.Contains(f.SubscriptionIDs, e.AcquirerSubscriptionID) {
			continue
		}
		if e.WhenCreated.Before(f.Start) || e.WhenCreated.After(f.End) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].WhenCreated.Equal(matched[j].WhenCreated) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].WhenCreated.Before(matched[j].WhenCreated)
	})
	return matched
}

func (m *MemoryStore) SoftDeleteEvent(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok || e.WhenDeleted != nil {
		return domain.ErrEventNotFound
	}
	e.WhenDeleted = &at
	m.events[id] = e
	return nil
}

func (m *MemoryStore) SoftDeleteExpiredEvents(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.events {
		if e.WhenDeleted == nil && e.DataExpiryTime != nil && !e.DataExpiryTime.After(now) {
			e.WhenDeleted = &now
			m.events[id] = e
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreatePublisher(_ context.Context, p *domain.Publisher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishers[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetPublisher(_ context.Context, id string) (*domain.Publisher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.publishers[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) ListPublishers(_ context.Context) ([]domain.Publisher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	publishers := []domain.Publisher{}
	for _, p := range m.publishers {
		publishers = append(publishers, p)
	}
	sort.Slice(publishers, func(i, j int) bool { return publishers[i].WhenCreated.Before(publishers[j].WhenCreated) })
	return publishers, nil
}

func (m *MemoryStore) CreatePublisherSubscription(_ context.Context, ps *domain.PublisherSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publisherSubscriptions[ps.ID] = *ps
	return nil
}

func (m *MemoryStore) UpdatePublisherSubscription(_ context.Context, ps *domain.PublisherSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.publisherSubscriptions[ps.ID]
	if !ok {
		return domain.ErrPublisherSubscriptionNotFound
	}
	existing.ClientID = ps.ClientID
	existing.EventType = ps.EventType
	existing.DatasetID = ps.DatasetID
	existing.ExpiryDuration = ps.ExpiryDuration
	m.publisherSubscriptions[ps.ID] = existing
	return nil
}

func (m *MemoryStore) GetPublisherSubscription(_ context.Context, id string) (*domain.PublisherSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ps, ok := m.publisherSubscriptions[id]
	if !ok {
		return nil, nil
	}
	return &ps, nil
}

func (m *MemoryStore) FindPublisherSubscription(_ context.Context, clientID string, eventType domain.EventType) (*domain.PublisherSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ps := range m.publisherSubscriptions {
		if ps.ClientID == clientID && ps.EventType == eventType {
			return &ps, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListPublisherSubscriptions(_ context.Context, publisherID string) ([]domain.PublisherSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subs := []domain.PublisherSubscription{}
	for _, ps := range m.publisherSubscriptions {
		if ps.PublisherID == publisherID {
			subs = append(subs, ps)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].WhenCreated.Before(subs[j].WhenCreated) })
	return subs, nil
}

func (m *MemoryStore) GetDashboardStats(_ context.Context) (*DashboardStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats DashboardStats
	for _, a := range m.acquirers {
		if a.WhenDeleted == nil {
			stats.LiveAcquirers++
		}
	}
	for _, s := range m.subscriptions {
		if s.WhenDeleted != nil {
			continue
		}
		stats.LiveSubscriptions++
		if s.IsPush() {
			stats.PushSubscriptions++
		}
	}
	for _, e := range m.events {
		if e.WhenDeleted == nil {
			stats.LiveEvents++
		} else {
			stats.DeletedEvents++
		}
	}
	stats.Publishers = len(m.publishers)
	return &stats, nil
}
