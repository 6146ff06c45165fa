package enrichment

import (
	"context"
	"fmt"
	"sort"

	"github.com/Priya8975/life-event-share/internal/domain"
)

// Dataset identifiers carried on inbound notifications.
const (
	DatasetDeathLEV    = "DEATH_LEV"
	DatasetDeathCSV    = "DEATH_CSV"
	DatasetPassThrough = "PASS_THROUGH"
)

// Record is the full set of fields a provider knows about one data id.
type Record map[domain.EnrichmentField]any

type Request struct {
	EventType  domain.EventType
	DataID     string
	DatasetID  string
	RawPayload *string
	Fields     []domain.EnrichmentField
}

// Provider fetches the record behind a data id. A nil Record with a nil error
// means the source holds no data for it.
type Provider interface {
	ID() string
	Fetch(ctx context.Context, req Request) (Record, error)
}

type registryKey struct {
	eventType domain.EventType
	datasetID string
}

// Registry maps (event type, dataset) pairs to providers. The empty dataset is
// the event type's default.
type Registry struct {
	providers map[registryKey]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[registryKey]Provider)}
}

func (r *Registry) Register(eventType domain.EventType, datasetID string, p Provider) error {
	key := registryKey{eventType: eventType, datasetID: datasetID}
	if existing, ok := r.providers[key]; ok {
		return fmt.Errorf("%s/%q already served by provider %s", eventType, datasetID, existing.ID())
	}
	r.providers[key] = p
	return nil
}

// Lookup fails closed: a pair nobody registered is ErrUnsupportedDataset.
func (r *Registry) Lookup(eventType domain.EventType, datasetID string) (Provider, error) {
	if p, ok := r.providers[registryKey{eventType: eventType, datasetID: datasetID}]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s/%q", domain.ErrUnsupportedDataset, eventType, datasetID)
}

// ProviderIDs lists the distinct registered providers, sorted.
func (r *Registry) ProviderIDs() []string {
	seen := make(map[string]struct{})
	for _, p := range r.providers {
		seen[p.ID()] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewDefaultRegistry wires the standard dataset table around the two
// external lookup providers.
func NewDefaultRegistry(lev, prisoner Provider) (*Registry, error) {
	r := NewRegistry()
	csv := NewDelimitedProvider()
	pass := NewPassThroughProvider()

	entries := []struct {
		eventType domain.EventType
		datasetID string
		provider  Provider
	}{
		{domain.EventTypeDeathNotification, "", lev},
		{domain.EventTypeDeathNotification, DatasetDeathLEV, lev},
		{domain.EventTypeDeathNotification, DatasetDeathCSV, csv},
		{domain.EventTypeDeathNotification, DatasetPassThrough, pass},
		{domain.EventTypeEnteredPrison, "", prisoner},
		{domain.EventTypeEnteredPrison, DatasetPassThrough, pass},
		{domain.EventTypeTestEvent, "", pass},
		{domain.EventTypeTestEvent, DatasetPassThrough, pass},
	}
	for _, e := range entries {
		if err := r.Register(e.eventType, e.datasetID, e.provider); err != nil {
			return nil, err
		}
	}
	return r, nil
}
