package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/engine"
	"github.com/Priya8975/life-event-share/internal/enrichment"
	"github.com/Priya8975/life-event-share/internal/metrics"
	"github.com/Priya8975/life-event-share/internal/service/mocks"
	"github.com/Priya8975/life-event-share/internal/store"
)

type recordProvider struct {
	err error
}

func (p *recordProvider) ID() string { return "lev" }

func (p *recordProvider) Fetch(_ context.Context, req enrichment.Request) (enrichment.Record, error) {
	if p.err != nil {
		return nil, p.err
	}
	return enrichment.Record{
		domain.FieldFirstName:   "Joan",
		domain.FieldLastName:    "Smith",
		domain.FieldSex:         "F",
		domain.FieldDateOfDeath: "2026-01-02",
		domain.FieldAddress:     "1 High St",
	}, nil
}

type eventsFixture struct {
	mem      *store.MemoryStore
	router   *engine.Router
	provider *recordProvider
	metrics  *metrics.Metrics
	service  *EventService
}

func newEventsFixture(t *testing.T) *eventsFixture {
	t.Helper()
	f := &eventsFixture{
		mem:      store.NewMemory(),
		provider: &recordProvider{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	registry := enrichment.NewRegistry()
	require.NoError(t, registry.Register(domain.EventTypeDeathNotification, "", f.provider))
	pipeline := enrichment.NewPipeline(registry, time.Second, discardLogger())

	f.router = engine.NewRouter(f.mem, f.mem, discardLogger())
	f.service = NewEventService(f.mem, pipeline, 24*time.Hour,
		WithLogger(discardLogger()),
		WithMetrics(f.metrics),
	)
	return f
}

func (f *eventsFixture) subscribe(t *testing.T, clientID string, inPoll bool, fields ...domain.EnrichmentField) domain.AcquirerSubscription {
	t.Helper()
	ctx := context.Background()
	acq := &domain.Acquirer{ID: uuid.NewString(), Name: clientID, WhenCreated: time.Now()}
	require.NoError(t, f.mem.CreateAcquirer(ctx, acq))
	sub := &domain.AcquirerSubscription{
		ID:                             uuid.NewString(),
		AcquirerID:                     acq.ID,
		EventType:                      domain.EventTypeDeathNotification,
		OAuthClientID:                  strPtr(clientID),
		EnrichmentFieldsIncludedInPoll: inPoll,
		EnrichmentFields:               fields,
		WhenCreated:                    time.Now(),
	}
	require.NoError(t, f.mem.CreateSubscription(ctx, sub))
	return *sub
}

func (f *eventsFixture) ingest(t *testing.T, dataID string) []domain.EventData {
	t.Helper()
	return f.ingestDataset(t, dataID, "")
}

func (f *eventsFixture) ingestDataset(t *testing.T, dataID, datasetID string) []domain.EventData {
	t.Helper()
	records, err := f.router.Ingest(context.Background(), domain.Notification{
		EventType:       domain.EventTypeDeathNotification,
		EventTime:       time.Now().Add(-time.Hour),
		SourcePublisher: "hmpo",
		DataID:          dataID,
		DatasetID:       datasetID,
	})
	require.NoError(t, err)
	return records
}

func recordFor(records []domain.EventData, subscriptionID string) domain.EventData {
	for _, r := range records {
		if r.AcquirerSubscriptionID == subscriptionID {
			return r
		}
	}
	return domain.EventData{}
}

func TestGetEvents_EachAcquirerSeesOnlyItsFields(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", true, domain.FieldFirstName, domain.FieldLastName)
	f.subscribe(t, "client-b", true, domain.FieldFirstName, domain.FieldLastName, domain.FieldSex)

	records := f.ingest(t, "D1")
	require.Len(t, records, 2)

	pageA, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, pageA.TotalCount)
	require.Len(t, pageA.Events, 1)
	assert.Equal(t, "D1", pageA.Events[0].SourceID)
	assert.Equal(t, domain.Payload{
		domain.FieldFirstName: "Joan",
		domain.FieldLastName:  "Smith",
	}, pageA.Events[0].EventData)

	pageB, err := f.service.GetEvents(context.Background(), "client-b", domain.EventsQuery{})
	require.NoError(t, err)
	require.Len(t, pageB.Events, 1)
	assert.Equal(t, domain.Payload{
		domain.FieldFirstName: "Joan",
		domain.FieldLastName:  "Smith",
		domain.FieldSex:       "F",
	}, pageB.Events[0].EventData)
}

func TestGetEvents_PayloadOnlyWhenIncludedInPoll(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", false, domain.FieldFirstName)
	f.ingest(t, "D1")

	page, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Events, 1)

	item := page.Events[0]
	assert.Nil(t, item.EventData)
	require.NotNil(t, item.DataIncluded)
	assert.False(t, *item.DataIncluded)
	assert.Equal(t, []domain.EnrichmentField{domain.FieldFirstName}, item.EnrichmentFields)
}

func TestGetEvents_NoSubscriptions(t *testing.T) {
	f := newEventsFixture(t)

	page, err := f.service.GetEvents(context.Background(), "nobody", domain.EventsQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
	assert.Empty(t, page.Events)
	assert.NotNil(t, page.Events)
}

func TestGetEvents_FiltersByEventType(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", false)
	f.ingest(t, "D1")

	page, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{
		EventTypes: []domain.EventType{domain.EventTypeEnteredPrison},
	})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
}

func TestGetEvents_Pagination(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", false)
	for _, id := range []string{"D1", "D2", "D3"} {
		f.ingest(t, id)
	}

	first, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{Page: 0, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalCount)
	assert.Len(t, first.Events, 2)

	second, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, second.TotalCount)
	assert.Len(t, second.Events, 1)
}

func TestGetEvents_TimeWindow(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", false)
	f.ingest(t, "D1")

	future := time.Now().Add(time.Hour)
	page, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{StartTime: &future})
	require.Error(t, err)
	assert.Nil(t, page)

	end := time.Now().Add(2 * time.Hour)
	page, err = f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{StartTime: &future, EndTime: &end})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
}

func TestGetEvents_RejectsBadPaging(t *testing.T) {
	f := newEventsFixture(t)
	for _, q := range []domain.EventsQuery{{Page: -1}, {PageSize: -1}, {PageSize: MaxPageSize + 1}} {
		_, err := f.service.GetEvents(context.Background(), "client-a", q)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	}
}

func TestGetEvents_RejectsPageBeyondAddressableOffset(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", true, domain.FieldFirstName)
	f.ingest(t, "D1")

	_, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{Page: math.MaxInt / 2, PageSize: 4})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "page", verr.Field)

	page, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{Page: 1000, PageSize: 4})
	require.NoError(t, err)
	assert.Empty(t, page.Events)
	assert.Equal(t, 1, page.TotalCount)
}

func TestGetEvents_HidesSubscriptionsOfDeletedAcquirer(t *testing.T) {
	f := newEventsFixture(t)
	sub := f.subscribe(t, "client-a", true, domain.FieldFirstName)
	f.ingest(t, "D1")

	require.NoError(t, f.mem.SoftDeleteAcquirer(context.Background(), sub.AcquirerID, time.Now()))

	page, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Events)
	assert.Zero(t, page.TotalCount)

	statuses, err := f.service.GetEventsStatus(context.Background(), "client-a", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestGetEvents_UnsupportedDatasetDegradesRecord(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", true, domain.FieldFirstName)
	f.ingest(t, "D1")
	f.ingestDataset(t, "D2", "UNKNOWN_DATASET")

	page, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)

	bySource := map[string]domain.EventNotification{}
	for _, e := range page.Events {
		bySource[e.SourceID] = e
	}
	assert.True(t, *bySource["D1"].DataIncluded)
	assert.Equal(t, "Joan", bySource["D1"].EventData[domain.FieldFirstName])
	assert.False(t, *bySource["D2"].DataIncluded)
	assert.Nil(t, bySource["D2"].EventData)
}

func TestGetEvents_RetryableEnrichmentFailureFailsRequest(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", true, domain.FieldFirstName)
	f.ingest(t, "D1")
	f.provider.err = enrichment.NewProviderError(enrichment.ErrorProviderOutage, "lev", "503 from upstream", nil)

	_, err := f.service.GetEvents(context.Background(), "client-a", domain.EventsQuery{})
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestGetEvent(t *testing.T) {
	f := newEventsFixture(t)
	sub := f.subscribe(t, "client-a", false, domain.FieldFirstName, domain.FieldSex)
	f.subscribe(t, "client-b", false)
	record := recordFor(f.ingest(t, "D1"), sub.ID)

	t.Run("always enriched", func(t *testing.T) {
		item, err := f.service.GetEvent(context.Background(), "client-a", record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, item.EventID)
		assert.Nil(t, item.DataIncluded)
		assert.Nil(t, item.EnrichmentFields)
		assert.Equal(t, domain.Payload{domain.FieldFirstName: "Joan", domain.FieldSex: "F"}, item.EventData)
	})

	t.Run("other client cannot see it", func(t *testing.T) {
		_, err := f.service.GetEvent(context.Background(), "client-b", record.ID)
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.service.GetEvent(context.Background(), "client-a", uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrEventNotFound)
	})

	t.Run("unsupported dataset surfaces", func(t *testing.T) {
		odd := recordFor(f.ingestDataset(t, "D9", "UNKNOWN_DATASET"), sub.ID)
		_, err := f.service.GetEvent(context.Background(), "client-a", odd.ID)
		assert.ErrorIs(t, err, domain.ErrUnsupportedDataset)
	})

	t.Run("subscription removed", func(t *testing.T) {
		require.NoError(t, f.mem.SoftDeleteSubscription(context.Background(), sub.ID, time.Now()))
		_, err := f.service.GetEvent(context.Background(), "client-a", record.ID)
		assert.ErrorIs(t, err, domain.ErrSubscriptionNotFound)
	})
}

func TestDeleteEvent(t *testing.T) {
	f := newEventsFixture(t)
	sub := f.subscribe(t, "client-a", true, domain.FieldFirstName)
	record := recordFor(f.ingest(t, "D1"), sub.ID)
	ctx := context.Background()

	item, err := f.service.DeleteEvent(ctx, "client-a", record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, item.EventID)
	assert.Nil(t, item.EventData)
	require.NotNil(t, item.DataIncluded)
	assert.False(t, *item.DataIncluded)
	assert.Equal(t, []domain.EnrichmentField{domain.FieldFirstName}, item.EnrichmentFields)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		f.metrics.EventsDeleted.WithLabelValues(string(domain.EventTypeDeathNotification), sub.ID)))

	_, err = f.service.GetEvent(ctx, "client-a", record.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)

	page, err := f.service.GetEvents(ctx, "client-a", domain.EventsQuery{})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)

	statuses, err := f.service.GetEventsStatus(ctx, "client-a", nil, nil)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Zero(t, statuses[0].Count)

	_, err = f.service.DeleteEvent(ctx, "client-a", record.ID)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestGetEventsStatus(t *testing.T) {
	f := newEventsFixture(t)
	f.subscribe(t, "client-a", false)
	f.subscribe(t, "client-a", false)
	f.ingest(t, "D1")
	f.ingest(t, "D2")

	statuses, err := f.service.GetEventsStatus(context.Background(), "client-a", nil, nil)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, domain.EventTypeDeathNotification, s.EventType)
		assert.Equal(t, 2, s.Count)
	}

	none, err := f.service.GetEventsStatus(context.Background(), "nobody", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetEventsStatus_DoesNotEnrich(t *testing.T) {
	ctrl := gomock.NewController(t)
	enricher := mocks.NewMockEnricher(ctrl)
	enricher.EXPECT().Enrich(gomock.Any(), gomock.Any()).Times(0)

	f := newEventsFixture(t)
	f.subscribe(t, "client-a", true, domain.FieldFirstName)
	f.ingest(t, "D1")
	svc := NewEventService(f.mem, enricher, 24*time.Hour, WithLogger(discardLogger()))

	statuses, err := svc.GetEventsStatus(context.Background(), "client-a", nil, nil)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, 1, statuses[0].Count)
}
