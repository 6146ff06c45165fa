package enrichment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func fullDeathRecord() Record {
	return Record{
		domain.FieldFirstName:   "Joan",
		domain.FieldLastName:    "Smith",
		domain.FieldSex:         "F",
		domain.FieldDateOfBirth: "1950-03-01",
		domain.FieldDateOfDeath: "2026-01-02",
		domain.FieldAddress:     "1 High St",
	}
}

func newTestPipeline(t *testing.T, p Provider) (*Pipeline, *metrics.Metrics) {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(domain.EventTypeDeathNotification, "", p))
	m := metrics.New(prometheus.NewRegistry())
	return NewPipeline(r, time.Second, testLogger(), WithMetrics(m)), m
}

func TestPipeline_ProjectsToRequestedFields(t *testing.T) {
	pipeline, _ := newTestPipeline(t, &stubProvider{id: "lev", record: fullDeathRecord()})

	subsets := [][]domain.EnrichmentField{
		{domain.FieldFirstName},
		{domain.FieldFirstName, domain.FieldLastName},
		{domain.FieldFirstName, domain.FieldLastName, domain.FieldSex},
		{domain.FieldAddress, domain.FieldDateOfDeath},
	}
	for _, fields := range subsets {
		payload, err := pipeline.Enrich(context.Background(), Request{
			EventType: domain.EventTypeDeathNotification,
			DataID:    "1",
			Fields:    fields,
		})
		require.NoError(t, err)
		assert.Len(t, payload, len(fields))
		for k := range payload {
			assert.Contains(t, fields, k)
		}
	}
}

func TestPipeline_MissingFieldsAreOmitted(t *testing.T) {
	pipeline, _ := newTestPipeline(t, &stubProvider{id: "lev", record: Record{domain.FieldFirstName: "Joan", domain.FieldSex: ""}})

	payload, err := pipeline.Enrich(context.Background(), Request{
		EventType: domain.EventTypeDeathNotification,
		DataID:    "1",
		Fields:    []domain.EnrichmentField{domain.FieldFirstName, domain.FieldLastName, domain.FieldSex},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Payload{domain.FieldFirstName: "Joan"}, payload)
}

func TestPipeline_NoFieldsSkipsProvider(t *testing.T) {
	stub := &stubProvider{id: "lev", record: fullDeathRecord()}
	pipeline, _ := newTestPipeline(t, stub)

	payload, err := pipeline.Enrich(context.Background(), Request{EventType: domain.EventTypeDeathNotification, DataID: "1"})
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, 0, stub.calls)
}

func TestPipeline_UnsupportedDataset(t *testing.T) {
	pipeline, m := newTestPipeline(t, &stubProvider{id: "lev", record: fullDeathRecord()})

	_, err := pipeline.Enrich(context.Background(), Request{
		EventType: domain.EventTypeDeathNotification,
		DatasetID: "UNKNOWN",
		DataID:    "1",
		Fields:    []domain.EnrichmentField{domain.FieldFirstName},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedDataset)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichmentFailures.WithLabelValues("DEATH_NOTIFICATION", "unsupported_dataset")))
}

type blockingProvider struct{}

func (blockingProvider) ID() string { return "slow" }

func (blockingProvider) Fetch(ctx context.Context, _ Request) (Record, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPipeline_TimeoutIsDistinctError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(domain.EventTypeDeathNotification, "", blockingProvider{}))
	pipeline := NewPipeline(r, 20*time.Millisecond, testLogger())

	_, err := pipeline.Enrich(context.Background(), Request{
		EventType: domain.EventTypeDeathNotification,
		DataID:    "1",
		Fields:    []domain.EnrichmentField{domain.FieldFirstName},
	})
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.True(t, IsRetryable(err))
}

type fakeBreaker struct {
	open      bool
	successes int
	failures  int
}

func (b *fakeBreaker) AllowRequest(context.Context, string) (string, bool) {
	if b.open {
		return "open", false
	}
	return "closed", true
}

func (b *fakeBreaker) RecordSuccess(context.Context, string) { b.successes++ }
func (b *fakeBreaker) RecordFailure(context.Context, string) { b.failures++ }

func TestWithCircuitBreaker(t *testing.T) {
	ctx := context.Background()

	t.Run("open circuit fails fast", func(t *testing.T) {
		stub := &stubProvider{id: "lev", record: fullDeathRecord()}
		guarded := WithCircuitBreaker(stub, &fakeBreaker{open: true})

		_, err := guarded.Fetch(ctx, Request{DataID: "1"})
		assert.ErrorIs(t, err, domain.ErrUnavailable)
		assert.Equal(t, 0, stub.calls)
	})

	t.Run("retryable failures are recorded", func(t *testing.T) {
		b := &fakeBreaker{}
		stub := &stubProvider{id: "lev", err: NewProviderError(ErrorProviderOutage, "lev", "down", nil)}
		_, err := WithCircuitBreaker(stub, b).Fetch(ctx, Request{DataID: "1"})
		require.Error(t, err)
		assert.Equal(t, 1, b.failures)
	})

	t.Run("bad data does not trip the circuit", func(t *testing.T) {
		b := &fakeBreaker{}
		stub := &stubProvider{id: "lev", err: NewProviderError(ErrorBadData, "lev", "junk", errors.New("x"))}
		_, err := WithCircuitBreaker(stub, b).Fetch(ctx, Request{DataID: "1"})
		require.Error(t, err)
		assert.Equal(t, 0, b.failures)
		assert.Equal(t, 1, b.successes)
	})

	t.Run("keeps the provider id", func(t *testing.T) {
		guarded := WithCircuitBreaker(&stubProvider{id: "lev"}, &fakeBreaker{})
		assert.Equal(t, "lev", guarded.ID())
		assert.Equal(t, "enrichment:lev", BreakerKey(guarded.ID()))
	})
}
