package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/metrics"
	"github.com/Priya8975/life-event-share/internal/store"
)

func TestReaper_SweepRemovesExpiredRecords(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)
	expired := domain.EventData{ID: uuid.NewString(), AcquirerSubscriptionID: "sub", DataID: "1", EventTime: now, DataExpiryTime: &past, WhenCreated: now}
	fresh := domain.EventData{ID: uuid.NewString(), AcquirerSubscriptionID: "sub", DataID: "2", EventTime: now, DataExpiryTime: &future, WhenCreated: now}
	forever := domain.EventData{ID: uuid.NewString(), AcquirerSubscriptionID: "sub", DataID: "3", EventTime: now, WhenCreated: now}
	require.NoError(t, mem.CreateEvents(ctx, []domain.EventData{expired, fresh, forever}))

	m := metrics.New(prometheus.NewRegistry())
	r := NewReaper(mem, time.Minute, m, nil, discardLogger())
	r.now = func() time.Time { return now }

	assert.Equal(t, int64(1), r.Sweep(ctx))
	assert.Zero(t, r.Sweep(ctx))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsExpired))

	filter := domain.EventFilter{SubscriptionIDs: []string{"sub"}, Start: now.Add(-time.Hour), End: now.Add(time.Hour)}
	count, err := mem.CountEvents(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
