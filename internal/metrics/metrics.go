package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks ingestion, poll-path deletes, enrichment failures, cascade
// cleanup failures and push publishing. A nil *Metrics records nothing.
type Metrics struct {
	EventsIngested             *prometheus.CounterVec
	NotificationsDropped       *prometheus.CounterVec
	EventsDeleted              *prometheus.CounterVec
	TimeFromCreationToDeletion prometheus.Histogram
	EnrichmentFailures         *prometheus.CounterVec
	EnrichmentDuration         *prometheus.HistogramVec
	CascadeCleanupFailures     *prometheus.CounterVec
	PushDeliveries             *prometheus.CounterVec
	EventsExpired              prometheus.Counter
}

// New registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "life_events_ingested_total",
			Help: "Delivery records created by fan-out, by event type",
		}, []string{"event_type"}),
		NotificationsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "life_events_notifications_dropped_total",
			Help: "Inbound notifications that matched no live subscription",
		}, []string{"event_type"}),
		EventsDeleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "life_events_deleted_total",
			Help: "Delivery records deleted by acquirers",
		}, []string{"event_type", "consumer_subscription"}),
		TimeFromCreationToDeletion: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "life_events_time_from_creation_to_deletion_seconds",
			Help:    "Time between a delivery record being created and its deletion by the acquirer",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		EnrichmentFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "life_events_enrichment_failures_total",
			Help: "Enrichment calls that failed, by event type and failure category",
		}, []string{"event_type", "category"}),
		EnrichmentDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "life_events_enrichment_duration_seconds",
			Help:    "Duration of enrichment provider calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		CascadeCleanupFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "life_events_cascade_cleanup_failures_total",
			Help: "Shared resources that could not be removed after a subscription delete",
		}, []string{"resource"}),
		PushDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "life_events_push_deliveries_total",
			Help: "Push deliveries to acquirer queues, by result",
		}, []string{"result"}),
		EventsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "life_events_expired_total",
			Help: "Delivery records soft-deleted because their data expired",
		}),
	}
}

func (m *Metrics) IncIngested(eventType string, n int) {
	if m == nil {
		return
	}
	m.EventsIngested.WithLabelValues(eventType).Add(float64(n))
}

func (m *Metrics) IncDropped(eventType string) {
	if m == nil {
		return
	}
	m.NotificationsDropped.WithLabelValues(eventType).Inc()
}

// ObserveEventDeleted records one acquirer delete and the record's age.
func (m *Metrics) ObserveEventDeleted(eventType, subscriptionID string, created, deleted time.Time) {
	if m == nil {
		return
	}
	m.EventsDeleted.WithLabelValues(eventType, subscriptionID).Inc()
	m.TimeFromCreationToDeletion.Observe(deleted.Sub(created).Seconds())
}

func (m *Metrics) IncEnrichmentFailure(eventType, category string) {
	if m == nil {
		return
	}
	m.EnrichmentFailures.WithLabelValues(eventType, category).Inc()
}

// ObserveEnrichment records a provider call duration.
// Call with time.Now() at the start of the call.
func (m *Metrics) ObserveEnrichment(provider string, start time.Time) {
	if m == nil {
		return
	}
	m.EnrichmentDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncCascadeCleanupFailure(resource string) {
	if m == nil {
		return
	}
	m.CascadeCleanupFailures.WithLabelValues(resource).Inc()
}

func (m *Metrics) IncPushDelivery(result string) {
	if m == nil {
		return
	}
	m.PushDeliveries.WithLabelValues(result).Inc()
}

func (m *Metrics) AddExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.EventsExpired.Add(float64(n))
}
