package engine

import (
	"github.com/Priya8975/life-event-share/internal/domain"
)

const DeliveryQueueKey = "delivery_queue"

// DeliveryJob is one push delivery of an event record to an acquirer queue.
type DeliveryJob struct {
	EventID        string                   `json:"event_id"`
	SubscriptionID string                   `json:"subscription_id"`
	QueueName      string                   `json:"queue_name"`
	EventType      domain.EventType         `json:"event_type"`
	DataID         string                   `json:"data_id"`
	DatasetID      string                   `json:"dataset_id,omitempty"`
	RawPayload     *string                  `json:"raw_payload,omitempty"`
	Fields         []domain.EnrichmentField `json:"fields"`
	Attempt        int                      `json:"attempt"`
	MaxRetries     int                      `json:"max_retries"`
}

func NewDeliveryJob(sub domain.AcquirerSubscription, record domain.EventData) DeliveryJob {
	return DeliveryJob{
		EventID:        record.ID,
		SubscriptionID: sub.ID,
		QueueName:      *sub.QueueName,
		EventType:      sub.EventType,
		DataID:         record.DataID,
		DatasetID:      record.DatasetID,
		RawPayload:     record.DataPayload,
		Fields:         sub.EnrichmentFields,
		Attempt:        1,
		MaxRetries:     5,
	}
}
