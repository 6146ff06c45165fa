package domain

import (
	"time"
)

// Notification is one inbound life event from a publisher.
type Notification struct {
	EventType       EventType `json:"event_type"`
	EventTime       time.Time `json:"event_time"`
	SourcePublisher string    `json:"source_publisher"`
	DataID          string    `json:"data_id"`
	DatasetID       string    `json:"dataset_id,omitempty"`
	RawPayload      *string   `json:"raw_payload,omitempty"`
}

func (n Notification) Validate() error {
	if !n.EventType.Valid() {
		return &ValidationError{Field: "event_type", Message: "unknown event type " + string(n.EventType)}
	}
	if n.DataID == "" {
		return &ValidationError{Field: "data_id", Message: "data_id is required"}
	}
	if n.EventTime.IsZero() {
		return &ValidationError{Field: "event_time", Message: "event_time is required"}
	}
	return nil
}

// EventData is one fan-out instance of a notification, owned by a single
// acquirer subscription.
type EventData struct {
	ID                     string     `json:"id"`
	AcquirerSubscriptionID string     `json:"acquirer_subscription_id"`
	DataID                 string     `json:"data_id"`
	DatasetID              string     `json:"dataset_id,omitempty"`
	DataPayload            *string    `json:"-"`
	EventTime              time.Time  `json:"event_time"`
	DataExpiryTime         *time.Time `json:"data_expiry_time,omitempty"`
	WhenCreated            time.Time  `json:"when_created"`
	WhenDeleted            *time.Time `json:"when_deleted,omitempty"`
}

// EventFilter selects live records for a set of subscriptions in a time window.
type EventFilter struct {
	SubscriptionIDs []string
	Start           time.Time
	End             time.Time
	Limit           int
	Offset          int
}
