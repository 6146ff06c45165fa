package domain

import (
	"time"
)

// EventNotification is the acquirer-facing view of an EventData record.
type EventNotification struct {
	EventID          string            `json:"event_id"`
	EventType        EventType         `json:"event_type"`
	SourceID         string            `json:"source_id"`
	DataIncluded     *bool             `json:"data_included,omitempty"`
	EnrichmentFields []EnrichmentField `json:"enrichment_fields,omitempty"`
	EventData        Payload           `json:"event_data,omitempty"`
}

type EventsPage struct {
	TotalCount int                 `json:"total_count"`
	Events     []EventNotification `json:"events"`
}

type EventStatus struct {
	EventType EventType `json:"event_type"`
	Count     int       `json:"count"`
}

type EventsQuery struct {
	EventTypes []EventType
	StartTime  *time.Time
	EndTime    *time.Time
	Page       int
	PageSize   int
}
