package domain

import "time"

// AcquirerSubscription is one acquirer's interest in one event type. Exactly
// one of OAuthClientID (poll mode) and QueueName (push mode) is set.
type AcquirerSubscription struct {
	ID                             string            `json:"id"`
	AcquirerID                     string            `json:"acquirer_id"`
	EventType                      EventType         `json:"event_type"`
	OAuthClientID                  *string           `json:"oauth_client_id,omitempty"`
	QueueName                      *string           `json:"queue_name,omitempty"`
	EnrichmentFieldsIncludedInPoll bool              `json:"enrichment_fields_included_in_poll"`
	EnrichmentFields               []EnrichmentField `json:"enrichment_fields"`
	WhenCreated                    time.Time         `json:"when_created"`
	WhenDeleted                    *time.Time        `json:"when_deleted,omitempty"`
}

func (s *AcquirerSubscription) IsPush() bool {
	return s.QueueName != nil && *s.QueueName != ""
}

func (s *AcquirerSubscription) IsLive() bool {
	return s.WhenDeleted == nil
}

type SubscriptionRequest struct {
	EventType                      EventType         `json:"event_type"`
	OAuthClientID                  *string           `json:"oauth_client_id,omitempty"`
	QueueName                      *string           `json:"queue_name,omitempty"`
	EnrichmentFieldsIncludedInPoll bool              `json:"enrichment_fields_included_in_poll"`
	EnrichmentFields               []EnrichmentField `json:"enrichment_fields"`
}

func (r SubscriptionRequest) Validate() error {
	if !r.EventType.Valid() {
		return &ValidationError{Field: "event_type", Message: "unknown event type " + string(r.EventType)}
	}

	hasClient := r.OAuthClientID != nil && *r.OAuthClientID != ""
	hasQueue := r.QueueName != nil && *r.QueueName != ""
	if hasClient == hasQueue {
		return &ValidationError{Field: "oauth_client_id", Message: "exactly one of oauth_client_id and queue_name must be set"}
	}

	allowed := r.EventType.EnrichmentFields()
	seen := make(map[EnrichmentField]struct{}, len(r.EnrichmentFields))
	for _, f := range r.EnrichmentFields {
		if _, ok := allowed[f]; !ok {
			return &ValidationError{Field: "enrichment_fields", Message: "field " + string(f) + " is not available for " + string(r.EventType)}
		}
		if _, dup := seen[f]; dup {
			return &ValidationError{Field: "enrichment_fields", Message: "duplicate field " + string(f)}
		}
		seen[f] = struct{}{}
	}
	return nil
}
