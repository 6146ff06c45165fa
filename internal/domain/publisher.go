package domain

import "time"

type Publisher struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	WhenCreated time.Time `json:"when_created"`
}

type PublisherRequest struct {
	Name string `json:"name"`
}

func (r PublisherRequest) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// PublisherSubscription maps a publisher credential and dataset onto an
// internal event type. ExpiryDuration bounds how long derived records live.
type PublisherSubscription struct {
	ID             string        `json:"id"`
	PublisherID    string        `json:"publisher_id"`
	ClientID       string        `json:"client_id"`
	EventType      EventType     `json:"event_type"`
	DatasetID      string        `json:"dataset_id"`
	ExpiryDuration time.Duration `json:"expiry_duration"`
	WhenCreated    time.Time     `json:"when_created"`
}

type PublisherSubscriptionRequest struct {
	ClientID       string    `json:"client_id"`
	EventType      EventType `json:"event_type"`
	DatasetID      string    `json:"dataset_id"`
	ExpiryDuration string    `json:"expiry_duration,omitempty"`
}

// Parse validates r and returns its expiry duration.
func (r PublisherSubscriptionRequest) Parse() (time.Duration, error) {
	if r.ClientID == "" {
		return 0, &ValidationError{Field: "client_id", Message: "client_id is required"}
	}
	if !r.EventType.Valid() {
		return 0, &ValidationError{Field: "event_type", Message: "unknown event type " + string(r.EventType)}
	}
	if r.ExpiryDuration == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.ExpiryDuration)
	if err != nil || d < 0 {
		return 0, &ValidationError{Field: "expiry_duration", Message: "expiry_duration must be a non-negative duration"}
	}
	return d, nil
}

// AdminAction is an audited admin mutation.
type AdminAction struct {
	Name    string    `json:"name"`
	Details any       `json:"details"`
	At      time.Time `json:"at"`
}
