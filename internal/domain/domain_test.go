package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestSubscriptionRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       SubscriptionRequest
		wantField string
	}{
		{
			name: "poll subscription",
			req: SubscriptionRequest{
				EventType:        EventTypeDeathNotification,
				OAuthClientID:    ptr("client-a"),
				EnrichmentFields: []EnrichmentField{FieldFirstName, FieldDateOfDeath},
			},
		},
		{
			name: "push subscription",
			req:  SubscriptionRequest{EventType: EventTypeEnteredPrison, QueueName: ptr("acq-queue")},
		},
		{
			name:      "unknown event type",
			req:       SubscriptionRequest{EventType: "MARRIAGE", OAuthClientID: ptr("client-a")},
			wantField: "event_type",
		},
		{
			name:      "neither client nor queue",
			req:       SubscriptionRequest{EventType: EventTypeDeathNotification},
			wantField: "oauth_client_id",
		},
		{
			name:      "both client and queue",
			req:       SubscriptionRequest{EventType: EventTypeDeathNotification, OAuthClientID: ptr("c"), QueueName: ptr("q")},
			wantField: "oauth_client_id",
		},
		{
			name:      "empty strings count as unset",
			req:       SubscriptionRequest{EventType: EventTypeDeathNotification, OAuthClientID: ptr(""), QueueName: ptr("")},
			wantField: "oauth_client_id",
		},
		{
			name: "field not offered by event type",
			req: SubscriptionRequest{
				EventType:        EventTypeDeathNotification,
				OAuthClientID:    ptr("c"),
				EnrichmentFields: []EnrichmentField{FieldPrisonerNumber},
			},
			wantField: "enrichment_fields",
		},
		{
			name: "duplicate field",
			req: SubscriptionRequest{
				EventType:        EventTypeDeathNotification,
				OAuthClientID:    ptr("c"),
				EnrichmentFields: []EnrichmentField{FieldSex, FieldSex},
			},
			wantField: "enrichment_fields",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestAcquirerSubscription_Mode(t *testing.T) {
	sub := AcquirerSubscription{OAuthClientID: ptr("c")}
	assert.False(t, sub.IsPush())
	assert.True(t, sub.IsLive())

	now := time.Now()
	sub = AcquirerSubscription{QueueName: ptr("q"), WhenDeleted: &now}
	assert.True(t, sub.IsPush())
	assert.False(t, sub.IsLive())
}

func TestNotification_Validate(t *testing.T) {
	valid := Notification{
		EventType: EventTypeDeathNotification,
		EventTime: time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC),
		DataID:    "123456789",
	}
	assert.NoError(t, valid.Validate())

	noTime := valid
	noTime.EventTime = time.Time{}
	var verr *ValidationError
	require.ErrorAs(t, noTime.Validate(), &verr)
	assert.Equal(t, "event_time", verr.Field)

	badType := valid
	badType.EventType = "BIRTH"
	require.ErrorAs(t, badType.Validate(), &verr)
	assert.Equal(t, "event_type", verr.Field)
}

func TestPublisherSubscriptionRequest_Parse(t *testing.T) {
	req := PublisherSubscriptionRequest{ClientID: "hmpo", EventType: EventTypeDeathNotification, ExpiryDuration: "48h"}
	d, err := req.Parse()
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, d)

	req.ExpiryDuration = ""
	d, err = req.Parse()
	require.NoError(t, err)
	assert.Zero(t, d)

	var verr *ValidationError
	req.ExpiryDuration = "-1h"
	_, err = req.Parse()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "expiry_duration", verr.Field)

	req.ExpiryDuration = "soon"
	_, err = req.Parse()
	require.ErrorAs(t, err, &verr)

	req = PublisherSubscriptionRequest{EventType: EventTypeDeathNotification}
	_, err = req.Parse()
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "client_id", verr.Field)
}

func TestEventType_EnrichmentFields(t *testing.T) {
	assert.Contains(t, EventTypeDeathNotification.EnrichmentFields(), FieldDateOfDeath)
	assert.NotContains(t, EventTypeDeathNotification.EnrichmentFields(), FieldPrisonerNumber)
	assert.Contains(t, EventTypeEnteredPrison.EnrichmentFields(), FieldPrisonerNumber)
	assert.Empty(t, EventTypeTestEvent.EnrichmentFields())
	assert.True(t, EventTypeTestEvent.Valid())
	assert.False(t, EventType("").Valid())
}

func TestErrorClassification(t *testing.T) {
	wrapped := fmt.Errorf("loading event: %w", ErrEventNotFound)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsRetryable(wrapped))

	timeout := fmt.Errorf("lev: %w", ErrTimeout)
	assert.True(t, IsRetryable(timeout))
	assert.True(t, IsRetryable(ErrUnavailable))
	assert.False(t, IsNotFound(timeout))

	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsRetryable(ErrUnsupportedDataset))
}
