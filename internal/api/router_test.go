package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Priya8975/life-event-share/internal/domain"
	"github.com/Priya8975/life-event-share/internal/engine"
	"github.com/Priya8975/life-event-share/internal/enrichment"
	"github.com/Priya8975/life-event-share/internal/service"
	"github.com/Priya8975/life-event-share/internal/service/mocks"
	"github.com/Priya8975/life-event-share/internal/store"
)

const adminToken = "admin-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type staticProvider struct{}

func (staticProvider) ID() string { return "lev" }

func (staticProvider) Fetch(context.Context, enrichment.Request) (enrichment.Record, error) {
	return enrichment.Record{
		domain.FieldFirstName: "Joan",
		domain.FieldLastName:  "Smith",
	}, nil
}

type apiFixture struct {
	server  *httptest.Server
	tokens  *Tokens
	clients *mocks.MockClientAdmin
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := discardLogger()
	mem := store.NewMemory()
	ctrl := gomock.NewController(t)
	queues := mocks.NewMockQueueAdmin(ctrl)
	clients := mocks.NewMockClientAdmin(ctrl)

	registry := enrichment.NewRegistry()
	require.NoError(t, registry.Register(domain.EventTypeDeathNotification, "", staticProvider{}))
	pipeline := enrichment.NewPipeline(registry, time.Second, logger)

	router := engine.NewRouter(mem, mem, logger)
	tokens := NewTokens("test-signing-key", "life-event-share")

	handler := NewRouter(Handlers{
		Tokens:     tokens,
		AdminToken: adminToken,
		Ingester:   router,
		Events:     service.NewEventService(mem, pipeline, 24*time.Hour, service.WithLogger(logger)),
		Acquirers:  service.NewAcquirerService(mem, queues, clients, service.WithLogger(logger)),
		Publishers: service.NewPublisherService(mem, service.WithLogger(logger)),
		Dashboard:  NewDashboardHandler(mem, nil, nil, registry.ProviderIDs(), nil, logger),
		Logger:     logger,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &apiFixture{server: srv, tokens: tokens, clients: clients}
}

func (f *apiFixture) clientToken(t *testing.T, clientID string) string {
	t.Helper()
	token, err := f.tokens.Issue(clientID, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	resp := f.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decode[HealthResponse](t, resp).Status)
}

func TestAuth(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("poll without token", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/v1/events", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("poll with token signed by another key", func(t *testing.T) {
		forged, err := NewTokens("other-key", "life-event-share").Issue("client-a", time.Hour)
		require.NoError(t, err)
		resp := f.do(t, http.MethodGet, "/api/v1/events", forged, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := f.tokens.Issue("client-a", -time.Minute)
		require.NoError(t, err)
		resp := f.do(t, http.MethodGet, "/api/v1/events", expired, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin route with client token", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/v1/acquirers", f.clientToken(t, "client-a"), nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin route with admin token", func(t *testing.T) {
		resp := f.do(t, http.MethodGet, "/api/v1/acquirers", adminToken, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestPollFlow(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/acquirers", adminToken, domain.AcquirerRequest{Name: "DWP"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	acquirer := decode[domain.Acquirer](t, resp)

	clientID := "dwp-client"
	resp = f.do(t, http.MethodPost, "/api/v1/acquirers/"+acquirer.ID+"/subscriptions", adminToken, domain.SubscriptionRequest{
		EventType:                      domain.EventTypeDeathNotification,
		OAuthClientID:                  &clientID,
		EnrichmentFieldsIncludedInPoll: true,
		EnrichmentFields:               []domain.EnrichmentField{domain.FieldFirstName},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1/notifications", f.clientToken(t, "hmpo"), domain.Notification{
		EventType: domain.EventTypeDeathNotification,
		EventTime: time.Now().Add(-time.Minute),
		DataID:    "123456789",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, decode[ingestResponse](t, resp).RecordsCreated)

	token := f.clientToken(t, clientID)

	resp = f.do(t, http.MethodGet, "/api/v1/events", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[domain.EventsPage](t, resp)
	require.Equal(t, 1, page.TotalCount)
	require.Len(t, page.Events, 1)
	item := page.Events[0]
	assert.Equal(t, "123456789", item.SourceID)
	assert.Equal(t, "Joan", item.EventData[domain.FieldFirstName])
	assert.NotContains(t, item.EventData, domain.FieldLastName)

	resp = f.do(t, http.MethodGet, "/api/v1/events/"+item.EventID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/events/"+item.EventID, f.clientToken(t, "someone-else"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1/events/status", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	statuses := decode[[]domain.EventStatus](t, resp)
	require.Len(t, statuses, 1)
	assert.Equal(t, 1, statuses[0].Count)

	resp = f.do(t, http.MethodDelete, "/api/v1/events/"+item.EventID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	deleted := decode[domain.EventNotification](t, resp)
	assert.Empty(t, deleted.EventData)

	resp = f.do(t, http.MethodDelete, "/api/v1/events/"+item.EventID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventsQueryValidation(t *testing.T) {
	f := newAPIFixture(t)
	token := f.clientToken(t, "client-a")

	for _, query := range []string{
		"?eventType=NOT_A_TYPE",
		"?startTime=yesterday",
		"?page=one",
		"?pageSize=5000",
	} {
		resp := f.do(t, http.MethodGet, "/api/v1/events"+query, token, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestSubscriptionValidation(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/acquirers", adminToken, domain.AcquirerRequest{Name: "DWP"})
	acquirer := decode[domain.Acquirer](t, resp)

	client, queue := "client", "queue"
	resp = f.do(t, http.MethodPost, "/api/v1/acquirers/"+acquirer.ID+"/subscriptions", adminToken, domain.SubscriptionRequest{
		EventType:     domain.EventTypeDeathNotification,
		OAuthClientID: &client,
		QueueName:     &queue,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "oauth_client_id", decode[errorResponse](t, resp).Field)

	resp = f.do(t, http.MethodPost, "/api/v1/acquirers/missing/subscriptions", adminToken, domain.SubscriptionRequest{
		EventType:     domain.EventTypeDeathNotification,
		OAuthClientID: &client,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAcquirerSubscription(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/acquirers", adminToken, domain.AcquirerRequest{Name: "DWP"})
	acquirer := decode[domain.Acquirer](t, resp)
	client := "dwp-client"
	resp = f.do(t, http.MethodPost, "/api/v1/acquirers/"+acquirer.ID+"/subscriptions", adminToken, domain.SubscriptionRequest{
		EventType:     domain.EventTypeDeathNotification,
		OAuthClientID: &client,
	})
	sub := decode[domain.AcquirerSubscription](t, resp)

	f.clients.EXPECT().DeleteClient(gomock.Any(), client).Return(nil)
	path := fmt.Sprintf("/api/v1/acquirers/%s/subscriptions/%s", acquirer.ID, sub.ID)
	resp = f.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboard(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodPost, "/api/v1/acquirers", adminToken, domain.AcquirerRequest{Name: "DWP"})

	resp := f.do(t, http.MethodGet, "/api/v1/dashboard", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[dashboardResponse](t, resp)
	assert.Equal(t, 1, body.LiveAcquirers)
	require.Len(t, body.Providers, 1)
	assert.Equal(t, "lev", body.Providers[0].Provider)
	assert.Equal(t, engine.StateClosed, body.Providers[0].CircuitBreaker.State)
}

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Field: "name", Message: "name is required"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("loading: %w", domain.ErrEventNotFound), http.StatusNotFound},
		{"unsupported dataset", fmt.Errorf("%w: DEATH_NOTIFICATION/\"X\"", domain.ErrUnsupportedDataset), http.StatusUnprocessableEntity},
		{"timeout", enrichment.NewProviderError(enrichment.ErrorTimeout, "lev", "slow", nil), http.StatusServiceUnavailable},
		{"unavailable", domain.ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondServiceError(rec, discardLogger(), tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
