package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Priya8975/life-event-share/internal/domain"
)

func TestLEVProvider_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer lev-key", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v1/registration/death/123":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":123,"deceased":{"forenames":"Joan","surname":"Smith","dateOfBirth":"1950-03-01","dateOfDeath":"2026-01-02","sex":"F","address":"1 High St"}}`))
		case "/v1/registration/death/500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	p := NewLEVProvider(server.URL, "lev-key", server.Client())
	ctx := context.Background()

	t.Run("maps the registration", func(t *testing.T) {
		rec, err := p.Fetch(ctx, Request{DataID: "123"})
		require.NoError(t, err)
		assert.Equal(t, "Joan", rec[domain.FieldFirstName])
		assert.Equal(t, "Smith", rec[domain.FieldLastName])
		assert.Equal(t, "F", rec[domain.FieldSex])
		assert.Equal(t, "1 High St", rec[domain.FieldAddress])
	})

	t.Run("unknown registration has no data", func(t *testing.T) {
		rec, err := p.Fetch(ctx, Request{DataID: "999"})
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("non numeric id is bad data", func(t *testing.T) {
		_, err := p.Fetch(ctx, Request{DataID: "abc"})
		assert.Equal(t, ErrorBadData, GetCategory(err))
	})

	t.Run("server error is an outage", func(t *testing.T) {
		_, err := p.Fetch(ctx, Request{DataID: "500"})
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})
}

func TestPrisonerProvider_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prisoner/A1234BC" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"prisonerNumber":"A1234BC","firstName":"John","middleNames":"Paul","lastName":"Jones","gender":"Male","dateOfBirth":"1980-05-06"}`))
	}))
	defer server.Close()

	p := NewPrisonerProvider(server.URL, "", server.Client())
	rec, err := p.Fetch(context.Background(), Request{DataID: "A1234BC"})
	require.NoError(t, err)
	assert.Equal(t, "A1234BC", rec[domain.FieldPrisonerNumber])
	assert.Equal(t, "Paul", rec[domain.FieldMiddleNames])
	assert.Equal(t, "Male", rec[domain.FieldSex])
}

func TestLEVProvider_SlowUpstreamTimesOut(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := NewLEVProvider(server.URL, "", server.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Fetch(ctx, Request{DataID: "1"})
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
