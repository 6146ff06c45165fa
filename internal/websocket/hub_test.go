package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connectWS(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func readLiveEvent(t *testing.T, conn *websocket.Conn) LiveEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event LiveEvent
	require.NoError(t, json.Unmarshal(message, &event))
	return event
}

func TestHub_ClientConnectsAndDisconnects(t *testing.T) {
	hub := setupTestHub(t)
	assert.Equal(t, 0, hub.ClientCount())

	conn := connectWS(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := setupTestHub(t)
	conn := connectWS(t, hub)
	waitForClients(t, hub, 1)

	hub.Broadcast(LiveEvent{
		Type:      EventIngested,
		EventType: "DEATH_NOTIFICATION",
		Count:     3,
	})

	event := readLiveEvent(t, conn)
	assert.Equal(t, EventIngested, event.Type)
	assert.Equal(t, "DEATH_NOTIFICATION", event.EventType)
	assert.Equal(t, 3, event.Count)
	assert.False(t, event.Timestamp.IsZero())
}

func TestHub_MultipleClients(t *testing.T) {
	hub := setupTestHub(t)
	first := connectWS(t, hub)
	second := connectWS(t, hub)
	waitForClients(t, hub, 2)

	hub.Broadcast(LiveEvent{Type: EventDeleted, EventID: "evt-multi"})

	for _, conn := range []*websocket.Conn{first, second} {
		assert.Equal(t, "evt-multi", readLiveEvent(t, conn).EventID)
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	conn := connectWS(t, hub)
	waitForClients(t, hub, 1)

	cancel()
	waitForClients(t, hub, 0)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
