package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestWebSocketServer() *WebSocketServer {
	return &WebSocketServer{
		path:    "/ws/status",
		logger:  slog.Default(),
		clients: make(map[*websocket.Conn]chan CarStatus),
	}
}

func dialTestServer(t *testing.T, ws *WebSocketServer) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(ws.handleUpgrade))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		return len(ws.clients) == 1
	}, time.Second, time.Millisecond)

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestWebSocketServer_PublishesToConnectedClient(t *testing.T) {
	ws := newTestWebSocketServer()
	conn, cleanup := dialTestServer(t, ws)
	defer cleanup()

	ws.Publish(CarStatus{Car: "Alpha", Event: "status", Status: "Closed"})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got CarStatus
	require.NoError(t, json.Unmarshal(payload, &got))
	require.Equal(t, "Alpha", got.Car)
	require.Equal(t, "status", got.Event)
}

func TestWebSocketServer_DropsClientWithFullBuffer(t *testing.T) {
	ws := newTestWebSocketServer()

	// Register a real server-side connection directly, bypassing
	// handleUpgrade's drain loop, so its channel is never read and Publish
	// must hit the full-buffer drop path rather than the happy path.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ch := make(chan CarStatus, 1)
		ch <- CarStatus{Car: "Alpha", Event: "status"}
		ws.mu.Lock()
		ws.clients[conn] = ch
		ws.mu.Unlock()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		return len(ws.clients) == 1
	}, time.Second, time.Millisecond)

	ws.Publish(CarStatus{Car: "Alpha", Event: "status"})

	ws.mu.Lock()
	defer ws.mu.Unlock()
	require.Empty(t, ws.clients, "client with a full buffer should be dropped")
}
