package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// CarStatus is the JSON payload pushed to every websocket subscriber on a
// car registration, status, or floor-dispatch transition.
type CarStatus struct {
	Car              string `json:"car"`
	Status           string `json:"status,omitempty"`
	CurrentFloor     string `json:"current_floor,omitempty"`
	DestinationFloor string `json:"destination_floor,omitempty"`
	Event            string `json:"event"`
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	ReadBufferSize:    1024,
	WriteBufferSize:   1024,
	EnableCompression: true,
}

// WebSocketServer fans every CarStatus it is given out to all currently
// connected subscribers on its status path. It holds no elevator state of
// its own: the controller's dispatch goroutine is the source of truth and
// pushes every transition through Publish as it happens, grounded on the
// teacher's internal/http.WebSocketServer connection-lifecycle handling.
type WebSocketServer struct {
	path       string
	httpServer *http.Server
	logger     *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan CarStatus
}

// NewWebSocketServer returns a WebSocketServer bound to addr, serving
// upgrades on path.
func NewWebSocketServer(addr, path string, logger *slog.Logger) *WebSocketServer {
	ws := &WebSocketServer{
		path:    path,
		logger:  logger,
		clients: make(map[*websocket.Conn]chan CarStatus),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, ws.handleUpgrade)
	ws.httpServer = &http.Server{Addr: addr, Handler: mux}
	return ws
}

// Start runs the websocket server until it is shut down.
func (ws *WebSocketServer) Start() error {
	ws.logger.Info("websocket status feed listening",
		slog.String("address", ws.httpServer.Addr), slog.String("path", ws.path))
	return ws.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the websocket server and closes every open
// connection.
func (ws *WebSocketServer) Shutdown(ctx context.Context) error {
	ws.mu.Lock()
	for conn, ch := range ws.clients {
		close(ch)
		_ = conn.Close()
	}
	ws.clients = make(map[*websocket.Conn]chan CarStatus)
	ws.mu.Unlock()
	return ws.httpServer.Shutdown(ctx)
}

// Publish fans status out to every connected client. A client whose outbound
// buffer is full is dropped rather than let a slow reader backpressure the
// controller's dispatch goroutine.
func (ws *WebSocketServer) Publish(status CarStatus) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for conn, ch := range ws.clients {
		select {
		case ch <- status:
		default:
			ws.logger.Warn("dropping slow websocket client")
			close(ch)
			delete(ws.clients, conn)
			_ = conn.Close()
		}
	}
}

func (ws *WebSocketServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	ch := make(chan CarStatus, 32)
	ws.mu.Lock()
	ws.clients[conn] = ch
	ws.mu.Unlock()
	ws.logger.Info("websocket client connected")

	defer func() {
		ws.mu.Lock()
		delete(ws.clients, conn)
		ws.mu.Unlock()
		_ = conn.Close()
	}()

	go ws.drainIncoming(conn)

	const (
		pongWait   = 60 * time.Second
		pingPeriod = (pongWait * 9) / 10
		writeWait  = 10 * time.Second
	)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case status, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			payload, err := json.Marshal(status)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drainIncoming discards client frames (this feed is one-directional) but
// must keep reading so pong control frames reach the pong handler and a
// client disconnect is noticed promptly.
func (ws *WebSocketServer) drainIncoming(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
