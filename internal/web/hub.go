package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/whack-a-mole/internal/game"
	"github.com/sweeney/whack-a-mole/internal/logger"
	"github.com/sweeney/whack-a-mole/internal/mqtt"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64
)

// Hub fans game events out to websocket viewers. Each message is the same
// JSON document published on the MQTT events topic.
type Hub struct {
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.Mutex
	clients map[*viewer]struct{}
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// Read-only feed on the local network.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now:     time.Now,
		clients: make(map[*viewer]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the viewer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade error", "err", err)
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[v] = struct{}{}
	h.mu.Unlock()
	logger.Debug("ws viewer connected", "remote", r.RemoteAddr)

	go h.writePump(v)
	go h.readPump(v)
}

// Publish formats events and broadcasts them to every viewer.
func (h *Hub) Publish(events []game.Event) {
	for _, e := range events {
		msg, err := mqtt.FormatPayload(e, h.now())
		if err != nil {
			logger.Warn("ws format error", "err", err)
			continue
		}
		h.Broadcast(msg)
	}
}

// Broadcast queues msg for every viewer. A viewer whose queue is full is
// dropped rather than stalling the game loop.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.clients {
		select {
		case v.send <- msg:
		default:
			h.dropLocked(v)
		}
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all viewers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.clients {
		h.dropLocked(v)
	}
}

func (h *Hub) drop(v *viewer) {
	h.mu.Lock()
	h.dropLocked(v)
	h.mu.Unlock()
}

func (h *Hub) dropLocked(v *viewer) {
	if _, ok := h.clients[v]; !ok {
		return
	}
	delete(h.clients, v)
	close(v.send)
}

// readPump discards inbound frames; it exists to process pongs and notice
// disconnects.
func (h *Hub) readPump(v *viewer) {
	defer func() {
		h.drop(v)
		v.conn.Close()
	}()

	v.conn.SetReadLimit(512)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		v.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "err", err)
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
