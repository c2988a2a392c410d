// Package live pushes task events to dashboards over WebSocket.
package live

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/an4xdev/SprintForge/internal/eventbus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

type client struct {
	conn   *websocket.Conn
	taskID string
	send   chan *eventbus.Event
}

// Hub fans bus events out to connected WebSocket clients. A client can pass
// ?taskId= to receive only that task's events. Clients that fall behind are
// disconnected rather than slowing the others down.
type Hub struct {
	eventBus *eventbus.Bus
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(bus *eventbus.Bus) *Hub {
	return &Hub{
		eventBus: bus,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) Start(ctx context.Context) {
	subID, ch := h.eventBus.Subscribe(256)
	defer h.eventBus.Unsubscribe(subID)

	slog.Info("live hub started")
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			slog.Info("live hub stopped")
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind.IsTask() {
				h.broadcast(ev)
			}
		}
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	c := &client{
		conn:   conn,
		taskID: r.URL.Query().Get("taskId"),
		send:   make(chan *eventbus.Event, sendBuffer),
	}
	h.register(c)
	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister is safe to call more than once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(ev *eventbus.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.taskID != "" && c.taskID != ev.ResourceID {
			continue
		}
		select {
		case c.send <- ev:
		default:
			slog.Warn("live hub: dropping slow client", "remote", c.conn.RemoteAddr().String())
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// readLoop discards client messages and notices when the peer goes away.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
