// Package realtime pushes trip changes to connected websocket clients.
// A client gets the full list of trips when it connects and one message per
// changed trip afterwards.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wheels/metrics"
	"wheels/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

const (
	TypeSnapshot = "snapshot"
	TypeTrip     = "trip"
)

// Message is the only frame the hub writes.
type Message struct {
	Type  string         `json:"type"`
	Trips []*models.Trip `json:"trips,omitempty"`
	Trip  *models.Trip   `json:"trip,omitempty"`
}

// SnapshotFunc lists the trips sent to a client on connect.
type SnapshotFunc func(ctx context.Context) ([]*models.Trip, error)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte

	// Owned by Run. Until the snapshot is queued, broadcasts wait in
	// pending so none is lost while the snapshot is being read.
	ready   bool
	pending [][]byte
}

type readyMsg struct {
	c        *client
	snapshot []byte
}

type Hub struct {
	snapshot SnapshotFunc
	metrics  *metrics.Collector

	register   chan *client
	ready      chan readyMsg
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(snapshot SnapshotFunc, m *metrics.Collector) *Hub {
	return &Hub{
		snapshot:   snapshot,
		metrics:    m,
		register:   make(chan *client),
		ready:      make(chan readyMsg),
		unregister: make(chan *client, 16),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.metrics.WSClientsAdd(1)
			log.Printf("realtime: client connected user=%s", c.userID)

		case m := <-h.ready:
			h.mu.Lock()
			if _, ok := h.clients[m.c]; ok {
				h.flush(m.c, m.snapshot)
			}
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				log.Printf("realtime: client disconnected user=%s", c.userID)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				h.deliver(c, msg)
			}
			h.mu.Unlock()
		}
	}
}

// deliver must be called with mu held.
func (h *Hub) deliver(c *client, msg []byte) {
	if !c.ready {
		if len(c.pending) >= sendBuffer {
			h.drop(c)
			log.Printf("realtime: dropped client before snapshot user=%s", c.userID)
			return
		}
		c.pending = append(c.pending, msg)
		return
	}
	select {
	case c.send <- msg:
	default:
		h.drop(c)
		log.Printf("realtime: dropped slow client user=%s", c.userID)
	}
}

// flush queues the snapshot followed by whatever was broadcast while it was
// being read. Must be called with mu held.
func (h *Hub) flush(c *client, snapshot []byte) {
	c.ready = true
	queued := append([][]byte{snapshot}, c.pending...)
	c.pending = nil
	for _, msg := range queued {
		select {
		case c.send <- msg:
		default:
			h.drop(c)
			log.Printf("realtime: dropped slow client user=%s", c.userID)
			return
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.metrics.WSClientsAdd(-1)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TripChanged queues a trip message for every client. It never blocks; when
// the hub is saturated the update is dropped and clients catch up on their
// next snapshot.
func (h *Hub) TripChanged(trip *models.Trip) {
	b, err := json.Marshal(Message{Type: TypeTrip, Trip: trip})
	if err != nil {
		log.Printf("realtime: encode trip=%s: %v", trip.ID, err)
		return
	}
	select {
	case h.broadcast <- b:
	default:
		log.Printf("realtime: broadcast queue full, dropped trip=%s", trip.ID)
	}
}

// ServeWS upgrades the request and attaches the connection for sess. The
// client is registered before the snapshot is read, so every change after
// that point reaches it after the snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sess models.Session) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade: %v", err)
		return
	}
	c := &client{userID: sess.UserID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)

	trips, err := h.snapshot(r.Context())
	if err != nil {
		log.Printf("realtime: snapshot user=%s: %v", c.userID, err)
		conn.Close()
		return
	}
	first, err := json.Marshal(Message{Type: TypeSnapshot, Trips: trips})
	if err != nil {
		log.Printf("realtime: encode snapshot user=%s: %v", c.userID, err)
		conn.Close()
		return
	}
	select {
	case h.ready <- readyMsg{c: c, snapshot: first}:
	case <-h.done:
	}
}

// readPump only keeps the connection alive; clients do not send anything
// the hub acts on.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
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

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
