// Package realtime pushes ride lifecycle events to connected websocket
// clients.
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"husaride/internal/auth"
	"husaride/internal/models"
)

type EventType string

const (
	EventRideCreated    EventType = "ride.created"
	EventRideAccepted   EventType = "ride.accepted"
	EventRideReassigned EventType = "ride.reassigned"
	EventRideCompleted  EventType = "ride.completed"
	EventRideCancelled  EventType = "ride.cancelled"
)

type Event struct {
	Type EventType    `json:"type"`
	Ride *models.Ride `json:"ride"`
	// PreviousDriverID is set on reassignment so the old driver hears about it.
	PreviousDriverID string    `json:"-"`
	At               time.Time `json:"at"`
}

// Visible reports whether the holder of id should receive ev.
func Visible(ev Event, id auth.Identity) bool {
	r := ev.Ride
	if r == nil {
		return false
	}
	switch id.Role {
	case models.RoleAdmin:
		return true
	case models.RoleDriver:
		if ev.Type == EventRideCreated {
			return true
		}
		return r.IsDriver(id.UserID) || (ev.PreviousDriverID != "" && ev.PreviousDriverID == id.UserID)
	case models.RolePassenger:
		return r.IsPassenger(id.UserID)
	}
	return false
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

type client struct {
	conn     *websocket.Conn
	identity auth.Identity
	send     chan []byte
}

// Hub tracks live connections and broadcasts events to those allowed to
// see them.
type Hub struct {
	clients   map[*client]bool
	broadcast chan Event
	mu        sync.Mutex
	done      chan struct{}
}

func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[*client]bool),
		broadcast: make(chan Event, 100),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.broadcast:
			h.fanOut(ev)
		}
	}
}

func (h *Hub) fanOut(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).Warn("Failed to encode ride event")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if !Visible(ev, c.identity) {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// Slow consumer: disconnect rather than block the hub.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Publish queues ev for broadcast. A full hub drops the event instead of
// blocking the caller.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- ev:
	default:
		logrus.WithField("type", ev.Type).Warn("Ride event channel full, dropping message")
	}
}

// Serve registers conn for id and pumps events to it until the peer goes
// away. It blocks for the lifetime of the connection.
func (h *Hub) Serve(conn *websocket.Conn, id auth.Identity) {
	c := &client{conn: conn, identity: id, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	logrus.WithFields(logrus.Fields{
		"user_id":  c.identity.UserID,
		"role":     c.identity.Role,
		"conn_ptr": fmt.Sprintf("%p", c.conn),
	}).Info("Client registered with ride hub")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	logrus.WithField("user_id", c.identity.UserID).Info("Client unregistered from ride hub")
}

// ClientCount is the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close stops the broadcast loop. Connected clients are left to time out.
func (h *Hub) Close() {
	close(h.done)
}

// readPump only services control frames; clients never send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).WithField("user_id", c.identity.UserID).Warn("Websocket closed unexpectedly")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
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
