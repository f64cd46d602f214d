// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds each connection's outbound queue. A subscriber
	// that cannot drain it loses frames rather than blocking broadcasts.
	sendBuffer = 32

	maxMessageSize = 4096
)

// client is one websocket subscriber. All writes go through send and a
// single writer goroutine; gorilla connections do not allow concurrent
// writers.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, send: make(chan []byte, sendBuffer)}
}

// enqueue hands a frame to the writer pump without blocking. Returns
// false when the buffer is full and the frame was dropped.
func (c *client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with pings. It exits when send closes or a write
// fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub tracks the voter and display subscribers of every event link and
// fans snapshots out to them. It satisfies the engine's Broadcaster.
type Hub struct {
	mu       sync.RWMutex
	voters   map[string]map[*client]struct{}
	displays map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		voters:   make(map[string]map[*client]struct{}),
		displays: make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) add(m map[string]map[*client]struct{}, link string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := m[link]
	if !ok {
		set = make(map[*client]struct{})
		m[link] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(m map[string]map[*client]struct{}, link string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := m[link]; ok {
		if _, present := set[c]; present {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(m, link)
			}
		}
	}
}

func (h *Hub) broadcast(m map[string]map[*client]struct{}, link string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range m[link] {
		if !c.enqueue(data) {
			slog.Warn("dropping frame for slow subscriber", "link", link)
		}
	}
}

// BroadcastVoter sends msg to every voter connection on the link.
func (h *Hub) BroadcastVoter(link string, msg any) {
	h.broadcast(h.voters, link, msg)
}

// BroadcastDisplay sends msg to every display connection on the link.
func (h *Hub) BroadcastDisplay(link string, msg any) {
	h.broadcast(h.displays, link, msg)
}

// VoterCount reports the live voter connections for a link.
func (h *Hub) VoterCount(link string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.voters[link])
}

// DisplayCount reports the live display connections for a link.
func (h *Hub) DisplayCount(link string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.displays[link])
}
