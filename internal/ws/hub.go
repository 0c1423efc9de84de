// Package ws streams sessions to browser clients over websockets.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/logging"
)

// Hub maintains the set of connected clients, grouped into one room per
// session. It implements game.Outbox.
type Hub struct {
	rooms      map[string]map[*Client]struct{} // session ID -> clients
	unregister chan *Client
	done       chan struct{}
	log        *zap.Logger
	mu         sync.RWMutex
}

// NewHub creates a new Hub. Call Run to start it.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logging.OrNop(log).Named("ws"),
	}
}

// Run processes disconnects until ctx is canceled, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case c := <-h.unregister:
			h.mu.Lock()
			if h.detach(c) {
				close(c.send)
				h.log.Info("client disconnected", zap.String("session_id", c.sessionID))
			}
			h.mu.Unlock()
		}
	}
}

// add joins c to its session's room. It fails once the hub has stopped.
func (h *Hub) add(c *Client) bool {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return false
	default:
	}
	room, ok := h.rooms[c.sessionID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.sessionID] = room
	}
	room[c] = struct{}{}
	size := len(room)
	h.mu.Unlock()

	h.log.Info("client connected",
		zap.String("session_id", c.sessionID),
		zap.Bool("spectator", c.spectator),
		zap.Int("room_size", size),
	)
	return true
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// detach removes c from its room and reports whether it was present. The
// caller holds h.mu.
func (h *Hub) detach(c *Client) bool {
	room, ok := h.rooms[c.sessionID]
	if !ok {
		return false
	}
	if _, ok := room[c]; !ok {
		return false
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.sessionID)
	}
	return true
}

// Deliver broadcasts n to the session's room. A session_closed notification
// also disconnects the room once its queued messages are written.
func (h *Hub) Deliver(n game.Notification) {
	h.BroadcastToSession(n.SessionID, n)
	if n.Type == game.NotifyClosed {
		h.closeRoom(n.SessionID)
	}
}

// BroadcastToSession sends a message to every client watching a session.
func (h *Hub) BroadcastToSession(sessionID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("failed to encode message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[sessionID] {
		select {
		case c.send <- data:
		default:
			// Client's buffer is full
			h.log.Debug("client send buffer full, dropping message", zap.String("session_id", sessionID))
		}
	}
}

// RoomSize returns the number of clients watching a session.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

func (h *Hub) closeRoom(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[sessionID] {
		close(c.send)
	}
	delete(h.rooms, sessionID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, id)
	}
}
