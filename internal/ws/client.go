package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/shot"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	commandTimeout = 5 * time.Second
	sendBuffer     = 256
)

// Inbound message types.
const (
	MsgInput    = "input"
	MsgCommand  = "command"
	MsgGetState = "get_state"
	MsgError    = "error"
)

// WSMessage is one inbound client message.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client is one websocket connection watching a session. A spectator
// watches a session hosted by another instance and may not send input.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	session   *game.Session
	spectator bool
	send      chan []byte
	log       *zap.Logger
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Room closed; best-effort close frame.
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Debug("write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

// readPump reads client messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("unexpected close", zap.Error(err))
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	if c.spectator {
		c.sendError("spectators cannot control the table")
		return
	}

	switch msg.Type {
	case MsgInput:
		var in shot.Input
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			c.sendError("invalid input frame")
			return
		}
		if err := c.session.Submit(in); err != nil {
			c.sendError(err.Error())
		}

	case MsgCommand:
		var cmd game.Command
		if err := json.Unmarshal(msg.Data, &cmd); err != nil || cmd.Name == "" {
			c.sendError("invalid command")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		err := c.session.Do(ctx, cmd)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				c.log.Warn("command timed out", zap.String("command", string(cmd.Name)))
			}
			c.sendError(err.Error())
		}

	case MsgGetState:
		c.sendSnapshot()

	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) sendSnapshot() {
	c.sendJSON(snapshotMessage(c.sessionID, c.session.Snapshot()))
}

func snapshotMessage(sessionID string, snap game.Snapshot) game.Notification {
	return game.Notification{
		Type:      game.NotifySnapshot,
		SessionID: sessionID,
		Snapshot:  &snap,
		At:        time.Now(),
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    MsgError,
		"message": message,
	})
}

func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error("failed to encode message", zap.Error(err))
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	// The hub closes send when it drops the client.
	if room, ok := c.hub.rooms[c.sessionID]; ok {
		if _, ok := room[c]; ok {
			select {
			case c.send <- data:
			default:
				c.log.Debug("send buffer full, dropping message")
			}
		}
	}
}
