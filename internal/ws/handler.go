package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/logging"
)

// Sessions looks up locally hosted sessions and persisted snapshots.
type Sessions interface {
	Get(id string) (*game.Session, error)
	LoadSnapshot(ctx context.Context, id string) (game.Snapshot, error)
}

// TokenVerifier checks that a token was issued for a session.
type TokenVerifier interface {
	VerifyFor(raw, sessionID string) error
}

// Handler upgrades session websocket requests.
type Handler struct {
	hub      *Hub
	sessions Sessions
	tokens   TokenVerifier
	upgrader websocket.Upgrader
	// spectate admits clients to sessions hosted elsewhere; their events
	// arrive through the redis relay.
	spectate bool
	log      *zap.Logger
}

// NewHandler builds the handler. checkOrigin may be nil to accept any
// origin; spectate enables watching sessions hosted by other instances.
func NewHandler(hub *Hub, sessions Sessions, tokens TokenVerifier, checkOrigin func(*http.Request) bool, spectate bool, log *zap.Logger) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		hub:      hub,
		sessions: sessions,
		tokens:   tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		spectate: spectate,
		log:      logging.OrNop(log).Named("ws"),
	}
}

// HandleWebSocket serves GET /sessions/:id/ws?token=...
func (h *Handler) HandleWebSocket(c *gin.Context) {
	sessionID := c.Param("id")
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	if err := h.tokens.VerifyFor(token, sessionID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	session, err := h.sessions.Get(sessionID)
	spectator := false
	var initial game.Snapshot
	switch {
	case err == nil:
		initial = session.Snapshot()
	case errors.Is(err, game.ErrSessionNotFound) && h.spectate:
		initial, err = h.sessions.LoadSnapshot(c.Request.Context(), sessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		spectator = true
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		sessionID: sessionID,
		session:   session,
		spectator: spectator,
		send:      make(chan []byte, sendBuffer),
		log:       h.log.With(zap.String("session_id", sessionID)),
	}
	if data, err := json.Marshal(snapshotMessage(sessionID, initial)); err == nil {
		client.send <- data
	}

	if !h.hub.add(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
