package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/auth"
	"github.com/playmatatu/pocketpool/internal/game"
)

const commandTimeout = 5 * time.Second

type createSessionRequest struct {
	Controller string `json:"controller,omitempty"`
	Level      *int   `json:"level,omitempty"`
}

// CreateSession starts a table and returns its id with a token for the
// command and websocket endpoints.
func CreateSession(manager *game.Manager, signer *auth.Signer, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createSessionRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}
		if req.Level != nil && !manager.Settings().InRange(*req.Level) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown level"})
			return
		}

		s, err := manager.Create()
		if err != nil {
			log.Error("create session failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not create session"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
		defer cancel()
		if req.Controller != "" {
			if err := s.Do(ctx, game.Command{Name: game.CmdSetController, Controller: req.Controller}); err != nil {
				manager.Remove(s.ID())
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		if req.Level != nil && *req.Level != s.Snapshot().LevelID {
			if err := s.Do(ctx, game.Command{Name: game.CmdChangeLevel, Level: *req.Level}); err != nil {
				manager.Remove(s.ID())
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}

		token, err := signer.Issue(s.ID())
		if err != nil {
			log.Error("issue token failed", zap.Error(err))
			manager.Remove(s.ID())
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not issue token"})
			return
		}

		c.Header("X-Session-ID", s.ID())
		c.JSON(http.StatusCreated, gin.H{
			"session_id": s.ID(),
			"token":      token,
			"expires_in": int(ttl.Seconds()),
			"ws_url":     "/api/v1/sessions/" + s.ID() + "/ws?token=" + token,
		})
	}
}

// GetSession returns the latest snapshot of a session.
func GetSession(manager *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := manager.LoadSnapshot(c.Request.Context(), c.Param("id"))
		if errors.Is(err, game.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load session"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// ListSessions returns the snapshot of every live session.
func ListSessions(manager *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snaps := manager.Snapshots()
		c.JSON(http.StatusOK, gin.H{"sessions": snaps, "count": len(snaps)})
	}
}

// PostCommand runs a command against a session the caller holds a token for.
func PostCommand(manager *game.Manager, signer *auth.Signer, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := signer.VerifyFor(bearerToken(c), id); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing token"})
			return
		}

		var cmd game.Command
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid command"})
			return
		}

		s, err := manager.Get(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), commandTimeout)
		defer cancel()
		switch err := s.Do(ctx, cmd); {
		case err == nil:
		case errors.Is(err, game.ErrSessionClosed):
			c.JSON(http.StatusGone, gin.H{"error": "Session closed"})
			return
		case errors.Is(err, context.DeadlineExceeded):
			log.Warn("command timed out", zap.String("session_id", id), zap.String("command", string(cmd.Name)))
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Session did not respond"})
			return
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if cmd.Name == game.CmdQuit {
			c.JSON(http.StatusOK, gin.H{"status": "closed"})
			return
		}
		c.JSON(http.StatusOK, s.Snapshot())
	}
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
