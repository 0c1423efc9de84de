package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/api/handlers"
	"github.com/playmatatu/pocketpool/internal/auth"
	"github.com/playmatatu/pocketpool/internal/config"
	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/history"
	"github.com/playmatatu/pocketpool/internal/logging"
	"github.com/playmatatu/pocketpool/internal/middleware"
	"github.com/playmatatu/pocketpool/internal/ws"
)

// Deps are the collaborators the routes are served from.
type Deps struct {
	Config  *config.Config
	Manager *game.Manager
	Signer  *auth.Signer
	History *history.Repository
	WS      *ws.Handler
	Logger  *zap.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	log := logging.OrNop(d.Logger).Named("api")
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORSMiddleware(d.Config, log))

	if d.Config.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Next()
		})
	}

	ttl := time.Duration(d.Config.SessionTokenTTLMin) * time.Minute

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Manager))
		v1.GET("/levels", handlers.ListLevels(d.Manager.Settings()))

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(d.Manager, d.Signer, ttl, log))
			sessions.GET("", handlers.ListSessions(d.Manager))
			sessions.GET("/:id", handlers.GetSession(d.Manager))
			sessions.POST("/:id/commands", handlers.PostCommand(d.Manager, d.Signer, log))
			sessions.GET("/:id/ws", middleware.WebSocketCORSCheck(d.Config), d.WS.HandleWebSocket)
		}

		v1.GET("/history", handlers.RecentMatches(d.History, log))
		v1.GET("/history/stats", handlers.LevelStats(d.History, log))
	}
}
