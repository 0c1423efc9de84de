package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/history"
)

// RecentMatches lists finished matches, newest first.
func RecentMatches(repo *history.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !repo.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History is not enabled"})
			return
		}
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(history.DefaultLimit)))

		results, err := repo.Recent(c.Request.Context(), limit)
		if err != nil {
			log.Error("load history failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": results, "count": len(results)})
	}
}

// LevelStats aggregates finished matches per level.
func LevelStats(repo *history.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !repo.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History is not enabled"})
			return
		}
		stats, err := repo.Stats(c.Request.Context())
		if err != nil {
			log.Error("load stats failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"levels": stats})
	}
}
