package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/shot"
)

// ListLevels returns the level table and the match rules.
func ListLevels(settings *level.Settings) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"levels":         settings.Levels,
			"start_level":    settings.StartLevel,
			"starting_score": settings.StartingScore,
			"win_score":      settings.WinScore,
			"lose_score":     settings.LoseScore,
			"controllers": gin.H{
				"desktop": shot.SupportedControllers(shot.PlatformDesktop),
				"touch":   shot.SupportedControllers(shot.PlatformTouch),
			},
		})
	}
}
