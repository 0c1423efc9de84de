package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOriginAllowed(t *testing.T) {
	dev := &config.Config{Environment: "development"}
	assert.True(t, OriginAllowed(dev, "http://localhost:3000"))
	assert.False(t, OriginAllowed(dev, "https://evil.example"))
	assert.False(t, OriginAllowed(dev, ""))

	prod := &config.Config{
		Environment:    "production",
		FrontendURL:    "https://pool.example",
		AllowedOrigins: []string{"https://spectate.example"},
	}
	assert.True(t, OriginAllowed(prod, "https://pool.example"))
	assert.True(t, OriginAllowed(prod, "https://spectate.example"))
	assert.False(t, OriginAllowed(prod, "http://localhost:5173"))
}

func upgradeRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestWebSocketCORSCheck(t *testing.T) {
	cfg := &config.Config{Environment: "production", FrontendURL: "https://pool.example"}
	r := gin.New()
	r.Use(WebSocketCORSCheck(cfg))
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"plain request passes", httptest.NewRequest(http.MethodGet, "/ws", nil), http.StatusNoContent},
		{"missing origin", upgradeRequest(""), http.StatusBadRequest},
		{"foreign origin", upgradeRequest("https://evil.example"), http.StatusForbidden},
		{"frontend origin", upgradeRequest("https://pool.example"), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tc.req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := &config.Config{Environment: "development"}
	r := gin.New()
	r.Use(CORSMiddleware(cfg, zap.NewNop()))
	r.POST("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
