package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmatatu/pocketpool/internal/auth"
	"github.com/playmatatu/pocketpool/internal/config"
	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/history"
	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/match"
	"github.com/playmatatu/pocketpool/internal/ws"
)

type testAPI struct {
	router  *gin.Engine
	manager *game.Manager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	settings, err := level.Default()
	require.NoError(t, err)
	cfg := &config.Config{Environment: "test", FrontendURL: "http://localhost:5173", SessionTokenTTLMin: 60}

	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub(nil)
	go hub.Run(ctx)
	manager := game.NewManager(game.ManagerConfig{Settings: settings, Outbox: hub})
	signer := auth.NewSigner("secret", time.Hour)
	t.Cleanup(func() {
		manager.Shutdown()
		cancel()
	})

	router := gin.New()
	SetupRoutes(router, Deps{
		Config:  cfg,
		Manager: manager,
		Signer:  signer,
		History: history.NewRepository(nil, nil),
		WS:      ws.NewHandler(hub, manager, signer, nil, false, nil),
	})
	return &testAPI{router: router, manager: manager}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type created struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

func (a *testAPI) create(t *testing.T, body interface{}) created {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/sessions", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out created
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) game.Snapshot {
	t.Helper()
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/v1/health", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestLevels(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/v1/levels", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Levels      []level.Level       `json:"levels"`
		WinScore    int                 `json:"win_score"`
		Controllers map[string][]string `json:"controllers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Levels, 4)
	assert.Equal(t, 5, body.WinScore)
	assert.Equal(t, []string{"touch"}, body.Controllers["touch"])
}

func TestCreateAndFetchSession(t *testing.T) {
	a := newTestAPI(t)

	s := a.create(t, nil)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, 3600, s.ExpiresIn)

	w := a.do(t, http.MethodGet, "/api/v1/sessions/"+s.SessionID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, match.Idle, snap.State)
	assert.Equal(t, "pointer", snap.Controller)

	w = a.do(t, http.MethodGet, "/api/v1/sessions", nil, "")
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestCreateSessionWithOptions(t *testing.T) {
	a := newTestAPI(t)

	s := a.create(t, map[string]interface{}{"controller": "keyboard", "level": 2})

	w := a.do(t, http.MethodGet, "/api/v1/sessions/"+s.SessionID, nil, "")
	snap := decodeSnapshot(t, w)
	assert.Equal(t, "keyboard", snap.Controller)
	assert.Equal(t, 2, snap.LevelID)
	assert.Equal(t, match.Running, snap.State)
}

func TestCreateSessionRejectsBadOptions(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/v1/sessions", map[string]interface{}{"level": 99}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/sessions", map[string]interface{}{"controller": "joystick"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Eventually(t, func() bool { return a.manager.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestGetUnknownSession(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/v1/sessions/nope", nil, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommands(t *testing.T) {
	a := newTestAPI(t)
	s := a.create(t, nil)
	path := "/api/v1/sessions/" + s.SessionID + "/commands"

	w := a.do(t, http.MethodPost, path, game.Command{Name: game.CmdStart}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, http.MethodPost, path, game.Command{Name: game.CmdStart}, s.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, match.Running, decodeSnapshot(t, w).State)

	w = a.do(t, http.MethodPost, path, game.Command{Name: game.CmdPause}, s.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, match.Paused, decodeSnapshot(t, w).State)

	w = a.do(t, http.MethodPost, path, game.Command{Name: "warp"}, s.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, path, map[string]string{}, s.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, path, game.Command{Name: game.CmdQuit}, s.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Eventually(t, func() bool { return a.manager.Count() == 0 }, time.Second, 10*time.Millisecond)

	w = a.do(t, http.MethodPost, path, game.Command{Name: game.CmdStart}, s.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryWithoutDatabase(t *testing.T) {
	a := newTestAPI(t)

	assert.Equal(t, http.StatusServiceUnavailable, a.do(t, http.MethodGet, "/api/v1/history", nil, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, a.do(t, http.MethodGet, "/api/v1/history/stats", nil, "").Code)
}
